package prevention

import (
	"regexp"
	"strings"
)

// dangerousShellExact blocks commands that are destructive with no
// plausible legitimate use in an agent session (spec §4.7 "dangerous
// shell command blocklist").
var dangerousShellExact = []string{
	"rm -rf /",
	"rm -rf /*",
	"rm -rf ~",
	"rm -rf .",
	":(){ :|:& };:",
	"mkfs",
	"dd if=/dev/zero of=/dev/sda",
	"chmod -R 777 /",
	"chown -R root /",
	"> /dev/sda",
}

// dangerousShellCaution are substrings that warrant a warning, not an
// outright block — the command may be legitimate in context.
var dangerousShellCaution = []string{
	"rm -rf",
	"sudo ",
	"chmod 777",
	"curl | sh",
	"curl | bash",
	"wget | sh",
	"--force",
	"git push --force",
	"git reset --hard",
}

// CheckShellCommand classifies a shell command string against the
// built-in blocklist/cautionlist. blocked is non-empty only for an exact
// destructive match.
func CheckShellCommand(command string) (blocked string, cautions []string) {
	normalized := strings.TrimSpace(strings.ToLower(command))
	for _, exact := range dangerousShellExact {
		if normalized == strings.ToLower(exact) {
			return exact, nil
		}
	}
	for _, caution := range dangerousShellCaution {
		if strings.Contains(normalized, strings.ToLower(caution)) {
			cautions = append(cautions, caution)
		}
	}
	return "", cautions
}

// dangerousPaths are filesystem locations whose modification would affect
// the host system rather than the task at hand (spec §4.7 "dangerous path
// blocking").
var dangerousPaths = []string{
	"/", "/etc", "/bin", "/sbin", "/usr", "/boot", "/lib", "/lib64",
	"/sys", "/proc", "/root", "/var", "/dev",
	"c:\\windows", "c:\\program files",
}

// CheckPath reports whether path is one of the dangerousPaths system
// directories a write/delete tool must never target, compared
// case-insensitively with trailing separators ignored. Paths beneath
// those directories are not blocked.
func CheckPath(path string) (blocked bool, reason string) {
	normalized := strings.ToLower(strings.TrimRight(path, "/\\"))
	if path == "" {
		return false, ""
	}
	for _, dangerous := range dangerousPaths {
		d := strings.ToLower(strings.TrimRight(dangerous, "/\\"))
		if normalized == d {
			return true, "path targets a system directory: " + dangerous
		}
	}
	return false, ""
}

// broadPatterns are regexes that match almost anything — rarely what the
// caller meant and expensive to run over a large tree.
var broadPatterns = []string{".", ".*", ".+", "^.*$", "(.|\\n)*"}

// CheckRegex validates pattern compiles and flags overly broad patterns.
// invalid is non-empty when pattern fails to compile (a blocker); broad
// is true when the pattern is syntactically valid but matches nearly
// everything (a warning).
func CheckRegex(pattern string) (invalid string, broad bool) {
	if _, err := regexp.Compile(pattern); err != nil {
		return err.Error(), false
	}
	trimmed := strings.TrimSpace(pattern)
	for _, b := range broadPatterns {
		if trimmed == b {
			return "", true
		}
	}
	return "", false
}
