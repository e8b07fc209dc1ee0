package decomposition

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSONBlock = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// llmSubtask is the shape parse_llm_decomposition expects inside the
// extracted JSON's "subtasks" array.
type llmSubtask struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
}

type llmPayload struct {
	Subtasks []llmSubtask `json:"subtasks"`
}

// ParseLLMDecomposition implements spec §4.9's parse_llm_decomposition:
// extract JSON from a fenced json block, or else the first balanced
// {...} substring containing "subtasks". On any parse failure it returns
// an empty list, not an error — spec §4.9: "On parse failure return
// empty list (not an error)".
func ParseLLMDecomposition(id func(int) string, task Task, text string) []SubTask {
	if id == nil {
		id = func(n int) string { return itoaSubtask(n) }
	}

	raw := extractJSON(text)
	if raw == "" {
		return nil
	}

	var payload llmPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	subtasks := make([]SubTask, 0, len(payload.Subtasks))
	for i, s := range payload.Subtasks {
		subtasks = append(subtasks, SubTask{
			ID:           id(i),
			ParentID:     "",
			Title:        s.Title,
			Description:  s.Description,
			Order:        i,
			Dependencies: s.Dependencies,
			Status:       Pending,
		})
	}
	return subtasks
}

func extractJSON(text string) string {
	if m := fencedJSONBlock.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return firstBalancedObjectContaining(text, "\"subtasks\"")
}

// firstBalancedObjectContaining scans text for the first brace-balanced
// {...} substring whose contents include marker, tracking string/escape
// state so braces inside JSON string literals don't throw off the count.
func firstBalancedObjectContaining(text, marker string) string {
	for start := 0; start < len(text); start++ {
		if text[start] != '{' {
			continue
		}
		end, ok := balancedEnd(text, start)
		if !ok {
			continue
		}
		candidate := text[start : end+1]
		if strings.Contains(candidate, marker) {
			return candidate
		}
	}
	return ""
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// inside a string literal, ignore braces
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func itoaSubtask(n int) string {
	const digits = "0123456789"
	if n == 0 {
		return "subtask_0"
	}
	b := make([]byte, 0, 4)
	for n > 0 {
		b = append([]byte{digits[n%10]}, b...)
		n /= 10
	}
	return "subtask_" + string(b)
}
