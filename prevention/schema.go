// Package prevention implements Proactive Prevention (spec.md §4.7):
// pre-execution validation against built-in safety rules and a learned
// error-pattern registry, plus risk scoring. No component here performs
// semantic understanding of tool side effects — the Non-goal spec.md §1
// excludes — every rule is a structural check over the declared tool name
// and argument tree.
package prevention

import "github.com/agentsafe/asc/valuetree"

// ArgSchema declares which argument fields a tool requires or accepts.
type ArgSchema struct {
	Required []string
	Optional []string
}

// BuiltinSchemas is the fixed per-tool required/optional field mapping
// (spec §4.7 "Argument schema per tool"), extensible via
// Config.SchemaOverrides.
func BuiltinSchemas() map[string]ArgSchema {
	return map[string]ArgSchema{
		"shell":           {Required: []string{"command"}},
		"execute_command":  {Required: []string{"command"}},
		"read_file":        {Required: []string{"path"}},
		"write_file":       {Required: []string{"path", "content"}},
		"edit_file":        {Required: []string{"path", "diff"}},
		"apply_diff":       {Required: []string{"path", "diff"}},
		"delete_file":      {Required: []string{"path"}},
		"search_files":     {Required: []string{"pattern"}, Optional: []string{"path"}},
		"list_files":       {Optional: []string{"path"}},
	}
}

// MissingRequired returns the required fields absent from args, or nil if
// args satisfies schema (or schema has no required fields). Non-Object
// args are treated as satisfying no required field.
func MissingRequired(args valuetree.Value, schema ArgSchema) []string {
	obj, _ := args.AsObject()
	var missing []string
	for _, field := range schema.Required {
		if _, ok := obj[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// StringField reads a string-typed field from an Object args tree.
func StringField(args valuetree.Value, field string) (string, bool) {
	obj, ok := args.AsObject()
	if !ok {
		return "", false
	}
	v, ok := obj[field]
	if !ok {
		return "", false
	}
	return v.AsString()
}
