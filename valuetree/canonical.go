package valuetree

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Canonical serializes v deterministically: object keys are sorted
// lexicographically at every nesting level, numbers use a single stable
// format, strings are JSON-escaped verbatim, and arrays preserve order.
// Two value trees that are Equal always produce the same Canonical output,
// and vice versa — this is the "canonical(state)" referenced throughout
// spec.md §3/§4.1/§4.8.
func Canonical(v Value) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v Value) {
	switch v.kind {
	case Null:
		b.WriteString("null")
	case Bool:
		if v.boolVal {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Number:
		b.WriteString(formatNumber(v.numberVal))
	case String:
		b.WriteString(quoteString(v.stringVal))
	case Array:
		b.WriteByte('[')
		for i, item := range v.arrayVal {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	case Object:
		b.WriteByte('{')
		keys := make([]string, 0, len(v.objectVal))
		for k := range v.objectVal {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteString(k))
			b.WriteByte(':')
			writeCanonical(b, v.objectVal[k])
		}
		b.WriteByte('}')
	}
}

// formatNumber produces a single stable representation for a float64 so
// that 1.0 and 1 and 1.00 all canonicalize identically.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// quoteString reuses encoding/json's string escaping (quotes, backslashes,
// control characters) so the canonical form stays a valid JSON string
// literal, without pulling in a second escaping implementation.
func quoteString(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		// s is always a valid Go string, so Marshal of a string cannot
		// fail; this branch exists only to keep the function total.
		return strconv.Quote(s)
	}
	return string(data)
}
