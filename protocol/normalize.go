package protocol

import "sort"

// Unquote strips exactly one matching pair of surrounding quote
// characters (single or double) from a string-literal token. Values
// that are not quoted are returned unchanged.
func Unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// NormalizeOracles deduplicates and sorts a flat oracle list.
// Downstream diffing assumes set semantics, so deduplication happens
// here at normalization time.
func NormalizeOracles(oracles []string) []string {
	seen := make(map[string]bool, len(oracles))
	out := make([]string, 0, len(oracles))
	for _, o := range oracles {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// NormalizeBreakdown drops entries with both fields empty and sorts
// the rest by (name, type) for deterministic serialization.
func NormalizeBreakdown(entries []BreakdownEntry) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" && e.Type == "" {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}
