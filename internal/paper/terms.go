package paper

import (
	"strings"
	"unicode"
)

// termSeparators are the delimiters accepted in branch-term metadata fields.
const termSeparators = ";,"

// SplitTerms splits a delimited metadata field into branch terms.
// Terms are trimmed, empty entries dropped and exact duplicates collapsed,
// keeping the first occurrence order.
func SplitTerms(field string) []string {
	parts := strings.FieldsFunc(field, func(r rune) bool {
		return strings.ContainsRune(termSeparators, r)
	})
	return DedupeTerms(parts)
}

// DedupeTerms trims terms, drops empty ones and collapses exact duplicates.
// Returns nil when no terms remain.
func DedupeTerms(terms []string) []string {
	var out []string
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CleanTermLabel strips a leading boolean "AND " that some exports keep on
// the branch term, e.g. "AND radiology" -> "radiology".
func CleanTermLabel(term string) string {
	term = strings.TrimSpace(term)
	if len(term) >= 4 && strings.EqualFold(term[:4], "AND ") {
		return strings.TrimSpace(term[4:])
	}
	return term
}

// CountUpper returns the number of upper-case letters in s.
func CountUpper(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsUpper(r) {
			n++
		}
	}
	return n
}
