package catalog

import (
	"strings"

	"github.com/matsen/litmap/internal/paper"
)

// CanonicalTerm picks the display form among case variants of one term: the
// variant with the most upper-case letters, the earliest on ties.
// Returns "" for no variants.
func CanonicalTerm(variants []string) string {
	best, bestUpper := "", -1
	for _, v := range variants {
		if n := paper.CountUpper(v); n > bestUpper {
			best, bestUpper = v, n
		}
	}
	return best
}

// CanonicalizeTerms rewrites branch terms in place so that case variants of
// the same term within one query ("CT", "Ct", "ct") collapse to a single
// canonical spelling. Terms in different queries are never merged.
// Duplicates produced by the rewrite are collapsed per paper.
func CanonicalizeTerms(papers []paper.Paper) {
	// query -> lower-cased term -> variants in first-seen order
	variants := make(map[string]map[string][]string)
	for _, p := range papers {
		byLower := variants[p.SourceQuery]
		if byLower == nil {
			byLower = make(map[string][]string)
			variants[p.SourceQuery] = byLower
		}
		for _, t := range p.BranchTerms {
			key := strings.ToLower(t)
			if !contains(byLower[key], t) {
				byLower[key] = append(byLower[key], t)
			}
		}
	}

	canonical := make(map[string]map[string]string, len(variants))
	for query, byLower := range variants {
		m := make(map[string]string, len(byLower))
		for key, vs := range byLower {
			m[key] = CanonicalTerm(vs)
		}
		canonical[query] = m
	}

	for i := range papers {
		p := &papers[i]
		if len(p.BranchTerms) == 0 {
			continue
		}
		m := canonical[p.SourceQuery]
		rewritten := make([]string, len(p.BranchTerms))
		for j, t := range p.BranchTerms {
			rewritten[j] = m[strings.ToLower(t)]
		}
		p.BranchTerms = paper.DedupeTerms(rewritten)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
