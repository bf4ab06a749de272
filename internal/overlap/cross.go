package overlap

import (
	"sort"
)

// termIndex maps each branch term of one query to the papers carrying it,
// keyed by identity. Each key holds the record ids that share it.
type termIndex struct {
	terms map[string]map[string][]string
}

func newTermIndex() *termIndex {
	return &termIndex{terms: make(map[string]map[string][]string)}
}

func (x *termIndex) add(term, key, id string) {
	set, ok := x.terms[term]
	if !ok {
		set = make(map[string][]string)
		x.terms[term] = set
	}
	set[key] = append(set[key], id)
}

func (x *termIndex) sortedTerms() []string {
	out := make([]string, 0, len(x.terms))
	for t := range x.terms {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// termCounts returns each term with the number of distinct papers carrying
// it, sorted by term.
func (x *termIndex) termCounts() []TermCount {
	out := make([]TermCount, 0, len(x.terms))
	for _, t := range x.sortedTerms() {
		n := 0
		for _, ids := range x.terms[t] {
			n += len(ids)
		}
		out = append(out, TermCount{Term: t, Count: n})
	}
	return out
}

// crossGroups intersects every term of every query with every term of every
// later query. Pairs are oriented so QueryA sorts before QueryB, and only
// non-empty intersections are emitted.
func crossGroups(queries []string, indexes map[string]*termIndex) []CrossGroup {
	pairs := make([][2]string, 0)
	for i := 0; i < len(queries); i++ {
		for j := i + 1; j < len(queries); j++ {
			a, b := queries[i], queries[j]
			if b < a {
				a, b = b, a
			}
			pairs = append(pairs, [2]string{a, b})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})

	out := []CrossGroup{}
	for _, pair := range pairs {
		ia, ib := indexes[pair[0]], indexes[pair[1]]
		termsB := ib.sortedTerms()
		for _, ta := range ia.sortedTerms() {
			for _, tb := range termsB {
				ids := intersect(ia.terms[ta], ib.terms[tb])
				if len(ids) == 0 {
					continue
				}
				out = append(out, CrossGroup{
					QueryA:   pair[0],
					QueryB:   pair[1],
					TermA:    ta,
					TermB:    tb,
					Label:    SignatureLabel([]string{ta, tb}),
					PaperIDs: ids,
					Count:    len(ids),
				})
			}
		}
	}
	return out
}

// intersect returns the sorted record ids, from both sides, whose identity
// key appears in both sets. It walks the smaller set.
func intersect(a, b map[string][]string) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	seen := make(map[string]bool)
	var ids []string
	for key, idsA := range a {
		idsB, ok := b[key]
		if !ok {
			continue
		}
		for _, id := range append(append([]string(nil), idsA...), idsB...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
