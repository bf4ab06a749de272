package overlap

// buildAggregates validates each aggregate against the input papers. Paper
// order is the caller's ranking and is kept; repeated ids are collapsed to
// their first position.
func buildAggregates(inputs []AggregateInput, byID map[string]int) ([]AggregateGroup, error) {
	out := make([]AggregateGroup, 0, len(inputs))
	for i, in := range inputs {
		if in.Name == "" {
			return nil, &MissingFieldError{Kind: "aggregate", Index: i, Field: "name"}
		}

		ids := make([]string, 0, len(in.PaperIDs))
		seen := make(map[string]bool, len(in.PaperIDs))
		for _, id := range in.PaperIDs {
			if _, ok := byID[id]; !ok {
				return nil, &UnknownPaperError{Aggregate: in.Name, PaperID: id}
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}

		label := in.Label
		if label == "" {
			label = in.Name
		}
		out = append(out, AggregateGroup{
			Name:     in.Name,
			Label:    label,
			Query:    in.Query,
			Term:     in.Term,
			PaperIDs: ids,
			Count:    len(ids),
		})
	}
	return out, nil
}
