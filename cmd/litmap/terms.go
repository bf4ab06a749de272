package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/paper"
	"github.com/matsen/litmap/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(termsCmd)
}

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "List branch terms per query with paper counts",
	Args:  cobra.NoArgs,
	RunE:  runTerms,
}

// QueryTerms summarizes the branch terms of one query.
type QueryTerms struct {
	Query         string              `json:"query"`
	Database      string              `json:"database"`
	Search        string              `json:"search,omitempty"`
	Papers        int                 `json:"papers"`
	Uncategorized int                 `json:"uncategorized"`
	Terms         []overlap.TermCount `json:"terms"`
}

func runTerms(cmd *cobra.Command, args []string) error {
	_, snap, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	summary := termsSummary(snap)
	if humanOutput {
		for _, q := range summary {
			outputHuman("%s (%s): %d papers, %d uncategorized\n", q.Query, q.Database, q.Papers, q.Uncategorized)
			for _, tc := range q.Terms {
				outputHuman("  %4d  %s\n", tc.Count, paper.CleanTermLabel(tc.Term))
			}
		}
		return nil
	}
	return outputJSON(summary)
}

func termsSummary(snap *snapshot.Snapshot) []QueryTerms {
	out := make([]QueryTerms, 0, len(snap.Catalog.Queries()))
	for _, q := range snap.Catalog.Queries() {
		terms := snap.Result.BranchTerms[q.ID]
		if terms == nil {
			terms = []overlap.TermCount{}
		}
		out = append(out, QueryTerms{
			Query:         q.ID,
			Database:      q.Database,
			Search:        q.Search,
			Papers:        len(snap.Catalog.PapersForQuery(q.ID)),
			Uncategorized: snap.Result.Uncategorized[q.ID].Count,
			Terms:         terms,
		})
	}
	return out
}
