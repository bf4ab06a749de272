package main

import (
	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/ranking"
	"github.com/matsen/litmap/internal/snapshot"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the project's exports for integrity problems",
	Long: `Load every RIS export and curated list and check them.

Duplicate paper ids, papers referencing unknown queries and curated papers
that cannot be resolved are errors (exit code 3). Queries without an export
and queries that matched no papers are reported as warnings.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// CheckResponse is the result of a successful check.
type CheckResponse struct {
	Status   string            `json:"status"` // "ok" or "warnings"
	Papers   int               `json:"papers"`
	Queries  []QueryCheck      `json:"queries"`
	Rankings []RankingCheck    `json:"rankings"`
	Warnings []overlap.Warning `json:"warnings"`
}

// QueryCheck reports where a query's papers came from.
type QueryCheck struct {
	Query  string `json:"query"`
	Source string `json:"source"`
	Papers int    `json:"papers"`
}

// RankingCheck reports how a curated list resolved against the catalog.
type RankingCheck struct {
	Kind     ranking.Kind `json:"kind"`
	Source   string       `json:"source"`
	Records  int          `json:"records"`
	Matched  int          `json:"matched"`
	Assigned int          `json:"assigned"`
}

// WarnNoSource flags a configured query without a RIS export.
const WarnNoSource = "no_source"

func runCheck(cmd *cobra.Command, args []string) error {
	_, snap, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	resp := checkReport(snap)
	if humanOutput {
		outputHuman("%d papers in %d queries\n", resp.Papers, len(resp.Queries))
		for _, q := range resp.Queries {
			outputHuman("  %-20s %4d  %s\n", q.Query, q.Papers, q.Source)
		}
		for _, r := range resp.Rankings {
			outputHuman("%s: %d records, %d matched, %d assigned\n", r.Kind, r.Records, r.Matched, r.Assigned)
		}
		for _, w := range resp.Warnings {
			outputHuman("warning: %s\n", w.Message)
		}
		if resp.Status == "ok" {
			outputHuman("No problems found\n")
		}
		return nil
	}
	return outputJSON(resp)
}

func checkReport(snap *snapshot.Snapshot) CheckResponse {
	resp := CheckResponse{
		Status:   "ok",
		Papers:   snap.Catalog.Len(),
		Queries:  []QueryCheck{},
		Rankings: []RankingCheck{},
		Warnings: append([]overlap.Warning{}, snap.Result.Warnings...),
	}

	for _, q := range snap.Catalog.Queries() {
		resp.Queries = append(resp.Queries, QueryCheck{
			Query:  q.ID,
			Source: q.Source,
			Papers: len(snap.Catalog.PapersForQuery(q.ID)),
		})
		if q.Source == "" {
			resp.Warnings = append(resp.Warnings, overlap.Warning{
				Code:    WarnNoSource,
				Query:   q.ID,
				Message: "query " + q.ID + " has no RIS export",
			})
		}
	}

	if snap.Rankings != nil {
		for _, r := range []*ranking.Ranking{snap.Rankings.MostCited, snap.Rankings.MostRelevant} {
			if r == nil {
				continue
			}
			resp.Rankings = append(resp.Rankings, RankingCheck{
				Kind:     r.Kind,
				Source:   r.Source,
				Records:  r.Records,
				Matched:  len(r.Matched),
				Assigned: len(r.Assignments),
			})
		}
	}

	if len(resp.Warnings) > 0 {
		resp.Status = "warnings"
	}
	return resp
}
