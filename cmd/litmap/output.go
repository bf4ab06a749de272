package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matsen/litmap/internal/paper"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 50 // Default limit for the papers command

	ListTitleMaxLen  = 60 // Used in papers list output
	GroupLabelMaxLen = 50 // Used in groups summary
)

// stdout is where command output goes. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// StatusResponse is a generic response for commands that write files.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// PaperResult is a paper in list output.
type PaperResult struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Authors     string   `json:"authors,omitempty"`
	Year        *int     `json:"year"`
	DOI         string   `json:"doi,omitempty"`
	Query       string   `json:"query"`
	BranchTerms []string `json:"branch_terms"`
}

func toPaperResults(papers []paper.Paper) []PaperResult {
	out := make([]PaperResult, 0, len(papers))
	for i := range papers {
		p := &papers[i]
		out = append(out, PaperResult{
			ID:          p.ID,
			Title:       p.Title,
			Authors:     p.AuthorsString(),
			Year:        p.Year,
			DOI:         p.DOI,
			Query:       p.SourceQuery,
			BranchTerms: p.BranchTerms,
		})
	}
	return out
}

// formatYear renders an optional year, "n.d." when unknown.
func formatYear(year *int) string {
	if year == nil {
		return "n.d."
	}
	return fmt.Sprintf("%d", *year)
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
