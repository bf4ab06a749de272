package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/paper"
	"github.com/matsen/litmap/internal/storage"
)

var (
	papersSort  string
	papersLimit int
	papersQuery string
)

func init() {
	papersCmd.Flags().StringVar(&papersSort, "sort", "year", "Sort order: year or title")
	papersCmd.Flags().IntVar(&papersLimit, "limit", DefaultSearchLimit, "Maximum number of results (0 for all)")
	papersCmd.Flags().StringVar(&papersQuery, "query", "", "List the papers of one query instead of searching")
	rootCmd.AddCommand(papersCmd)
	rootCmd.AddCommand(getCmd)
}

var papersCmd = &cobra.Command{
	Use:   "papers [text]",
	Short: "Search the loaded papers",
	Long: `Search titles, abstracts, authors and branch terms of the loaded papers.

Without text, every paper is listed. Results are sorted newest first
(unknown years last) or by title.

Examples:
  litmap papers "deep learning"
  litmap papers --sort title --limit 0
  litmap papers --query Imaging`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPapers,
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one paper by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// openIndex loads the project and indexes its papers in an in-memory database.
// The caller is responsible for calling Close() on the returned DB.
func openIndex(cmd *cobra.Command) (*storage.DB, error) {
	_, snap, err := loadProject(cmd.Context())
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenDB(storage.MemoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if _, err := db.ReplaceAll(snap.Catalog.AllPapers()); err != nil {
		db.Close()
		return nil, fmt.Errorf("indexing papers: %w", err)
	}
	return db, nil
}

func runPapers(cmd *cobra.Command, args []string) error {
	order, err := storage.ParseSortOrder(papersSort)
	if err != nil {
		return err
	}

	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var papers []paper.Paper
	if papersQuery != "" {
		papers, err = db.ListByQuery(papersQuery, order)
		if err == nil && papersLimit > 0 && len(papers) > papersLimit {
			papers = papers[:papersLimit]
		}
	} else {
		text := ""
		if len(args) == 1 {
			text = args[0]
		}
		papers, err = db.Search(text, order, papersLimit)
	}
	if err != nil {
		return err
	}

	if humanOutput {
		total, err := db.Count()
		if err != nil {
			return err
		}
		outputHuman("%d of %d papers\n\n", len(papers), total)
		for i := range papers {
			p := &papers[i]
			outputHuman("%-16s %-5s %s\n", p.ID, formatYear(p.Year), truncateString(p.Title, ListTitleMaxLen))
		}
		return nil
	}
	return outputJSON(toPaperResults(papers))
}

func runGet(cmd *cobra.Command, args []string) error {
	db, err := openIndex(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := db.GetByID(args[0])
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("paper %q not found", args[0])
	}

	if humanOutput {
		outputHuman("%s\n", p.ID)
		outputHuman("  Title:   %s\n", p.Title)
		if len(p.Authors) > 0 {
			outputHuman("  Authors: %s\n", p.AuthorsString())
		}
		outputHuman("  Year:    %s\n", formatYear(p.Year))
		if p.DOI != "" {
			outputHuman("  DOI:     %s\n", p.DOI)
		}
		outputHuman("  Query:   %s\n", p.SourceQuery)
		if len(p.BranchTerms) > 0 {
			outputHuman("  Terms:   %s\n", strings.Join(p.BranchTerms, "; "))
		}
		return nil
	}
	return outputJSON(p)
}
