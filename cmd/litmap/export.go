package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/litmap/internal/export"
	"github.com/matsen/litmap/internal/paper"
	"github.com/matsen/litmap/internal/storage"
)

// Export formats.
const (
	FormatJSONL  = "jsonl"
	FormatBibTeX = "bibtex"
)

var exportFormat string

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "Output format: jsonl or bibtex (default: from the file extension)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the loaded papers as JSONL or BibTeX",
	Long: `Write every loaded paper to a file.

JSONL writes one JSON object per line; the file can be fed back with
'litmap groups --catalog <file.jsonl>'. BibTeX keeps each paper's branch
terms as keywords and its query as a note.

Examples:
  litmap export papers.jsonl
  litmap export review.bib
  litmap export out.txt --format bibtex`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

// exportFormatFor picks the format for path, an explicit format winning.
func exportFormatFor(path, format string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".bib") {
			return FormatBibTeX, nil
		}
		return FormatJSONL, nil
	}
	switch format {
	case FormatJSONL, FormatBibTeX:
		return format, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be %s or %s", format, FormatJSONL, FormatBibTeX)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := exportFormatFor(path, exportFormat)
	if err != nil {
		return err
	}

	_, snap, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	papers := snap.Catalog.AllPapers()
	if format == FormatBibTeX {
		err = writeBibTeXFile(path, papers)
	} else {
		err = storage.WriteAll(path, papers)
	}
	if err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Exported %d papers to %s\n", len(papers), path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "exported", Path: path, Count: len(papers)})
}

func writeBibTeXFile(path string, papers []paper.Paper) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.WriteBibTeX(f, papers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
