// Package export writes loaded papers in formats reference managers read.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/matsen/litmap/internal/paper"
)

// ToBibTeX converts a paper to a BibTeX entry. Branch terms become the
// keywords field and the source query a note, so a re-imported library
// keeps its grouping.
func ToBibTeX(p *paper.Paper) string {
	entryType := determineEntryType(p.Journal)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, citeKey(p.ID)))

	if len(p.Authors) > 0 {
		writeField(&b, "author", formatAuthors(p.Authors))
	}
	writeField(&b, "title", escapeLatex(p.Title))

	if p.Journal != "" {
		fieldName := "journal"
		if entryType == "inproceedings" {
			fieldName = "booktitle"
		}
		writeField(&b, fieldName, escapeLatex(p.Journal))
	}

	// BibTeX has no "unknown year"; the field is left out instead.
	if p.HasYear() {
		writeField(&b, "year", fmt.Sprintf("%d", *p.Year))
	}

	if p.Volume != "" {
		writeField(&b, "volume", escapeLatex(p.Volume))
	}
	if p.Issue != "" {
		writeField(&b, "number", escapeLatex(p.Issue))
	}
	if p.Pages != "" {
		writeField(&b, "pages", strings.ReplaceAll(escapeLatex(p.Pages), "-", "--"))
	}
	if p.DOI != "" {
		writeField(&b, "doi", paper.NormalizeDOI(p.DOI))
	}
	if p.URL != "" {
		writeField(&b, "url", p.URL)
	}
	if len(p.BranchTerms) > 0 {
		writeField(&b, "keywords", escapeLatex(strings.Join(p.BranchTerms, ", ")))
	}
	if p.SourceQuery != "" {
		writeField(&b, "note", escapeLatex("Search query: "+p.SourceQuery))
	}

	b.WriteString("}\n")

	return b.String()
}

// WriteBibTeX writes one entry per paper, separated by blank lines.
func WriteBibTeX(w io.Writer, papers []paper.Paper) error {
	for i := range papers {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return fmt.Errorf("writing BibTeX: %w", err)
			}
		}
		if _, err := io.WriteString(w, ToBibTeX(&papers[i])); err != nil {
			return fmt.Errorf("writing BibTeX: %w", err)
		}
	}
	return nil
}

func writeField(b *strings.Builder, name, value string) {
	b.WriteString(fmt.Sprintf("  %s = {%s},\n", name, value))
}

// citeKey makes an id usable as a BibTeX key: whitespace and the characters
// BibTeX treats as delimiters become underscores.
func citeKey(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', ',', '{', '}', '(', ')', '"', '#', '%', '\'', '=', '~', '\\':
			return '_'
		}
		return r
	}, id)
}

// determineEntryType returns the BibTeX entry type for a journal name.
func determineEntryType(journal string) string {
	venue := strings.ToLower(journal)

	// Conference proceedings
	if strings.Contains(venue, "proceedings") ||
		strings.Contains(venue, "conference") ||
		strings.Contains(venue, "workshop") ||
		strings.Contains(venue, "symposium") {
		return "inproceedings"
	}

	// Preprints and everything else
	return "article"
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors []paper.Author) string {
	var formatted []string
	for _, a := range authors {
		if a.First != "" {
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.Last), escapeLatex(a.First)))
		} else {
			formatted = append(formatted, escapeLatex(a.Last))
		}
	}
	return strings.Join(formatted, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\textbackslash{}`,
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
