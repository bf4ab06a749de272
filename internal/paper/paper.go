// Package paper defines the bibliographic record type the rest of litmap works on.
package paper

import (
	"strings"
)

// Paper is one bibliographic record from a search query's RIS export.
type Paper struct {
	// Identity
	ID  string `json:"id"`  // Stable identifier, unique across the catalog
	DOI string `json:"doi,omitempty"`

	// Metadata (display and sorting only)
	Title    string   `json:"title"`
	Year     *int     `json:"year"` // nil when the record carries no year
	Abstract string   `json:"abstract,omitempty"`
	Authors  []Author `json:"authors,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	Volume   string   `json:"volume,omitempty"`
	Issue    string   `json:"issue,omitempty"`
	Pages    string   `json:"pages,omitempty"`
	URL      string   `json:"url,omitempty"`
	Keywords []string `json:"keywords,omitempty"`

	// PDFPath is empty when no PDF is available.
	PDFPath string `json:"pdf_path,omitempty"`

	// Grouping
	BranchTerms       []string `json:"branch_terms"`
	UniqueSearchTerms []string `json:"unique_search_terms,omitempty"`

	// Provenance
	SourceQuery string `json:"source_query"`
	Database    string `json:"database,omitempty"`
}

// Author is a paper author as written in the source record ("Last, First").
type Author struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last"`
}

// ParseAuthor splits a "Last, First" author string.
// Names without a comma are kept whole as the last name.
func ParseAuthor(s string) Author {
	s = strings.TrimSpace(s)
	last, first, found := strings.Cut(s, ",")
	if !found {
		return Author{Last: s}
	}
	return Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
}

// String formats the author as "First Last".
func (a Author) String() string {
	if a.First != "" {
		return a.First + " " + a.Last
	}
	return a.Last
}

// IntPtr returns a pointer to v. Used for optional numeric fields.
func IntPtr(v int) *int {
	return &v
}

// HasYear reports whether the publication year is known.
func (p *Paper) HasYear() bool {
	return p.Year != nil
}

// HasPDF reports whether the record references a PDF.
func (p *Paper) HasPDF() bool {
	return strings.TrimSpace(p.PDFPath) != ""
}

// IsUncategorized reports whether the paper carries no branch terms once
// blank entries are dropped.
func (p *Paper) IsUncategorized() bool {
	return len(DedupeTerms(p.BranchTerms)) == 0
}

// AuthorsString formats all authors as "First Last, First Last".
func (p *Paper) AuthorsString() string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.String()
	}
	return strings.Join(names, ", ")
}

// NormalizeTitle lower-cases a title and collapses whitespace for comparison.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// NormalizeDOI lower-cases a DOI and strips common URL prefixes.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// WorkKey identifies the published work behind a record, independent of the
// record id a particular export assigned. Two records from different search
// queries with the same key describe the same paper.
func WorkKey(p *Paper) string {
	if doi := NormalizeDOI(p.DOI); doi != "" {
		return "doi:" + doi
	}
	if title := NormalizeTitle(p.Title); title != "" {
		return "title:" + title
	}
	return "id:" + p.ID
}
