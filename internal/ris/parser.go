// Package ris parses RIS exports (PubMed, EndNote, Zotero) into papers.
//
// Field mapping follows the literature-review export convention:
//
//	TI/T1  title            AU/A1  authors (repeatable)
//	PY/Y1  year             AB     abstract
//	DO     DOI              KW     keywords (repeatable)
//	RN     branch terms     N1     unique search terms
//	L1     PDF path         T2/JO  journal
//	VL IS SP UR             volume, issue, pages, URL
//	ID     record id        LB     record id when ID is absent
package ris

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/matsen/litmap/internal/paper"
)

// MaxLineCapacity bounds a single RIS line (abstracts can be long).
const MaxLineCapacity = 1024 * 1024

// DefaultFallbackIDPrefix prefixes ids generated for records without ID/LB.
const DefaultFallbackIDPrefix = "paper_"

var (
	tagLine  = regexp.MustCompile(`^([A-Z0-9]{2,3})\s+-\s+(.+)$`)
	endLine  = regexp.MustCompile(`^ER\s+-\s*$`)
	yearExpr = regexp.MustCompile(`\d{4}`)
)

// Options configures a parse.
type Options struct {
	// Database is stamped on every parsed paper.
	Database string

	// FallbackIDPrefix is used to number records that carry no ID or LB tag.
	// Empty means DefaultFallbackIDPrefix.
	FallbackIDPrefix string
}

// DatabaseFromFilename derives the database name from an export filename:
// the part of the base name before the first underscore
// ("pubmed_2024-05-01.txt" -> "pubmed").
func DatabaseFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name, _, _ := strings.Cut(stem, "_")
	if name == "" {
		return "unknown"
	}
	return name
}

// ParseFile parses the RIS file at path. When opts.Database is empty it is
// derived from the filename. Record-level problems are returned in the error
// slice and do not stop the parse; the final error is set only when the file
// could not be read.
func ParseFile(path string, opts Options) ([]paper.Paper, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening RIS file: %w", err)
	}
	defer f.Close()

	if opts.Database == "" {
		opts.Database = DatabaseFromFilename(path)
	}
	return Parse(f, opts)
}

// Parse reads RIS records from r.
// Records without a title are skipped and reported in the error slice.
func Parse(r io.Reader, opts Options) ([]paper.Paper, []error, error) {
	prefix := opts.FallbackIDPrefix
	if prefix == "" {
		prefix = DefaultFallbackIDPrefix
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxLineCapacity)

	var (
		papers    []paper.Paper
		errs      []error
		rec       record
		recordNum int
		nextID    = 1
	)

	flush := func() {
		if rec.empty() {
			return
		}
		recordNum++
		p := rec.toPaper()
		rec = record{}

		if p.Title == "" {
			errs = append(errs, fmt.Errorf("record %d: missing required field 'TI'", recordNum))
			return
		}
		p.Database = opts.Database
		if p.ID == "" {
			p.ID = prefix + strconv.Itoa(nextID)
			nextID++
		}
		papers = append(papers, p)
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		line = strings.TrimPrefix(line, "\ufeff")
		if line == "" {
			continue
		}
		if endLine.MatchString(line) {
			rec.closeField()
			flush()
			continue
		}
		if m := tagLine.FindStringSubmatch(line); m != nil {
			rec.closeField()
			rec.tag = m[1]
			rec.value = []string{m[2]}
			continue
		}
		// Continuation of the current field.
		if rec.tag != "" {
			rec.value = append(rec.value, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading RIS: %w", err)
	}

	// Files are not always terminated with ER.
	rec.closeField()
	flush()

	return papers, errs, nil
}

type field struct {
	tag   string
	value string
}

// record accumulates the fields of one RIS record.
type record struct {
	fields []field
	tag    string
	value  []string
}

func (r *record) closeField() {
	if r.tag == "" {
		return
	}
	r.fields = append(r.fields, field{tag: r.tag, value: strings.TrimSpace(strings.Join(r.value, "\n"))})
	r.tag = ""
	r.value = nil
}

func (r *record) empty() bool {
	return len(r.fields) == 0
}

func (r *record) toPaper() paper.Paper {
	var p paper.Paper
	var altTitle, lbID string

	for _, f := range r.fields {
		v := f.value
		switch f.tag {
		case "TI":
			p.Title = v
		case "T1":
			altTitle = v
		case "PY", "Y1":
			if p.Year == nil {
				if m := yearExpr.FindString(v); m != "" {
					year, _ := strconv.Atoi(m)
					p.Year = paper.IntPtr(year)
				}
			}
		case "AB":
			p.Abstract = v
		case "AU", "A1":
			p.Authors = append(p.Authors, paper.ParseAuthor(v))
		case "DO":
			p.DOI = v
		case "N1":
			p.UniqueSearchTerms = splitComma(v)
		case "RN":
			p.BranchTerms = paper.SplitTerms(stripTrailingER(v))
		case "L1":
			p.PDFPath = v
		case "T2", "JO":
			if p.Journal == "" {
				p.Journal = v
			}
		case "VL":
			p.Volume = v
		case "IS":
			p.Issue = v
		case "SP":
			p.Pages = v
		case "UR":
			p.URL = v
		case "KW":
			p.Keywords = append(p.Keywords, v)
		case "ID":
			p.ID = v
		case "LB":
			lbID = v
		}
	}

	if p.Title == "" {
		p.Title = altTitle
	}
	if p.ID == "" {
		p.ID = lbID
	}
	return p
}

// splitComma splits a comma-delimited field into trimmed, de-duplicated values.
func splitComma(v string) []string {
	return paper.DedupeTerms(strings.Split(v, ","))
}

// stripTrailingER removes an "ER" swallowed from a malformed record terminator.
func stripTrailingER(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "ER") && (len(v) == 2 || strings.ContainsAny(v[len(v)-3:len(v)-2], " \n,")) {
		return strings.TrimSpace(v[:len(v)-2])
	}
	return v
}
