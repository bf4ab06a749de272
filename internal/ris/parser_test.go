package ris

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleRIS = `TY  - JOUR
ID  - 101
TI  - Large language models for radiology report extraction
AU  - Smith, John
AU  - Doe, Jane
PY  - 2023/05/01
AB  - We evaluate LLMs on report
extraction tasks.
DO  - 10.1234/rad.2023
N1  - LLM, Extraction
RN  - radiology, neuroscience
L1  - internal-pdf://1234567890/smith.pdf
T2  - Radiology AI
KW  - LLM
KW  - radiology
ER  -

TY  - JOUR
LB  - lb-7
TI  - Phenotyping with NLP
PY  - n.d.
RN  -
ER  -

TY  - JOUR
AB  - A record that has no title.
ER  -

TY  - JOUR
TI  - Untagged identifiers get fallback ids
RN  - CT; CT, ct
ER  -
`

func TestParse(t *testing.T) {
	papers, errs, err := Parse(strings.NewReader(sampleRIS), Options{Database: "pubmed"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("Parse() returned %d record errors, want 1: %v", len(errs), errs)
	}
	if !strings.Contains(errs[0].Error(), "record 3") {
		t.Errorf("record error = %q, want it to name record 3", errs[0])
	}
	if len(papers) != 3 {
		t.Fatalf("Parse() returned %d papers, want 3", len(papers))
	}

	p := papers[0]
	if p.ID != "101" {
		t.Errorf("ID = %q, want 101", p.ID)
	}
	if p.Year == nil || *p.Year != 2023 {
		t.Errorf("Year = %v, want 2023", p.Year)
	}
	if p.Abstract != "We evaluate LLMs on report\nextraction tasks." {
		t.Errorf("Abstract = %q, continuation line not joined", p.Abstract)
	}
	if len(p.Authors) != 2 || p.Authors[0].Last != "Smith" || p.Authors[1].First != "Jane" {
		t.Errorf("Authors = %+v", p.Authors)
	}
	if !reflect.DeepEqual(p.BranchTerms, []string{"radiology", "neuroscience"}) {
		t.Errorf("BranchTerms = %v", p.BranchTerms)
	}
	if !reflect.DeepEqual(p.UniqueSearchTerms, []string{"LLM", "Extraction"}) {
		t.Errorf("UniqueSearchTerms = %v", p.UniqueSearchTerms)
	}
	if p.PDFPath != "internal-pdf://1234567890/smith.pdf" || !p.HasPDF() {
		t.Errorf("PDFPath = %q", p.PDFPath)
	}
	if p.Journal != "Radiology AI" || p.DOI != "10.1234/rad.2023" || p.Database != "pubmed" {
		t.Errorf("metadata = journal %q doi %q database %q", p.Journal, p.DOI, p.Database)
	}
	if !reflect.DeepEqual(p.Keywords, []string{"LLM", "radiology"}) {
		t.Errorf("Keywords = %v", p.Keywords)
	}

	second := papers[1]
	if second.ID != "lb-7" {
		t.Errorf("LB fallback ID = %q, want lb-7", second.ID)
	}
	if second.Year != nil {
		t.Errorf("Year = %d, want nil for unparseable year", *second.Year)
	}
	if !second.IsUncategorized() {
		t.Errorf("BranchTerms = %v, want none", second.BranchTerms)
	}

	third := papers[2]
	if third.ID != "paper_1" {
		t.Errorf("fallback ID = %q, want paper_1", third.ID)
	}
	if !reflect.DeepEqual(third.BranchTerms, []string{"CT", "ct"}) {
		t.Errorf("BranchTerms = %v, want exact duplicates collapsed", third.BranchTerms)
	}
}

func TestParse_FallbackPrefix(t *testing.T) {
	input := "TI  - One\nER  -\nTI  - Two\nER  -\n"
	papers, _, err := Parse(strings.NewReader(input), Options{FallbackIDPrefix: "nlp-"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(papers) != 2 || papers[0].ID != "nlp-1" || papers[1].ID != "nlp-2" {
		t.Errorf("ids = %v, want nlp-1, nlp-2", papers)
	}
}

func TestParse_MissingTerminator(t *testing.T) {
	input := "TY  - JOUR\nTI  - Last record without ER\nRN  - radiology\n"
	papers, errs, err := Parse(strings.NewReader(input), Options{})
	if err != nil || len(errs) != 0 {
		t.Fatalf("Parse() err = %v, errs = %v", err, errs)
	}
	if len(papers) != 1 || papers[0].Title != "Last record without ER" {
		t.Errorf("papers = %+v", papers)
	}
}

func TestStripTrailingER(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"radiology, neuroscience ER", "radiology, neuroscience"},
		{"radiology\nER", "radiology"},
		{"ER", ""},
		{"CANCER", "CANCER"},
		{"radiology", "radiology"},
	}

	for _, tt := range tests {
		if got := stripTrailingER(tt.in); got != tt.want {
			t.Errorf("stripTrailingER(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDatabaseFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/pubmed_2024-05-01.txt", "pubmed"},
		{"arxiv.txt", "arxiv"},
		{"_odd.txt", "unknown"},
	}

	for _, tt := range tests {
		if got := DatabaseFromFilename(tt.path); got != tt.want {
			t.Errorf("DatabaseFromFilename(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pubmed_export.txt")
	if err := os.WriteFile(path, []byte(sampleRIS), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	papers, _, err := ParseFile(path, Options{})
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	for _, p := range papers {
		if p.Database != "pubmed" {
			t.Errorf("paper %s Database = %q, want pubmed", p.ID, p.Database)
		}
	}

	if _, _, err := ParseFile(filepath.Join(dir, "missing.txt"), Options{}); err == nil {
		t.Error("ParseFile() expected error for missing file")
	}
}
