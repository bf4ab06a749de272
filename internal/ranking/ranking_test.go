package ranking

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/logging"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/paper"
)

func testCatalog() *catalog.Catalog {
	queries := []catalog.Query{
		{ID: "Q1", Database: "pubmed"},
		{ID: "Q2", Database: "arxiv"},
	}
	papers := []paper.Paper{
		{ID: "A", SourceQuery: "Q1", Title: "Alpha", BranchTerms: []string{"CT", "MRI"}},
		{ID: "B", SourceQuery: "Q1", Title: "Beta", BranchTerms: []string{"CT"}},
		{ID: "C", SourceQuery: "Q1", Title: "Gamma", DOI: "10.1/g", BranchTerms: []string{"CT", "MRI", "PET"}},
		{ID: "D", SourceQuery: "Q1", Title: "Delta"},
		{ID: "E", SourceQuery: "Q2", Title: "Alpha", BranchTerms: []string{"x"}},
	}
	return catalog.New(queries, papers)
}

func curatedRecords() []paper.Paper {
	return []paper.Paper{
		{Title: "ALPHA ", BranchTerms: []string{"ct", "mri"}},
		{Title: "other", DOI: "https://doi.org/10.1/G", BranchTerms: []string{"ct", "pet"}},
		{Title: "Nothing", BranchTerms: []string{"ct"}},
		{Title: "Beta", BranchTerms: []string{"unknown"}},
		{Title: "Delta", BranchTerms: []string{"ct"}},
		{Title: "alpha", BranchTerms: []string{"ct"}},
	}
}

func TestAssign(t *testing.T) {
	r := Assign(testCatalog(), MostCited, curatedRecords())

	if r.Records != 6 {
		t.Errorf("Records = %d, want 6", r.Records)
	}
	if want := []string{"A", "C", "B", "D"}; !reflect.DeepEqual(r.Matched, want) {
		t.Errorf("Matched = %v, want %v", r.Matched, want)
	}
	want := []Assignment{
		{PaperID: "A", Query: "Q1", Term: "MRI"},
		{PaperID: "C", Query: "Q1", Term: "PET"},
	}
	if !reflect.DeepEqual(r.Assignments, want) {
		t.Errorf("Assignments = %+v, want %+v", r.Assignments, want)
	}
}

func TestAssign_TieKeepsFirstTerm(t *testing.T) {
	c := catalog.New([]catalog.Query{{ID: "Q1"}}, []paper.Paper{
		{ID: "P1", SourceQuery: "Q1", Title: "One", BranchTerms: []string{"a", "b"}},
	})

	r := Assign(c, MostCited, []paper.Paper{{Title: "one", BranchTerms: []string{"B", "A"}}})

	if len(r.Assignments) != 1 || r.Assignments[0].Term != "b" {
		t.Errorf("Assignments = %+v, want term b", r.Assignments)
	}
}

func TestAssign_BlankTermsAreUncategorized(t *testing.T) {
	c := catalog.New([]catalog.Query{{ID: "Q1"}}, []paper.Paper{
		{ID: "P1", SourceQuery: "Q1", Title: "Blank", BranchTerms: []string{" "}},
		{ID: "P2", SourceQuery: "Q1", Title: "Real", BranchTerms: []string{"a"}},
	})

	r := Assign(c, MostCited, []paper.Paper{{Title: "blank", BranchTerms: []string{" ", "a"}}})

	if want := []string{"P1"}; !reflect.DeepEqual(r.Matched, want) {
		t.Errorf("Matched = %v, want %v", r.Matched, want)
	}
	if len(r.Assignments) != 0 {
		t.Errorf("Assignments = %+v, want none for an uncategorized paper", r.Assignments)
	}
}

func TestSet_Aggregates(t *testing.T) {
	c := testCatalog()
	set := &Set{
		MostCited:    Assign(c, MostCited, curatedRecords()),
		MostRelevant: Assign(c, MostRelevant, []paper.Paper{{Title: "Beta", BranchTerms: []string{"CT"}}}),
	}

	got := set.Aggregates(c)
	want := []overlap.AggregateInput{
		{Name: "most_cited/Q1/MRI", Label: MostCitedLabel, Query: "Q1", Term: "MRI", PaperIDs: []string{"A"}},
		{Name: "most_cited/Q1/PET", Label: MostCitedLabel, Query: "Q1", Term: "PET", PaperIDs: []string{"C"}},
		{Name: "most_cited/pubmed", Label: MostCitedLabel, PaperIDs: []string{"A", "C", "D"}},
		{Name: "most_relevant/pubmed", Label: MostRelevantLabel, PaperIDs: []string{"B"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Aggregates() =\n%+v\nwant\n%+v", got, want)
	}

	// Every aggregate must validate against the same catalog.
	if _, err := overlap.Compute(overlap.Input{
		Queries:    c.QueryIDs(),
		Papers:     c.AllPapers(),
		Aggregates: got,
	}); err != nil {
		t.Errorf("Compute() error = %v", err)
	}
}

func TestSet_AggregatesWithoutFiles(t *testing.T) {
	c := testCatalog()
	got := (&Set{}).Aggregates(c)

	// Uncategorized papers still form the database's most-cited node.
	if len(got) != 1 || got[0].Name != "most_cited/pubmed" || !reflect.DeepEqual(got[0].PaperIDs, []string{"D"}) {
		t.Errorf("Aggregates() = %+v", got)
	}
}

const mostCitedRIS = `TY  - JOUR
TI  - Gamma
RN  - pet, ct
ER  -
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	manual := filepath.Join(dir, "manual_groupings")
	if err := os.MkdirAll(manual, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(manual, "most_cited_v1.txt"), []byte(mostCitedRIS), 0644); err != nil {
		t.Fatalf("writing RIS: %v", err)
	}

	cfg := &config.Config{ManualGroupingsDir: "manual_groupings"}
	cfg.SetRoot(dir)

	set, err := Load(cfg, testCatalog(), logging.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.MostRelevant != nil {
		t.Errorf("MostRelevant = %+v, want nil", set.MostRelevant)
	}
	if set.MostCited == nil {
		t.Fatal("MostCited is nil")
	}
	if set.MostCited.Source == "" {
		t.Error("Source not recorded")
	}
	want := []Assignment{{PaperID: "C", Query: "Q1", Term: "PET"}}
	if !reflect.DeepEqual(set.MostCited.Assignments, want) {
		t.Errorf("Assignments = %+v, want %+v", set.MostCited.Assignments, want)
	}
}

func TestLoad_MissingFolder(t *testing.T) {
	cfg := &config.Config{ManualGroupingsDir: "nowhere"}
	cfg.SetRoot(t.TempDir())

	set, err := Load(cfg, testCatalog(), logging.Nop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if set.MostCited != nil || set.MostRelevant != nil {
		t.Errorf("Load() = %+v, want empty set", set)
	}
}
