package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/litmap/internal/overlap"
)

const pubmedRIS = `TY  - JOUR
ID  - pm1
TI  - Deep learning for CT
DO  - 10.1/dl
PY  - 2021
RN  - CT, deep learning
ER  -
TY  - JOUR
ID  - pm2
TI  - MRI survey
PY  - 2019
RN  - MRI
ER  -
TY  - JOUR
ID  - pm3
TI  - Unrelated
ER  -
`

const arxivRIS = `TY  - JOUR
ID  - ax1
TI  - Deep Learning for CT
DO  - 10.1/DL
RN  - transformers
ER  -
`

const projectYAML = `ris_source_dir: RIS_source_files
cross_query_identity: work
queries:
  - name: Imaging
    prefix: pubmed
  - name: ML
    prefix: arxiv
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// writeProject lays out a two-query project and returns the litmap.yml path.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "RIS_source_files", "pubmed_2024.txt"), pubmedRIS)
	writeFile(t, filepath.Join(dir, "RIS_source_files", "arxiv_2024.txt"), arxivRIS)
	path := filepath.Join(dir, "litmap.yml")
	writeFile(t, path, projectYAML)
	return path
}

// run executes the CLI with args and returns what it wrote to stdout.
// Flag variables are reset first since cobra only sets flags that are passed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvConfig, "")

	humanOutput, configPath, logLevel, logFormat = false, "", "", ""
	groupsCatalog, groupsIdentity = "", ""
	papersSort, papersLimit, papersQuery = "year", DefaultSearchLimit, ""
	vizOutput, vizLayout = "", "breadthfirst"
	exportFormat = ""

	var buf bytes.Buffer
	stdout = &buf
	t.Cleanup(func() { stdout = os.Stdout })

	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestExitCode(t *testing.T) {
	dup := &overlap.DuplicatePaperIDError{ID: "P1"}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitError},
		{"config", &configError{errors.New("no project")}, ExitConfigError},
		{"data", dup, ExitDataError},
		{"wrapped data", fmt.Errorf("computing groups: %w", dup), ExitDataError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidateIdentity(t *testing.T) {
	for _, id := range []string{"", "id", "work"} {
		if err := validateIdentity(id); err != nil {
			t.Errorf("validateIdentity(%q) error = %v", id, err)
		}
	}
	if err := validateIdentity("doi"); err == nil {
		t.Error("validateIdentity(\"doi\") should fail")
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		s      string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"ünïcödé title", 8, "ünïcö..."},
	}

	for _, tt := range tests {
		if got := truncateString(tt.s, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
		}
	}
}

func TestCLI_InitAndCheck(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "init", dir)
	if err != nil {
		t.Fatalf("init error = %v", err)
	}
	var status StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("init output is not JSON: %v\n%s", err, out)
	}
	if status.Path != filepath.Join(dir, "litmap.yml") {
		t.Errorf("init path = %q", status.Path)
	}
	if _, err := os.Stat(filepath.Join(dir, "RIS_source_files", "manual_groupings")); err != nil {
		t.Errorf("init did not create manual groupings folder: %v", err)
	}

	if _, err := run(t, "init", dir); err == nil {
		t.Error("second init should fail")
	}

	out, err = run(t, "--config", status.Path, "check")
	if err != nil {
		t.Fatalf("check error = %v", err)
	}
	var report CheckResponse
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("check output is not JSON: %v\n%s", err, out)
	}
	if report.Status != "warnings" || report.Papers != 0 {
		t.Errorf("check = %+v, want warnings with no papers", report)
	}
	codes := map[string]bool{}
	for _, w := range report.Warnings {
		codes[w.Code] = true
	}
	if !codes[overlap.WarnEmptyInput] || !codes[WarnNoSource] {
		t.Errorf("warning codes = %v, want %s and %s", codes, overlap.WarnEmptyInput, WarnNoSource)
	}
}

func TestCLI_Groups(t *testing.T) {
	path := writeProject(t)

	out, err := run(t, "--config", path, "groups")
	if err != nil {
		t.Fatalf("groups error = %v", err)
	}
	var res overlap.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("groups output is not JSON: %v\n%s", err, out)
	}
	if len(res.CrossQueryGroups) != 2 {
		t.Errorf("cross-query groups = %d, want 2", len(res.CrossQueryGroups))
	}
	if got := res.Uncategorized["Imaging"].PaperIDs; len(got) != 1 || got[0] != "pm3" {
		t.Errorf("uncategorized = %v, want [pm3]", got)
	}

	out, err = run(t, "--config", path, "groups", "--identity", "id")
	if err != nil {
		t.Fatalf("groups --identity id error = %v", err)
	}
	res = overlap.Result{}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("groups output is not JSON: %v", err)
	}
	if len(res.CrossQueryGroups) != 0 {
		t.Errorf("cross-query groups by id = %d, want 0", len(res.CrossQueryGroups))
	}
}

func TestCLI_GroupsHuman(t *testing.T) {
	out, err := run(t, "--config", writeProject(t), "--human", "groups")
	if err != nil {
		t.Fatalf("groups error = %v", err)
	}
	for _, want := range []string{"within-query(Imaging)", "cross-query(Imaging,ML)", overlap.UncategorizedLabel} {
		if !strings.Contains(out, want) {
			t.Errorf("groups --human missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ExportRoundTrip(t *testing.T) {
	path := writeProject(t)
	jsonl := filepath.Join(t.TempDir(), "papers.jsonl")

	out, err := run(t, "--config", path, "export", jsonl)
	if err != nil {
		t.Fatalf("export error = %v", err)
	}
	var status StatusResponse
	if err := json.Unmarshal([]byte(out), &status); err != nil || status.Count != 4 {
		t.Fatalf("export = %q (%v), want 4 papers", out, err)
	}

	out, err = run(t, "groups", "--catalog", jsonl, "--identity", "work")
	if err != nil {
		t.Fatalf("groups --catalog error = %v", err)
	}
	var res overlap.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("groups output is not JSON: %v", err)
	}
	if len(res.Queries) != 2 || len(res.CrossQueryGroups) != 2 {
		t.Errorf("from catalog: queries = %v, cross groups = %d", res.Queries, len(res.CrossQueryGroups))
	}
}

func TestCLI_ExportBibTeX(t *testing.T) {
	path := writeProject(t)
	bib := filepath.Join(t.TempDir(), "review.bib")

	if _, err := run(t, "--config", path, "export", bib); err != nil {
		t.Fatalf("export error = %v", err)
	}
	data, err := os.ReadFile(bib)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	got := string(data)
	if strings.Count(got, "@article{") != 4 {
		t.Errorf("entries = %d, want 4:\n%s", strings.Count(got, "@article{"), got)
	}
	if !strings.Contains(got, "note = {Search query: ML}") {
		t.Errorf("missing query note:\n%s", got)
	}
}

func TestExportFormatFor(t *testing.T) {
	tests := []struct {
		path, format string
		want         string
		wantErr      bool
	}{
		{"papers.jsonl", "", FormatJSONL, false},
		{"review.BIB", "", FormatBibTeX, false},
		{"out.txt", "bibtex", FormatBibTeX, false},
		{"out.bib", "jsonl", FormatJSONL, false},
		{"out.csv", "csv", "", true},
	}

	for _, tt := range tests {
		got, err := exportFormatFor(tt.path, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("exportFormatFor(%q, %q) error = %v, wantErr %v", tt.path, tt.format, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("exportFormatFor(%q, %q) = %q, want %q", tt.path, tt.format, got, tt.want)
		}
	}
}

func TestCLI_Terms(t *testing.T) {
	out, err := run(t, "--config", writeProject(t), "terms")
	if err != nil {
		t.Fatalf("terms error = %v", err)
	}
	var terms []QueryTerms
	if err := json.Unmarshal([]byte(out), &terms); err != nil {
		t.Fatalf("terms output is not JSON: %v\n%s", err, out)
	}
	if len(terms) != 2 {
		t.Fatalf("terms = %d queries, want 2", len(terms))
	}
	if terms[0].Query != "Imaging" || terms[0].Papers != 3 || terms[0].Uncategorized != 1 || len(terms[0].Terms) != 3 {
		t.Errorf("Imaging terms = %+v", terms[0])
	}
}

func TestCLI_Papers(t *testing.T) {
	path := writeProject(t)

	out, err := run(t, "--config", path, "papers", "survey")
	if err != nil {
		t.Fatalf("papers error = %v", err)
	}
	var results []PaperResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("papers output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 1 || results[0].ID != "pm2" {
		t.Errorf("papers survey = %+v, want pm2", results)
	}

	out, err = run(t, "--config", path, "papers", "--query", "Imaging", "--limit", "2")
	if err != nil {
		t.Fatalf("papers --query error = %v", err)
	}
	results = nil
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("papers output is not JSON: %v", err)
	}
	if len(results) != 2 || results[0].ID != "pm1" || results[1].ID != "pm2" {
		t.Errorf("papers --query Imaging = %+v, want pm1, pm2", results)
	}

	if _, err := run(t, "--config", path, "papers", "--sort", "citations"); err == nil {
		t.Error("papers --sort citations should fail")
	}
}

func TestCLI_Get(t *testing.T) {
	path := writeProject(t)

	out, err := run(t, "--config", path, "--human", "get", "pm1")
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if !strings.Contains(out, "Deep learning for CT") || !strings.Contains(out, "2021") {
		t.Errorf("get pm1 output:\n%s", out)
	}

	if _, err := run(t, "--config", path, "get", "missing"); err == nil {
		t.Error("get of an unknown id should fail")
	}
}

func TestCLI_Viz(t *testing.T) {
	path := writeProject(t)
	html := filepath.Join(t.TempDir(), "map.html")

	if _, err := run(t, "--config", path, "viz", "--output", html, "--layout", "force"); err != nil {
		t.Fatalf("viz error = %v", err)
	}
	data, err := os.ReadFile(html)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `const layout = "cose"`) {
		t.Error("viz output does not use the force layout")
	}

	_, err = run(t, "--config", path, "viz", "--layout", "spiral")
	if err == nil || exitCode(err) != ExitError {
		t.Errorf("viz --layout spiral error = %v, want general error", err)
	}
}

func TestCLI_ConfigErrors(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "litmap.yml"), "groups")
	if exitCode(err) != ExitConfigError {
		t.Errorf("missing config: exit code = %d (%v), want %d", exitCode(err), err, ExitConfigError)
	}

	bad := filepath.Join(t.TempDir(), "litmap.yml")
	writeFile(t, bad, "ris_source_dir: x\ncross_query_identity: doi\nqueries:\n  - name: Q\n    prefix: q\n")
	_, err = run(t, "--config", bad, "check")
	if exitCode(err) != ExitConfigError {
		t.Errorf("invalid config: exit code = %d (%v), want %d", exitCode(err), err, ExitConfigError)
	}
}

func TestCLI_CheckDataError(t *testing.T) {
	path := writeProject(t)
	writeFile(t, filepath.Join(filepath.Dir(path), "RIS_source_files", "arxiv_2024.txt"), pubmedRIS)

	_, err := run(t, "--config", path, "check")
	if exitCode(err) != ExitDataError {
		t.Errorf("exit code = %d (%v), want %d", exitCode(err), err, ExitDataError)
	}
	if !errors.Is(err, overlap.ErrDuplicatePaperID) {
		t.Errorf("error = %v, want duplicate paper id", err)
	}
}

func TestCLI_ReloadsShareStore(t *testing.T) {
	path := writeProject(t)

	if _, err := run(t, "--config", path, "terms"); err != nil {
		t.Fatalf("terms error = %v", err)
	}
	first := store.Current()
	if first == nil {
		t.Fatal("no snapshot published after a successful load")
	}

	if _, err := run(t, "--config", path, "check"); err != nil {
		t.Fatalf("check error = %v", err)
	}
	second := store.Current()
	if second.Generation != first.Generation+1 {
		t.Errorf("generation = %d, want %d", second.Generation, first.Generation+1)
	}

	writeFile(t, filepath.Join(filepath.Dir(path), "RIS_source_files", "arxiv_2024.txt"), pubmedRIS)
	if _, err := run(t, "--config", path, "check"); exitCode(err) != ExitDataError {
		t.Fatalf("check error = %v, want data error", err)
	}
	if store.Current() != second {
		t.Error("failed reload replaced the published snapshot")
	}
}
