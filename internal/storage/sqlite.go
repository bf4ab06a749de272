package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/matsen/litmap/internal/paper"
)

// MemoryDB opens a private in-memory index.
const MemoryDB = ":memory:"

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// SortOrder selects how search results are ordered.
type SortOrder string

const (
	// SortYear orders newest first; papers without a year go last.
	SortYear SortOrder = "year"
	// SortTitle orders alphabetically, ignoring case.
	SortTitle SortOrder = "title"
)

// ParseSortOrder validates a user-supplied sort order. Empty means SortYear.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortYear:
		return SortYear, nil
	case SortTitle:
		return SortTitle, nil
	default:
		return "", fmt.Errorf("invalid sort order %q (must be year or title)", s)
	}
}

func (s SortOrder) orderBy() string {
	if s == SortTitle {
		return ` ORDER BY title COLLATE NOCASE, id`
	}
	return ` ORDER BY pub_year IS NULL, pub_year DESC, title COLLATE NOCASE, id`
}

// selectPaperFields contains the standard field list for SELECT queries.
const selectPaperFields = `id, source_query, database_name, doi, title, abstract,
	journal, volume, issue, pages, url, pub_year, pdf_path,
	authors_json, keywords_json, branch_terms_json, unique_terms_json`

// OpenDB opens or creates a SQLite database at the given path.
// Pass MemoryDB for an index that lives only as long as the connection.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: SQLite serializes writes, and an in-memory database
	// is per-connection.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			source_query TEXT NOT NULL,
			database_name TEXT,
			doi TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			journal TEXT,
			volume TEXT,
			issue TEXT,
			pages TEXT,
			url TEXT,
			pub_year INTEGER,
			pdf_path TEXT,
			authors_json TEXT,
			keywords_json TEXT,
			branch_terms_json TEXT,
			unique_terms_json TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_papers_query ON papers(source_query);

		-- Full-text search virtual table (standalone, not external content)
		CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
			id,
			title,
			abstract,
			authors_text,
			branch_terms
		);
	`

	_, err := db.Exec(schema)
	return err
}

// ReplaceAll clears the index and loads papers into it.
func (d *DB) ReplaceAll(papers []paper.Paper) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM papers_fts"); err != nil {
		return 0, fmt.Errorf("clearing papers_fts table: %w", err)
	}

	papersStmt, err := tx.Prepare(`
		INSERT INTO papers (
			id, source_query, database_name, doi, title, abstract,
			journal, volume, issue, pages, url, pub_year, pdf_path,
			authors_json, keywords_json, branch_terms_json, unique_terms_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing papers insert: %w", err)
	}
	defer papersStmt.Close()

	ftsStmt, err := tx.Prepare(`
		INSERT INTO papers_fts (id, title, abstract, authors_text, branch_terms)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing fts insert: %w", err)
	}
	defer ftsStmt.Close()

	for _, p := range papers {
		lists := make([]sql.NullString, 4)
		for i, v := range []interface{}{p.Authors, p.Keywords, p.BranchTerms, p.UniqueSearchTerms} {
			lists[i], err = jsonColumn(v)
			if err != nil {
				return 0, fmt.Errorf("encoding lists for %s: %w", p.ID, err)
			}
		}

		var year sql.NullInt64
		if p.HasYear() {
			year = sql.NullInt64{Int64: int64(*p.Year), Valid: true}
		}

		_, err = papersStmt.Exec(
			p.ID, p.SourceQuery, nullableStringValue(p.Database), nullableStringValue(p.DOI),
			p.Title, nullableStringValue(p.Abstract),
			nullableStringValue(p.Journal), nullableStringValue(p.Volume),
			nullableStringValue(p.Issue), nullableStringValue(p.Pages),
			nullableStringValue(p.URL), year, nullableStringValue(p.PDFPath),
			lists[0], lists[1], lists[2], lists[3],
		)
		if err != nil {
			return 0, fmt.Errorf("inserting paper %s: %w", p.ID, err)
		}

		_, err = ftsStmt.Exec(p.ID, p.Title, p.Abstract, p.AuthorsString(), strings.Join(p.BranchTerms, ", "))
		if err != nil {
			return 0, fmt.Errorf("inserting fts for %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index: %w", err)
	}
	return len(papers), nil
}

// GetByID retrieves a paper by its ID. Returns nil, nil when absent.
func (d *DB) GetByID(id string) (*paper.Paper, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, id)
	return scanPaper(row)
}

// Search returns papers matching text in title, abstract, authors or
// branch terms, ordered by sort. An empty text lists every paper.
// A limit of zero or less means no limit.
func (d *DB) Search(text string, sort SortOrder, limit int) ([]paper.Paper, error) {
	var args []interface{}
	query := `SELECT ` + selectPaperFields + ` FROM papers`

	if ftsQuery := prepareFTSQuery(text); ftsQuery != "" {
		query += ` WHERE id IN (SELECT id FROM papers_fts WHERE papers_fts MATCH ?)`
		args = append(args, ftsQuery)
	}
	query += sort.orderBy()
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// ListByQuery returns the papers of one search query, ordered by sort.
func (d *DB) ListByQuery(query string, sort SortOrder) ([]paper.Paper, error) {
	rows, err := d.db.Query(`SELECT `+selectPaperFields+` FROM papers WHERE source_query = ?`+sort.orderBy(), query)
	if err != nil {
		return nil, fmt.Errorf("listing papers for %s: %w", query, err)
	}
	defer rows.Close()

	return scanPapers(rows)
}

// Count returns the total number of papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(s scanner) (*paper.Paper, error) {
	var p paper.Paper
	var database, doi, abstract, journal, volume, issue, pages, url, pdfPath sql.NullString
	var authorsJSON, keywordsJSON, termsJSON, uniqueJSON sql.NullString
	var year sql.NullInt64

	err := s.Scan(
		&p.ID, &p.SourceQuery, &database, &doi, &p.Title, &abstract,
		&journal, &volume, &issue, &pages, &url, &year, &pdfPath,
		&authorsJSON, &keywordsJSON, &termsJSON, &uniqueJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	p.Database = database.String
	p.DOI = doi.String
	p.Abstract = abstract.String
	p.Journal = journal.String
	p.Volume = volume.String
	p.Issue = issue.String
	p.Pages = pages.String
	p.URL = url.String
	p.PDFPath = pdfPath.String
	if year.Valid {
		p.Year = paper.IntPtr(int(year.Int64))
	}

	fields := []struct {
		col  sql.NullString
		dest interface{}
	}{
		{authorsJSON, &p.Authors},
		{keywordsJSON, &p.Keywords},
		{termsJSON, &p.BranchTerms},
		{uniqueJSON, &p.UniqueSearchTerms},
	}
	for _, f := range fields {
		if !f.col.Valid || f.col.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.col.String), f.dest); err != nil {
			return nil, fmt.Errorf("parsing JSON column for %s: %w", p.ID, err)
		}
	}

	return &p, nil
}

func scanPapers(rows *sql.Rows) ([]paper.Paper, error) {
	var papers []paper.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		if p != nil {
			papers = append(papers, *p)
		}
	}
	return papers, rows.Err()
}

// jsonColumn encodes a list column, storing NULL for empty lists.
func jsonColumn(v interface{}) (sql.NullString, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if s := string(data); s != "null" && s != "[]" {
		return sql.NullString{String: s, Valid: true}, nil
	}
	return sql.NullString{}, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~.,/") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}
