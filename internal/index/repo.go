package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/parser"
	"github.com/starford/adrbook/internal/storage"
)

// Link types stored in the links table.
const (
	LinkWikilink     = "wikilink"
	LinkSupersededBy = "superseded_by"
)

const dateLayout = "2006-01-02"

// ADRRow represents a row in the adrs table.
type ADRRow struct {
	Slug         string
	Title        string
	Status       string
	Package      string
	SupersededBy string
	Date         string
	Path         string
	Checksum     string
	Tags         []string
	UpdatedAt    time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Backlink is an inbound edge to an ADR.
type Backlink struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

// ListQuery narrows and orders ListADRs. Zero values mean no filter.
type ListQuery struct {
	Limit   int
	Offset  int
	Status  string
	Package string
	// Sort is one of "date" (default), "-date", "title" or "slug".
	Sort string
}

var sortClauses = map[string]string{
	"":      "date ASC, slug ASC",
	"date":  "date ASC, slug ASC",
	"-date": "date DESC, slug ASC",
	"title": "title COLLATE NOCASE ASC, slug ASC",
	"slug":  "slug ASC",
}

// UpsertADR inserts or replaces an ADR, its FTS entry, and its outgoing links
// within a transaction.
func (db *DB) UpsertADR(a models.ADR) error {
	doc := parser.Parse([]byte(a.Body.Raw))

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	date := ""
	if !a.Date.IsZero() {
		date = a.Date.Format(dateLayout)
	}

	_, err = tx.Exec(`
		INSERT INTO adrs (slug, title, status, package, superseded_by, date, path, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title         = excluded.title,
			status        = excluded.status,
			package       = excluded.package,
			superseded_by = excluded.superseded_by,
			date          = excluded.date,
			path          = excluded.path,
			checksum      = excluded.checksum,
			tags          = excluded.tags,
			body          = excluded.body,
			updated_at    = excluded.updated_at
	`, a.Slug, a.Title, string(a.Status), a.Package, a.SupersededBy, date, a.Path,
		storage.Checksum([]byte(a.Body.Raw)), string(tagsJSON), doc.Body, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("index: upsert adr: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, a.Slug, a.Title, doc.Body, tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, a.Slug); err != nil {
		return fmt.Errorf("index: clear links: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, type) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare link insert: %w", err)
	}
	defer stmt.Close()
	for _, target := range doc.Links() {
		if _, err := stmt.Exec(a.Slug, target, LinkWikilink); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}
	if a.SupersededBy != "" {
		if _, err := stmt.Exec(a.Slug, a.SupersededBy, LinkSupersededBy); err != nil {
			return fmt.Errorf("index: insert link: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteADR removes an ADR, its FTS entry, and outgoing links.
func (db *DB) DeleteADR(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, slug); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, slug); err != nil {
		return fmt.Errorf("index: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM adrs WHERE slug = ?`, slug); err != nil {
		return fmt.Errorf("index: delete adr: %w", err)
	}
	return tx.Commit()
}

// GetADR returns the indexed row for slug.
func (db *DB) GetADR(slug string) (*ADRRow, error) {
	row := db.conn.QueryRow(`
		SELECT slug, title, status, package, superseded_by, date, path, checksum, tags, updated_at
		FROM adrs WHERE slug = ?`, slug)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: %q: %w", slug, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get adr: %w", err)
	}
	return r, nil
}

// ListADRs returns one page of rows and the total number of matches.
func (db *DB) ListADRs(q ListQuery) ([]ADRRow, int, error) {
	order, ok := sortClauses[q.Sort]
	if !ok {
		return nil, 0, fmt.Errorf("index: unknown sort %q: %w", q.Sort, apperr.ErrInvalidInput)
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	where := `WHERE (? = '' OR status = ?) AND (? = '' OR package = ?)`
	args := []any{q.Status, q.Status, q.Package, q.Package}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM adrs `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count adrs: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT slug, title, status, package, superseded_by, date, path, checksum, tags, updated_at
		FROM adrs `+where+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list adrs: %w", err)
	}
	defer rows.Close()

	var out []ADRRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// AllChecksums returns slug → checksum for every indexed ADR.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT slug, checksum FROM adrs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var s, cs string
		if err := rows.Scan(&s, &cs); err != nil {
			return nil, err
		}
		out[s] = cs
	}
	return out, rows.Err()
}

// Backlinks returns every ADR linking to target, by wikilink or supersede edge.
func (db *DB) Backlinks(target string) ([]Backlink, error) {
	rows, err := db.conn.Query(`SELECT source, type FROM links WHERE target = ? ORDER BY source, type`, target)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []Backlink
	for rows.Next() {
		var b Backlink
		if err := rows.Scan(&b.Source, &b.Type); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*ADRRow, error) {
	var r ADRRow
	var tags string
	if err := s.Scan(&r.Slug, &r.Title, &r.Status, &r.Package, &r.SupersededBy,
		&r.Date, &r.Path, &r.Checksum, &tags, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		r.Tags = nil
	}
	return &r, nil
}
