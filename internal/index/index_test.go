package index

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "adrbook-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testADR(slug, title, date, raw string) models.ADR {
	d, _ := time.Parse("2006-01-02", date)
	return models.ADR{
		Slug:   slug,
		Title:  title,
		Status: models.StatusAccepted,
		Date:   d,
		Path:   "docs/adr/" + slug + ".md",
		Body:   models.Body{Raw: raw},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM adrs`).Scan(&count); err != nil {
		t.Fatalf("adrs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	db := testDB(t)
	a := testADR("0001-hello", "Hello", "2024-01-02", "---\ntitle: Hello\n---\nBody text.\n")
	a.Package = "core"
	a.Tags = []string{"go", "db"}
	if err := db.UpsertADR(a); err != nil {
		t.Fatalf("UpsertADR: %v", err)
	}

	row, err := db.GetADR("0001-hello")
	if err != nil {
		t.Fatalf("GetADR: %v", err)
	}
	if row.Title != "Hello" || row.Status != "accepted" || row.Package != "core" || row.Date != "2024-01-02" {
		t.Errorf("row = %+v", row)
	}
	if len(row.Tags) != 2 || row.Tags[0] != "go" {
		t.Errorf("tags = %v", row.Tags)
	}
	if row.Checksum == "" {
		t.Error("expected checksum")
	}
}

func TestGetADR_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetADR("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("a", "A", "2024-01-01", "see [[b]]"))
	c := testADR("c", "C", "2024-01-01", "body")
	c.SupersededBy = "b"
	_ = db.UpsertADR(c)

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %+v", bl)
	}
	if bl[0] != (Backlink{Source: "a", Type: LinkWikilink}) || bl[1] != (Backlink{Source: "c", Type: LinkSupersededBy}) {
		t.Errorf("backlinks = %+v", bl)
	}
}

func TestDeleteADR(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("del", "Del", "2024-01-01", "[[target]]"))

	if err := db.DeleteADR("del"); err != nil {
		t.Fatalf("DeleteADR: %v", err)
	}
	sums, _ := db.AllChecksums()
	if _, ok := sums["del"]; ok {
		t.Error("deleted ADR still indexed")
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("up", "Old", "2024-01-01", "old [[x]]"))
	_ = db.UpsertADR(testADR("up", "New", "2024-01-01", "new [[y]]"))

	row, _ := db.GetADR("up")
	if row.Title != "New" {
		t.Errorf("title = %q", row.Title)
	}
	if bl, _ := db.Backlinks("x"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y"); len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestListADRs(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("b", "Beta", "2024-02-01", ""))
	_ = db.UpsertADR(testADR("a", "Alpha", "2024-03-01", ""))
	draft := testADR("c", "Gamma", "2023-01-01", "")
	draft.Status = models.StatusDraft
	draft.Package = "pkg"
	_ = db.UpsertADR(draft)

	rows, total, err := db.ListADRs(ListQuery{})
	if err != nil {
		t.Fatalf("ListADRs: %v", err)
	}
	if total != 3 || len(rows) != 3 || rows[0].Slug != "c" || rows[2].Slug != "a" {
		t.Errorf("default order = %+v (total %d)", rows, total)
	}

	rows, total, _ = db.ListADRs(ListQuery{Status: "accepted", Sort: "-date", Limit: 1})
	if total != 2 || len(rows) != 1 || rows[0].Slug != "a" {
		t.Errorf("filtered page = %+v (total %d)", rows, total)
	}

	rows, _, _ = db.ListADRs(ListQuery{Package: "pkg"})
	if len(rows) != 1 || rows[0].Slug != "c" {
		t.Errorf("package filter = %+v", rows)
	}

	if _, _, err := db.ListADRs(ListQuery{Sort: "bogus"}); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestGraph(t *testing.T) {
	db := testDB(t)
	old := testADR("old", "Old", "2024-01-01", "[[missing]] and [[new]]")
	old.SupersededBy = "new"
	_ = db.UpsertADR(old)
	_ = db.UpsertADR(testADR("new", "New", "2024-01-02", ""))

	nodes, links, err := db.Graph()
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %+v", nodes)
	}
	want := []GraphLink{
		{Source: "old", Target: "new", Type: LinkSupersededBy},
		{Source: "old", Target: "new", Type: LinkWikilink},
	}
	if len(links) != len(want) {
		t.Fatalf("links = %+v", links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("links[%d] = %+v, want %+v", i, links[i], want[i])
		}
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("s", "Search Me", "2024-01-01", "uniqueword appears here"))

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Slug != "s" {
		t.Errorf("search results = %+v, want 1 hit for s", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertADR(testADR("stale", "Stale", "2024-01-01", "gone"))
	keep := testADR("keep", "Keep", "2024-01-01", "v1")
	_ = db.UpsertADR(keep)

	keep.Body.Raw = "v2"
	keep.Title = "Keep v2"
	fresh := testADR("fresh", "Fresh", "2024-01-02", "new")

	if err := Sync(db, []models.ADR{keep, fresh}, discard()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	sums, _ := db.AllChecksums()
	if len(sums) != 2 {
		t.Errorf("checksums = %v", sums)
	}
	if _, ok := sums["stale"]; ok {
		t.Error("stale ADR not removed")
	}
	row, _ := db.GetADR("keep")
	if row.Title != "Keep v2" {
		t.Errorf("changed ADR not re-indexed: %+v", row)
	}
}
