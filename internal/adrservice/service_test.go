package adrservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/enhancer"
	"github.com/starford/adrbook/internal/index"
	"github.com/starford/adrbook/internal/slug"
	"github.com/starford/adrbook/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) PublishADREvent(kind, slug string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, kind+":"+slug)
}

func testService(t *testing.T) (string, *Service, *recordingPublisher) {
	t.Helper()
	root, store, proj := testutil.TestProject(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo, err := adr.Open(context.Background(), store, proj,
		adr.WithClock(slug.FixedClock(testutil.Now)),
		adr.WithEnhancer(enhancer.NewGoldmark()),
		adr.WithLogger(logger))
	if err != nil {
		t.Fatal(err)
	}
	pub := &recordingPublisher{}
	return root, NewService(repo, testutil.TestDB(t), pub, logger), pub
}

func TestCreateADR_IndexesAndPublishes(t *testing.T) {
	_, svc, pub := testService(t)
	ctx := context.Background()

	d, err := svc.CreateADR(ctx, "package1/", "Event bus")
	if err != nil {
		t.Fatalf("CreateADR: %v", err)
	}
	if d.ADR.Slug != "package1/20240305-event-bus" {
		t.Errorf("slug = %q", d.ADR.Slug)
	}

	items, total, err := svc.ListADRs(ctx, index.ListQuery{Package: "package1"})
	if err != nil || total != 1 || items[0].Slug != d.ADR.Slug || items[0].Status != "draft" {
		t.Errorf("ListADRs = %+v, %d, %v", items, total, err)
	}
	if len(pub.events) != 1 || pub.events[0] != "created:package1/20240305-event-bus" {
		t.Errorf("events = %v", pub.events)
	}
}

func TestCreateADR_FailureNotIndexed(t *testing.T) {
	_, svc, pub := testService(t)
	_, err := svc.CreateADR(context.Background(), "ghost/x", "Nope")
	if !errors.Is(err, apperr.ErrUnknownPackage) {
		t.Fatalf("err = %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("events = %v", pub.events)
	}
}

func TestSupersede_UpdatesIndexAndBacklinks(t *testing.T) {
	_, svc, pub := testService(t)
	ctx := context.Background()
	_, _ = svc.CreateADR(ctx, "old", "Old")
	_, _ = svc.CreateADR(ctx, "new", "New")

	if err := svc.Supersede(ctx, "old", "new"); err != nil {
		t.Fatalf("Supersede: %v", err)
	}

	d, err := svc.GetADR(ctx, "new")
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Backlinks) != 1 || d.Backlinks[0].Source != "old" || d.Backlinks[0].Type != index.LinkSupersededBy {
		t.Errorf("backlinks = %+v", d.Backlinks)
	}
	items, _, _ := svc.ListADRs(ctx, index.ListQuery{Status: "superseded"})
	if len(items) != 1 || items[0].SupersededBy != "new" {
		t.Errorf("superseded items = %+v", items)
	}
	last := pub.events[len(pub.events)-2:]
	if last[0] != "updated:old" || last[1] != "updated:new" {
		t.Errorf("events = %v", pub.events)
	}

	if err := svc.Supersede(ctx, "new", "new"); !errors.Is(err, apperr.ErrSelfSupersede) {
		t.Errorf("err = %v, want ErrSelfSupersede", err)
	}
}

func TestGetADR_NotFound(t *testing.T) {
	_, svc, _ := testService(t)
	if _, err := svc.GetADR(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateSlug_FullSlug(t *testing.T) {
	_, svc, _ := testService(t)
	got, err := svc.GenerateSlug(context.Background(), "package2", "Use gRPC")
	if err != nil || got != "package2/20240305-use-grpc" {
		t.Errorf("GenerateSlug = %q, %v", got, err)
	}
}

func TestReload_PicksUpExternalEdits(t *testing.T) {
	root, svc, pub := testService(t)
	ctx := context.Background()
	testutil.WriteFile(t, root, "docs/adr/0009-manual.md", "---\ntitle: Manual\nstatus: proposed\n---\nSee [[other]].\n")

	if err := svc.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	d, err := svc.GetADR(ctx, "0009-manual")
	if err != nil {
		t.Fatal(err)
	}
	if d.ADR.Title != "Manual" || d.ADR.Status != "proposed" {
		t.Errorf("adr = %+v", d.ADR)
	}
	res, err := svc.Search(ctx, "Manual", 10)
	if err != nil || len(res) != 1 {
		t.Errorf("Search = %+v, %v", res, err)
	}
	if pub.events[len(pub.events)-1] != "reloaded:" {
		t.Errorf("events = %v", pub.events)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	_, svc, _ := testService(t)
	if _, err := svc.Search(context.Background(), "", 10); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}
