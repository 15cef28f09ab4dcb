package enhancer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/starford/adrbook/internal/models"
)

const raw = "---\ntitle: Use Go\nstatus: accepted\n---\n\n# Use Go\n\nWe <b>pick</b> Go.\n"

func TestGoldmark_RendersBodyAndHeader(t *testing.T) {
	g := NewGoldmark()
	out, err := g.Enhance(context.Background(), raw, Metadata{
		Slug:   "20240305-use-go",
		Status: models.StatusAccepted,
		Date:   time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	for _, want := range []string{
		`<dt>Status</dt><dd>accepted</dd>`,
		`<dt>Date</dt><dd>2024-03-05</dd>`,
		`<h1 id="use-go">Use Go</h1>`,
		`<!-- raw HTML omitted -->pick`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "title: Use Go") {
		t.Error("front matter leaked into output")
	}
}

func TestGoldmark_Relations(t *testing.T) {
	g := NewGoldmark(WithLinkPrefix("/decisions/"))
	out, err := g.Enhance(context.Background(), raw, Metadata{
		Slug:         "pkg/b",
		Status:       models.StatusSuperseded,
		Package:      "pkg",
		SupersededBy: "pkg/c",
		Supersedes:   []string{"a"},
	})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if !strings.Contains(out, `superseded by <a href="/decisions/pkg/c">pkg/c</a>`) {
		t.Errorf("missing superseded-by link:\n%s", out)
	}
	if !strings.Contains(out, `<dt>Supersedes</dt><dd><a href="/decisions/a">a</a></dd>`) {
		t.Errorf("missing supersedes link:\n%s", out)
	}
	if !strings.Contains(out, `<dt>Package</dt><dd>pkg</dd>`) {
		t.Errorf("missing package:\n%s", out)
	}
}

func TestGoldmark_Deterministic(t *testing.T) {
	g := NewGoldmark()
	meta := Metadata{Slug: "x", Status: models.StatusDraft}
	a, _ := g.Enhance(context.Background(), raw, meta)
	b, _ := g.Enhance(context.Background(), raw, meta)
	if a != b {
		t.Error("same input produced different output")
	}
}

func TestGoldmark_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewGoldmark().Enhance(ctx, raw, Metadata{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestNop_StripsFrontmatter(t *testing.T) {
	out, err := Nop{}.Enhance(context.Background(), raw, Metadata{})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if out != "\n# Use Go\n\nWe <b>pick</b> Go.\n" {
		t.Errorf("out = %q", out)
	}
}

func TestPlain_ReflectsRelations(t *testing.T) {
	ctx := context.Background()
	alone, err := Plain{}.Enhance(ctx, raw, Metadata{Status: models.StatusAccepted})
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if alone != "<!-- status: accepted -->\n\n# Use Go\n\nWe <b>pick</b> Go.\n" {
		t.Errorf("out = %q", alone)
	}

	linked, _ := Plain{}.Enhance(ctx, raw, Metadata{
		Status:     models.StatusAccepted,
		Supersedes: []string{"a", "pkg/b"},
	})
	if !strings.HasPrefix(linked, "<!-- status: accepted; supersedes: a, pkg/b -->\n") {
		t.Errorf("out = %q", linked)
	}
}
