// Package enhancer turns raw ADR markdown into the content shown to readers.
//
// The ADR repository treats the output as opaque; any Enhancer can be
// substituted, including the no-op one used in tests.
package enhancer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/starford/adrbook/internal/models"
	mdparser "github.com/starford/adrbook/internal/parser"
)

// Metadata is the ADR state an enhancer may reflect in its output.
type Metadata struct {
	Slug         string
	Title        string
	Status       models.Status
	Package      string
	Date         time.Time
	SupersededBy string
	// Supersedes lists the ADRs whose superseded_by points at Slug.
	Supersedes []string
}

// Enhancer produces enhanced content from raw markdown and metadata.
// Implementations must be deterministic for identical inputs.
type Enhancer interface {
	Enhance(ctx context.Context, raw string, meta Metadata) (string, error)
}

// Func adapts a plain function to Enhancer.
type Func func(ctx context.Context, raw string, meta Metadata) (string, error)

// Enhance implements Enhancer.
func (f Func) Enhance(ctx context.Context, raw string, meta Metadata) (string, error) {
	return f(ctx, raw, meta)
}

// Nop returns the markdown body unchanged.
type Nop struct{}

// Enhance implements Enhancer.
func (Nop) Enhance(_ context.Context, raw string, _ Metadata) (string, error) {
	return mdparser.Parse([]byte(raw)).Body, nil
}

// Plain returns the markdown body behind a one-line HTML comment carrying
// the ADR's status and supersede relations.
type Plain struct{}

// Enhance implements Enhancer.
func (Plain) Enhance(_ context.Context, raw string, meta Metadata) (string, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "<!-- status: %s", meta.Status)
	if meta.SupersededBy != "" {
		fmt.Fprintf(&buf, "; superseded by: %s", meta.SupersededBy)
	}
	if len(meta.Supersedes) > 0 {
		fmt.Fprintf(&buf, "; supersedes: %s", strings.Join(meta.Supersedes, ", "))
	}
	buf.WriteString(" -->\n")
	buf.WriteString(mdparser.Parse([]byte(raw)).Body)
	return buf.String(), nil
}

// Goldmark renders the body to HTML and prepends a header with the ADR's
// status, date and supersede relations.
type Goldmark struct {
	md   goldmark.Markdown
	href func(slug string) string
}

// Option configures a Goldmark enhancer.
type Option func(*Goldmark)

// WithLinkPrefix sets the URL prefix used for links to other ADRs.
func WithLinkPrefix(prefix string) Option {
	return func(g *Goldmark) {
		g.href = func(slug string) string { return prefix + slug }
	}
}

// NewGoldmark returns a GFM renderer. Raw HTML in ADR bodies is omitted.
func NewGoldmark(opts ...Option) *Goldmark {
	g := &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				ghhtml.WithXHTML(),
			),
		),
		href: func(slug string) string { return "/adr/" + slug },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enhance implements Enhancer.
func (g *Goldmark) Enhance(ctx context.Context, raw string, meta Metadata) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body := mdparser.Parse([]byte(raw)).Body

	var buf bytes.Buffer
	g.writeHeader(&buf, meta)
	if err := g.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("enhancer: convert %s: %w", meta.Slug, err)
	}
	return buf.String(), nil
}

func (g *Goldmark) writeHeader(buf *bytes.Buffer, meta Metadata) {
	buf.WriteString(`<dl class="adr-meta">` + "\n")
	status := html.EscapeString(string(meta.Status))
	if meta.SupersededBy != "" {
		status += " by " + g.link(meta.SupersededBy)
	}
	field(buf, "Status", status)
	if !meta.Date.IsZero() {
		field(buf, "Date", meta.Date.Format("2006-01-02"))
	}
	if meta.Package != "" {
		field(buf, "Package", html.EscapeString(meta.Package))
	}
	if len(meta.Supersedes) > 0 {
		links := make([]string, len(meta.Supersedes))
		for i, s := range meta.Supersedes {
			links[i] = g.link(s)
		}
		field(buf, "Supersedes", strings.Join(links, ", "))
	}
	buf.WriteString("</dl>\n")
}

func (g *Goldmark) link(slug string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(g.href(slug)), html.EscapeString(slug))
}

func field(buf *bytes.Buffer, name, value string) {
	fmt.Fprintf(buf, "<dt>%s</dt><dd>%s</dd>\n", name, value)
}
