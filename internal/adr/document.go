package adr

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/parser"
	"github.com/starford/adrbook/internal/slug"
)

// Front-matter keys written by the repository.
const (
	keyTitle        = "title"
	keyStatus       = "status"
	keyDate         = "date"
	keyPackage      = "package"
	keySupersededBy = "superseded_by"
)

// DateLayout is the front-matter date format.
const DateLayout = "2006-01-02"

// skipFile reports whether a markdown file in an ADR folder is not an ADR.
func skipFile(name string) bool {
	switch strings.ToLower(name) {
	case "template.md", "readme.md", "index.md":
		return true
	}
	return strings.HasPrefix(name, ".")
}

// fromFile builds an ADR from file content, filling gaps left by manual
// edits: status defaults to draft, title to the first H1 then the slug, and
// date to fallback.
func fromFile(pkg, filePath string, data []byte, fallback time.Time, loc *time.Location) *models.ADR {
	doc := parser.Parse(data)
	local := strings.TrimSuffix(path.Base(filePath), ".md")

	a := &models.ADR{
		Slug:         slug.Join(pkg, local),
		Title:        doc.Title(),
		Status:       models.Status(strings.ToLower(strings.TrimSpace(doc.Get(keyStatus)))),
		Package:      pkg,
		SupersededBy: strings.TrimSpace(doc.Get(keySupersededBy)),
		Date:         parseDate(doc.Get(keyDate), loc),
		Path:         filePath,
		Tags:         doc.Tags(),
		Body:         models.Body{Raw: string(data)},
	}
	if a.Title == "" {
		a.Title = local
	}
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Date.IsZero() {
		y, m, d := fallback.In(loc).Date()
		a.Date = time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return a
}

func parseDate(s string, loc *time.Location) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return time.Time{}
}

// relink recomputes the derived Supersedes lists of every ADR.
func relink(adrs map[string]*models.ADR) {
	for _, a := range adrs {
		a.Supersedes = nil
	}
	for _, a := range adrs {
		if a.SupersededBy == "" {
			continue
		}
		if target, ok := adrs[a.SupersededBy]; ok {
			target.Supersedes = append(target.Supersedes, a.Slug)
		}
	}
	for _, a := range adrs {
		sort.Strings(a.Supersedes)
	}
}
