// Package adr implements the ADR repository: the in-memory index of every
// decision record in a project, kept consistent with the markdown files that
// back it.
package adr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/enhancer"
	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/parser"
	"github.com/starford/adrbook/internal/project"
	"github.com/starford/adrbook/internal/slug"
	"github.com/starford/adrbook/internal/storage"
	"github.com/starford/adrbook/internal/template"
)

var localSlugRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Repository is the aggregate root over all ADRs of a project.
//
// Slugs are unique across the whole project, packages included. Every
// mutation holds the write lock from the uniqueness check until the file is
// written and the index updated.
type Repository struct {
	store    storage.Provider
	project  *project.Project
	slugs    *slug.Generator
	enhancer enhancer.Enhancer
	logger   *slog.Logger

	mu   sync.RWMutex
	adrs map[string]*models.ADR
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the clock used for slugs and creation dates.
func WithClock(c slug.Clock) Option {
	return func(r *Repository) {
		r.slugs = slug.NewGenerator(c, r.project.Location)
	}
}

// WithEnhancer sets the content enhancer. Defaults to enhancer.Plain.
func WithEnhancer(e enhancer.Enhancer) Option {
	return func(r *Repository) {
		r.enhancer = e
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// New returns an empty repository. Call Load to index the file tree.
func New(store storage.Provider, proj *project.Project, opts ...Option) *Repository {
	r := &Repository{
		store:    store,
		project:  proj,
		enhancer: enhancer.Plain{},
		logger:   slog.Default(),
		adrs:     make(map[string]*models.ADR),
	}
	r.slugs = slug.NewGenerator(slug.SystemClock{}, proj.Location)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open creates a repository and loads it.
func Open(ctx context.Context, store storage.Provider, proj *project.Project, opts ...Option) (*Repository, error) {
	r := New(store, proj, opts...)
	if err := r.Load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Project returns the package table the repository was built with.
func (r *Repository) Project() *project.Project { return r.project }

// Load rebuilds the index from the global and package ADR folders.
// Enhancement failures are logged and leave the enhanced content empty.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := make(map[string]*models.ADR)
	for pkg, folder := range r.project.Folders() {
		metas, err := r.store.List(folder)
		if err != nil {
			return fmt.Errorf("adr: load %s: %w", folder, err)
		}
		for _, m := range metas {
			if err := ctx.Err(); err != nil {
				return err
			}
			if skipFile(path.Base(m.Path)) {
				continue
			}
			data, err := r.store.Read(m.Path)
			if err != nil {
				return fmt.Errorf("adr: load: %w", err)
			}
			a := fromFile(pkg, m.Path, data, m.UpdatedAt, r.project.Location)
			loaded[a.Slug] = a
		}
	}

	for _, a := range loaded {
		if a.SupersededBy != "" {
			if _, ok := loaded[a.SupersededBy]; !ok {
				r.logger.Warn("repository: dangling superseded_by",
					slog.String("slug", a.Slug),
					slog.String("superseded_by", a.SupersededBy))
			}
		}
	}
	relink(loaded)

	for _, a := range loaded {
		if err := r.enhance(ctx, a); err != nil {
			r.logger.Warn("repository: enhance failed",
				slog.String("slug", a.Slug),
				slog.String("error", err.Error()))
		}
	}

	r.adrs = loaded
	r.logger.Debug("repository: loaded", slog.Int("count", len(loaded)))
	return nil
}

// CreateFromTemplate creates a draft ADR. identifier is "<package>/<local>",
// "<package>/", "<local>" or ""; an omitted local slug is generated from
// title. If only enhancement fails, the persisted ADR is returned together
// with an *apperr.RenderError.
func (r *Repository) CreateFromTemplate(ctx context.Context, identifier, title string) (models.ADR, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.ADR{}, fmt.Errorf("adr: title is required: %w", apperr.ErrInvalidInput)
	}
	res, err := r.project.Resolve(identifier)
	if err != nil {
		return models.ADR{}, err
	}
	tpl, err := template.Load(r.store, res.TemplatePath)
	if err != nil {
		return models.ADR{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	local := res.Local
	if local == "" {
		local, err = r.slugs.Generate(title, res.Scope(), r.existsLocked)
		if err != nil {
			return models.ADR{}, err
		}
	} else if err := validateLocalSlug(local); err != nil {
		return models.ADR{}, err
	}

	full := slug.Join(res.Scope(), local)
	if r.existsLocked(full) {
		return models.ADR{}, fmt.Errorf("adr: %q: %w", full, apperr.ErrDuplicateSlug)
	}
	filePath := path.Join(res.ADRFolder, local+".md")
	onDisk, err := r.store.Exists(filePath)
	if err != nil {
		return models.ADR{}, fmt.Errorf("adr: create %q: %w", full, err)
	}
	if onDisk {
		return models.ADR{}, fmt.Errorf("adr: %q: file %s already exists: %w", full, filePath, apperr.ErrDuplicateSlug)
	}

	date := r.slugs.Today()
	raw, err := template.Render(tpl, template.Vars{Title: title, Slug: full, Date: date})
	if err != nil {
		return models.ADR{}, err
	}
	doc := parser.Parse([]byte(raw))
	doc.Set(keyTitle, title)
	doc.Set(keyStatus, string(models.StatusDraft))
	doc.Set(keyDate, date.Format(DateLayout))
	if res.Package != nil {
		doc.Set(keyPackage, res.Package.Name)
	}
	data, err := doc.Bytes()
	if err != nil {
		return models.ADR{}, fmt.Errorf("adr: create %q: %w", full, err)
	}

	if err := r.store.Write(filePath, data); err != nil {
		return models.ADR{}, fmt.Errorf("adr: create %q: %w", full, err)
	}

	a := fromFile(res.Scope(), filePath, data, date, r.project.Location)
	r.adrs[a.Slug] = a
	relink(r.adrs)
	r.logger.Info("repository: created", slog.String("slug", a.Slug), slog.String("path", filePath))

	if err := r.enhance(ctx, a); err != nil {
		return a.Clone(), err
	}
	return a.Clone(), nil
}

// GetBySlug returns a copy of the ADR with the given full slug.
func (r *Repository) GetBySlug(fullSlug string) (models.ADR, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adrs[fullSlug]
	if !ok {
		return models.ADR{}, false
	}
	return a.Clone(), true
}

// GenerateSlug previews the global-scope slug CreateFromTemplate would
// derive from title. It does not reserve the slug.
func (r *Repository) GenerateSlug(title string) (string, error) {
	return r.GenerateSlugIn("", title)
}

// GenerateSlugIn previews the local slug for title inside a package.
func (r *Repository) GenerateSlugIn(pkg, title string) (string, error) {
	if pkg != "" {
		if _, ok := r.project.Package(pkg); !ok {
			return "", fmt.Errorf("adr: package %q: %w", pkg, apperr.ErrUnknownPackage)
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slugs.Generate(title, pkg, r.existsLocked)
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status  models.Status
	Package string
}

// List returns copies of the matching ADRs ordered by date, then slug.
func (r *Repository) List(f Filter) []models.ADR {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ADR, 0, len(r.adrs))
	for _, a := range r.adrs {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Package != "" && a.Package != f.Package {
			continue
		}
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// Len returns the number of indexed ADRs.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adrs)
}

func (r *Repository) existsLocked(fullSlug string) bool {
	_, ok := r.adrs[fullSlug]
	return ok
}

// enhance refreshes a.Body.EnhancedMDX. On failure the previous content is
// kept and a RenderError returned.
func (r *Repository) enhance(ctx context.Context, a *models.ADR) error {
	out, err := r.enhancer.Enhance(ctx, a.Body.Raw, enhancer.Metadata{
		Slug:         a.Slug,
		Title:        a.Title,
		Status:       a.Status,
		Package:      a.Package,
		Date:         a.Date,
		SupersededBy: a.SupersededBy,
		Supersedes:   append([]string(nil), a.Supersedes...),
	})
	if err != nil {
		return &apperr.RenderError{Slug: a.Slug, Err: err}
	}
	a.Body.EnhancedMDX = out
	return nil
}

func validateLocalSlug(local string) error {
	err := validation.Validate(local,
		validation.Length(1, 200),
		validation.Match(localSlugRe),
	)
	if err != nil {
		return fmt.Errorf("adr: slug %q: %v: %w", local, err, apperr.ErrInvalidSlug)
	}
	return nil
}

// IsPartial reports whether err only signals stale enhanced content after a
// successful mutation.
func IsPartial(err error) bool {
	return err != nil && errors.Is(err, apperr.ErrRender)
}
