// Package adrservice coordinates the ADR repository, the search index and
// change notifications. HTTP and MCP handlers go through it.
package adrservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/index"
	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/slug"
	"github.com/starford/adrbook/internal/sse"
)

// Publisher receives ADR change notifications.
type Publisher interface {
	PublishADREvent(kind, slug string)
}

type nopPublisher struct{}

func (nopPublisher) PublishADREvent(string, string) {}

// ADRDetail is the full representation of an ADR.
type ADRDetail struct {
	ADR       models.ADR       `json:"adr"`
	Backlinks []index.Backlink `json:"backlinks"`
}

// ADRListItem is a lightweight item in a list response.
type ADRListItem struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	Package      string   `json:"package,omitempty"`
	SupersededBy string   `json:"supersededBy,omitempty"`
	Date         string   `json:"date"`
	Tags         []string `json:"tags"`
}

// Service coordinates repository, index and event operations.
type Service struct {
	repo   *adr.Repository
	db     index.ADRIndex
	events Publisher
	logger *slog.Logger
}

// NewService creates a new ADR service. A nil events publisher discards
// notifications.
func NewService(repo *adr.Repository, db index.ADRIndex, events Publisher, logger *slog.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, db: db, events: events, logger: logger}
}

// Repository returns the underlying repository.
func (s *Service) Repository() *adr.Repository { return s.repo }

// CreateADR creates an ADR from its scope template and indexes it. A render
// failure is returned alongside the created ADR.
func (s *Service) CreateADR(ctx context.Context, identifier, title string) (*ADRDetail, error) {
	a, err := s.repo.CreateFromTemplate(ctx, identifier, title)
	if err != nil && !adr.IsPartial(err) {
		return nil, err
	}
	s.index(a)
	s.events.PublishADREvent(sse.KindCreated, a.Slug)
	return &ADRDetail{ADR: a, Backlinks: []index.Backlink{}}, err
}

// GetADR returns an ADR with its inbound links.
func (s *Service) GetADR(_ context.Context, fullSlug string) (*ADRDetail, error) {
	a, ok := s.repo.GetBySlug(fullSlug)
	if !ok {
		return nil, fmt.Errorf("adr %q: %w", fullSlug, apperr.ErrNotFound)
	}
	bl, err := s.db.Backlinks(fullSlug)
	if err != nil {
		return nil, err
	}
	return &ADRDetail{ADR: a, Backlinks: nonNilSlice(bl)}, nil
}

// GenerateSlug previews the full slug a creation in pkg ("" for global
// scope) would receive for title.
func (s *Service) GenerateSlug(_ context.Context, pkg, title string) (string, error) {
	local, err := s.repo.GenerateSlugIn(pkg, title)
	if err != nil {
		return "", err
	}
	return slug.Join(pkg, local), nil
}

// Supersede marks superseded as replaced by superseder and re-indexes both.
func (s *Service) Supersede(ctx context.Context, superseded, superseder string) error {
	err := s.repo.Supersede(ctx, superseded, superseder)
	if err != nil && !adr.IsPartial(err) {
		return err
	}
	for _, sl := range []string{superseded, superseder} {
		if a, ok := s.repo.GetBySlug(sl); ok {
			s.index(a)
		}
		s.events.PublishADREvent(sse.KindUpdated, sl)
	}
	return err
}

// ListADRs returns one page of indexed ADRs and the total number of matches.
func (s *Service) ListADRs(_ context.Context, q index.ListQuery) ([]ADRListItem, int, error) {
	rows, total, err := s.db.ListADRs(q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]ADRListItem, len(rows))
	for i, r := range rows {
		items[i] = ADRListItem{
			Slug:         r.Slug,
			Title:        r.Title,
			Status:       r.Status,
			Package:      r.Package,
			SupersededBy: r.SupersededBy,
			Date:         r.Date,
			Tags:         nonNilSlice(r.Tags),
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", apperr.ErrInvalidInput)
	}
	res, err := s.db.Search(query, limit)
	return nonNilSlice(res), err
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns every ADR that links to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]index.Backlink, error) {
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// Sync brings the index in line with the repository.
func (s *Service) Sync(_ context.Context) error {
	return index.Sync(s.db, s.repo.List(adr.Filter{}), s.logger)
}

// Reload re-reads the ADR folders, re-syncs the index and notifies
// subscribers. It is driven by the file watcher.
func (s *Service) Reload(ctx context.Context) error {
	if err := s.repo.Load(ctx); err != nil {
		return err
	}
	if err := s.Sync(ctx); err != nil {
		return err
	}
	s.logger.Info("service: reloaded", slog.Int("count", s.repo.Len()))
	s.events.PublishADREvent(sse.KindReloaded, "")
	return nil
}

// index upserts a into the search index. The index is derived data, so
// failures are logged and left for the next Sync.
func (s *Service) index(a models.ADR) {
	if err := s.db.UpsertADR(a); err != nil {
		s.logger.Warn("service: index failed", slog.String("slug", a.Slug), slog.String("error", err.Error()))
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
