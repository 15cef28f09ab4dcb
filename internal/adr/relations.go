package adr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/parser"
)

// Supersede marks superseded as replaced by superseder. The superseded file
// is re-read, gets status superseded and a superseded_by reference, and is
// the only file written. The superseder is re-enhanced so its view shows the
// inbound relation.
// Earlier links in a supersede chain are left as they are.
//
// If only enhancement fails, the change is persisted and an error wrapping
// apperr.ErrRender is returned.
func (r *Repository) Supersede(ctx context.Context, superseded, superseder string) error {
	if superseded == superseder {
		return fmt.Errorf("adr: %q: %w", superseded, apperr.ErrSelfSupersede)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.adrs[superseded]
	if !ok {
		return fmt.Errorf("adr: superseded %q: %w", superseded, apperr.ErrNotFound)
	}
	next, ok := r.adrs[superseder]
	if !ok {
		return fmt.Errorf("adr: superseder %q: %w", superseder, apperr.ErrNotFound)
	}

	current, err := r.store.Read(old.Path)
	if err != nil {
		return fmt.Errorf("adr: supersede %q: %w", superseded, err)
	}
	doc := parser.Parse(current)
	doc.Set(keyStatus, string(models.StatusSuperseded))
	doc.Set(keySupersededBy, superseder)
	data, err := doc.Bytes()
	if err != nil {
		return fmt.Errorf("adr: supersede %q: %w", superseded, err)
	}
	if err := r.store.Write(old.Path, data); err != nil {
		return fmt.Errorf("adr: supersede %q: %w", superseded, err)
	}

	updated := fromFile(old.Package, old.Path, data, old.Date, r.project.Location)
	updated.Date = old.Date
	updated.Body.EnhancedMDX = old.Body.EnhancedMDX
	r.adrs[superseded] = updated
	relink(r.adrs)

	r.logger.Info("repository: superseded",
		slog.String("slug", superseded),
		slog.String("superseded_by", superseder))

	return errors.Join(r.enhance(ctx, updated), r.enhance(ctx, next))
}
