package index

import (
	"log/slog"

	"github.com/starford/adrbook/internal/models"
	"github.com/starford/adrbook/internal/storage"
)

// Sync brings the index up to date with a repository snapshot:
//   - new/changed ADRs are upserted
//   - ADRs missing from the snapshot are deleted from the index
//
// Individual failures are logged and skipped. Only failing to read the
// current checksums aborts the pass.
func Sync(db ADRIndex, adrs []models.ADR, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(adrs))
	for _, a := range adrs {
		live[a.Slug] = struct{}{}

		if cs, ok := checksums[a.Slug]; ok && cs == storage.Checksum([]byte(a.Body.Raw)) {
			continue
		}
		if err := db.UpsertADR(a); err != nil {
			logger.Warn("sync: index failed", slog.String("slug", a.Slug), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("slug", a.Slug))
		}
	}

	// Remove stale entries.
	for s := range checksums {
		if _, ok := live[s]; !ok {
			if err := db.DeleteADR(s); err != nil {
				logger.Warn("sync: delete failed", slog.String("slug", s), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("slug", s))
			}
		}
	}

	return nil
}
