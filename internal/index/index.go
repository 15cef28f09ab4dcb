package index

import "github.com/starford/adrbook/internal/models"

// ADRIndex defines the interface for ADR indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type ADRIndex interface {
	UpsertADR(a models.ADR) error
	DeleteADR(slug string) error
	GetADR(slug string) (*ADRRow, error)
	ListADRs(q ListQuery) ([]ADRRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Backlinks(target string) ([]Backlink, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ADRIndex at compile time.
var _ ADRIndex = (*DB)(nil)
