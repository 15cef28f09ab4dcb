package api

import (
	"github.com/starford/adrbook/internal/adrservice"
	"github.com/starford/adrbook/internal/index"
)

// CreateADRRequest is the request body for creating an ADR.
type CreateADRRequest struct {
	// Identifier is "<package>/<slug>", "<package>/", "<slug>" or empty.
	Identifier string `json:"identifier" example:"billing/"`
	Title      string `json:"title" example:"Use PostgreSQL" validate:"required"`
}

// SupersedeRequest is the request body for superseding an ADR.
type SupersedeRequest struct {
	Superseded string `json:"superseded" example:"20240101-use-mysql" validate:"required"`
	Superseder string `json:"superseder" example:"20240305-use-postgresql" validate:"required"`
}

// ADRDetail is the full ADR response type (aliased from the domain layer).
type ADRDetail = adrservice.ADRDetail

// ADRListItem is a lightweight item in a list response (aliased from the domain layer).
type ADRListItem = adrservice.ADRListItem

// CreateADRResponse is returned after a creation. Warning is set when the
// ADR was persisted but its enhanced content could not be rendered.
type CreateADRResponse struct {
	*ADRDetail
	Warning string `json:"warning,omitempty"`
}

// SupersedeResponse returns both ends of the new relation.
type SupersedeResponse struct {
	Superseded *ADRDetail `json:"superseded"`
	Superseder *ADRDetail `json:"superseder"`
	Warning    string     `json:"warning,omitempty"`
}

// ADRListResponse wraps paginated ADR listings.
type ADRListResponse struct {
	ADRs  []ADRListItem `json:"adrs" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SlugResponse is the slug preview for a title.
type SlugResponse struct {
	Slug string `json:"slug" example:"billing/20240305-use-postgresql" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the relation graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes" validate:"required"`
	Links []index.GraphLink `json:"links" validate:"required"`
}
