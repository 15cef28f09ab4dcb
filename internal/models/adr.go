// Package models defines the domain types for adrbook.
package models

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle state of an ADR.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusProposed   Status = "proposed"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusDeprecated Status = "deprecated"
	StatusSuperseded Status = "superseded"
)

// ADR is one Architecture Decision Record backed by a markdown file.
type ADR struct {
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Status       Status    `json:"status"`
	Package      string    `json:"package"`
	SupersededBy string    `json:"supersededBy,omitempty"`
	Supersedes   []string  `json:"supersedes,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Date         time.Time `json:"date"`
	Path         string    `json:"path"`
	Body         Body      `json:"body"`
}

// Body holds the authoritative markdown and its derived rendering.
type Body struct {
	Raw         string `json:"raw"`
	EnhancedMDX string `json:"enhancedMdx"`
}

// LocalSlug returns the slug without its package prefix.
func (a ADR) LocalSlug() string {
	if a.Package == "" {
		return a.Slug
	}
	return a.Slug[len(a.Package)+1:]
}

// Clone returns a deep copy safe to hand out of a locked index.
func (a ADR) Clone() ADR {
	if a.Supersedes != nil {
		a.Supersedes = append([]string(nil), a.Supersedes...)
	}
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	return a
}

// MarshalJSON encodes a global-scope ADR with "package": null.
func (a ADR) MarshalJSON() ([]byte, error) {
	type plain ADR
	var pkg *string
	if a.Package != "" {
		pkg = &a.Package
	}
	return json.Marshal(struct {
		plain
		Package *string `json:"package"`
	}{plain(a), pkg})
}

// FileMetadata is a lightweight description of a markdown file on disk.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
