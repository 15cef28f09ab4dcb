// Package storage defines the project file-system abstraction.
package storage

import "github.com/starford/adrbook/internal/models"

// Provider is the interface for project file operations.
// All paths are relative to the project root and use forward slashes.
type Provider interface {
	// List returns metadata for the .md files directly inside dir.
	// A missing dir yields an empty list.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
}
