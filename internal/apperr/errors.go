// Package apperr defines the error taxonomy shared by the ADR core and its surfaces.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnknownPackage = errors.New("unknown package")
	ErrDuplicateSlug  = errors.New("duplicate slug")
	ErrSelfSupersede  = errors.New("an ADR cannot supersede itself")
	ErrInvalidSlug    = errors.New("invalid slug")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRender         = errors.New("render failed")
)

// RenderError reports that the content enhancer failed for an ADR whose
// structural change was already persisted. The displayed content of Slug may
// be stale or missing.
type RenderError struct {
	Slug string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Slug, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrRender) match any RenderError.
func (e *RenderError) Is(target error) bool { return target == ErrRender }
