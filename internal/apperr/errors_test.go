package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestRenderError_MatchesSentinelAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("create: %w", &RenderError{Slug: "a", Err: cause})

	if !errors.Is(err, ErrRender) {
		t.Error("expected errors.Is(err, ErrRender)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	var re *RenderError
	if !errors.As(err, &re) || re.Slug != "a" {
		t.Errorf("errors.As = %+v", re)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("render error must not match ErrNotFound")
	}
}
