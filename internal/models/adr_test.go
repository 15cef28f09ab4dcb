package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestADR_MarshalGlobalPackageIsNull(t *testing.T) {
	data, err := json.Marshal(ADR{Slug: "a", Status: StatusDraft})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"package":null`) {
		t.Errorf("json = %s, want package null", data)
	}

	data, _ = json.Marshal(ADR{Slug: "pkg/a", Package: "pkg"})
	if !strings.Contains(string(data), `"package":"pkg"`) {
		t.Errorf("json = %s, want package pkg", data)
	}
}

func TestADR_LocalSlug(t *testing.T) {
	if got := (ADR{Slug: "pkg/x", Package: "pkg"}).LocalSlug(); got != "x" {
		t.Errorf("LocalSlug = %q", got)
	}
	if got := (ADR{Slug: "x"}).LocalSlug(); got != "x" {
		t.Errorf("LocalSlug = %q", got)
	}
}

func TestADR_CloneDetachesSupersedes(t *testing.T) {
	a := ADR{Supersedes: []string{"x"}}
	c := a.Clone()
	c.Supersedes[0] = "y"
	if a.Supersedes[0] != "x" {
		t.Error("clone shares Supersedes backing array")
	}
}
