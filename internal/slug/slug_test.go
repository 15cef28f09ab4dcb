package slug

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/adrbook/internal/apperr"
)

var day = time.Date(2024, time.March, 5, 23, 30, 0, 0, time.UTC)

func none(string) bool { return false }

func TestKebab(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello World", "hello-world"},
		{"  Use PostgreSQL 16!  ", "use-postgresql-16"},
		{"Émile's café — déjà vu", "emile-s-cafe-deja-vu"},
		{"snake_case and/slashes", "snake-case-and-slashes"},
		{"---", ""},
		{"Multiple   spaces\tand\ttabs", "multiple-spaces-and-tabs"},
	}
	for _, c := range cases {
		if got := Kebab(c.in); got != c.want {
			t.Errorf("Kebab(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestGenerate_DatePrefix(t *testing.T) {
	g := NewGenerator(FixedClock(day), time.UTC)
	got, err := g.Generate("Duplicate Test", "", none)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "20240305-duplicate-test" {
		t.Errorf("slug = %q", got)
	}
}

func TestGenerate_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	g := NewGenerator(FixedClock(day), tokyo)
	got, _ := g.Generate("x", "", none)
	if got != "20240306-x" {
		t.Errorf("slug = %q, want next day in JST", got)
	}
}

func TestGenerate_LowestFreeSuffix(t *testing.T) {
	g := NewGenerator(FixedClock(day), time.UTC)
	taken := map[string]bool{
		"20240305-a":   true,
		"20240305-a-2": true,
		"20240305-a-4": true,
	}
	got, err := g.Generate("A", "", func(s string) bool { return taken[s] })
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "20240305-a-3" {
		t.Errorf("slug = %q, want 20240305-a-3", got)
	}
}

func TestGenerate_ScopeQualifiesLookup(t *testing.T) {
	g := NewGenerator(FixedClock(day), time.UTC)
	var asked []string
	got, _ := g.Generate("B", "pkg", func(s string) bool {
		asked = append(asked, s)
		return s == "pkg/20240305-b"
	})
	if got != "20240305-b-2" {
		t.Errorf("slug = %q", got)
	}
	if len(asked) != 2 || asked[0] != "pkg/20240305-b" || asked[1] != "pkg/20240305-b-2" {
		t.Errorf("lookups = %v", asked)
	}
}

func TestGenerate_PunctuationOnlyTitle(t *testing.T) {
	g := NewGenerator(FixedClock(day), time.UTC)
	got, err := g.Generate("???", "", none)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "20240305" {
		t.Errorf("slug = %q", got)
	}
}

func TestGenerate_EmptyTitle(t *testing.T) {
	g := NewGenerator(FixedClock(day), time.UTC)
	if _, err := g.Generate("   ", "", none); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestJoin(t *testing.T) {
	if Join("", "a") != "a" || Join("p", "a") != "p/a" {
		t.Error("Join mismatch")
	}
}
