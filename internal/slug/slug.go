// Package slug derives date-prefixed, path-safe ADR identifiers from titles.
package slug

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/adrbook/internal/apperr"
)

// DateLayout is the date prefix of generated slugs.
const DateLayout = "20060102"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now implements Clock.
func (c FixedClock) Now() time.Time { return time.Time(c) }

// Generator builds slugs relative to a clock and time zone.
type Generator struct {
	clock Clock
	loc   *time.Location
}

// NewGenerator returns a Generator. A nil loc means time.Local.
func NewGenerator(clock Clock, loc *time.Location) *Generator {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Generator{clock: clock, loc: loc}
}

// Today returns the current date in the generator's time zone.
func (g *Generator) Today() time.Time {
	y, m, d := g.clock.Now().In(g.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, g.loc)
}

// Generate returns the first free slug for title in scope (a package name, or
// "" for global scope). exists is consulted for every candidate full slug and
// must not have side effects.
func (g *Generator) Generate(title, scope string, exists func(fullSlug string) bool) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("slug: title is required: %w", apperr.ErrInvalidInput)
	}
	base := g.Today().Format(DateLayout)
	if k := Kebab(title); k != "" {
		base += "-" + k
	}

	candidate := base
	for n := 2; exists(Join(scope, candidate)); n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	return candidate, nil
}

// Join composes a full slug from a package scope and a local slug.
func Join(scope, local string) string {
	if scope == "" {
		return local
	}
	return scope + "/" + local
}

// Kebab lowercases s, strips diacritics and collapses every run of
// characters outside [a-z0-9] into a single hyphen.
func Kebab(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
