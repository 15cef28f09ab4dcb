// Package template renders new ADR documents from markdown templates.
//
// Templates recognise three placeholders, {{title}}, {{slug}} and {{date}}.
// Names are case-insensitive and may be padded with spaces inside the braces.
// Anything else between double braces is left untouched.
package template

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/starford/adrbook/internal/parser"
	"github.com/starford/adrbook/internal/storage"
)

// DateLayout is how {{date}} is rendered.
const DateLayout = "2006-01-02"

// Default is used when neither the package nor the project provides a
// template file.
const Default = `---
title: "{{title}}"
---

# {{title}}

## Context and Problem Statement

Describe the context and problem statement.

## Considered Options

- Option 1
- Option 2

## Decision Outcome

Chosen option: "Option 1", because it comes out best.

### Consequences

- Good, because ...
- Bad, because ...
`

var (
	placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_]+)\s*\}\}`)
	// A front-matter value, or list item, that starts with "{{".
	bareValueRe = regexp.MustCompile(`^(\s*(?:- +)?(?:[^\s:#{'"-][^:#]*:[ \t]+)?)(\{\{.*?)[ \t]*$`)
)

// Vars are the values substituted into a template.
type Vars struct {
	Title string
	Slug  string
	Date  time.Time
}

func (v Vars) lookup(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "title":
		return v.Title, true
	case "slug":
		return v.Slug, true
	case "date":
		return v.Date.Format(DateLayout), true
	}
	return "", false
}

// Substitute replaces recognised placeholders in s.
func Substitute(s string, v Vars) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if val, ok := v.lookup(name); ok {
			return val
		}
		return m
	})
}

// Render produces the raw markdown of a new ADR. Front-matter values are
// substituted one scalar at a time so that a title containing YAML syntax
// cannot corrupt the block; the body is substituted as plain text.
func Render(tpl string, v Vars) (string, error) {
	doc := parser.Parse([]byte(quoteBareValues(tpl)))
	if !doc.HasFrontmatter() {
		return Substitute(tpl, v), nil
	}
	doc.MapScalars(func(s string) string { return Substitute(s, v) })
	doc.Body = Substitute(doc.Body, v)
	out, err := doc.Bytes()
	if err != nil {
		return "", fmt.Errorf("template: render: %w", err)
	}
	return string(out), nil
}

// quoteBareValues single-quotes front-matter values that begin with a
// placeholder. Unquoted, YAML reads "{{slug}}" as a nested flow mapping.
func quoteBareValues(tpl string) string {
	body := strings.TrimLeft(tpl, "\n\r")
	lead := tpl[:len(tpl)-len(body)]
	lines := strings.SplitAfter(body, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != "---" {
		return tpl
	}
	for i := 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r\n")
		if line == "---" {
			break
		}
		m := bareValueRe.FindStringSubmatch(line)
		if m == nil || !strings.ContainsAny(m[1], ":-") {
			continue
		}
		val, comment := m[2], ""
		if j := strings.Index(val, " #"); j >= 0 {
			val, comment = strings.TrimRight(val[:j], " \t"), val[j:]
		}
		quoted := m[1] + "'" + strings.ReplaceAll(val, "'", "''") + "'" + comment
		lines[i] = quoted + lines[i][len(line):]
	}
	return lead + strings.Join(lines, "")
}

// Load reads the template at path. An empty path, or a file that has
// disappeared since the project was loaded, yields Default.
func Load(store storage.Provider, path string) (string, error) {
	if path == "" {
		return Default, nil
	}
	data, err := store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default, nil
		}
		return "", fmt.Errorf("template: load %s: %w", path, err)
	}
	return string(data), nil
}
