// Package parser reads and edits the YAML front matter of ADR markdown files
// and extracts titles, wikilinks and tags from their bodies.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Document is a markdown file split into an editable front-matter mapping and
// a body. Key order and unknown keys survive a Parse/Bytes round trip.
type Document struct {
	front *yaml.Node // mapping node; nil when the file has no front matter
	Body  string
}

// Parse splits raw markdown into front matter and body. It never fails:
// missing delimiters or invalid YAML leave the whole input as body so that
// hand-edited files stay readable.
func Parse(data []byte) *Document {
	block, body, ok := splitFrontmatter(data)
	if !ok {
		return &Document{Body: string(data)}
	}

	var node yaml.Node
	if err := yaml.Unmarshal(block, &node); err != nil {
		return &Document{Body: string(data)}
	}
	switch {
	case node.Kind == 0:
		// Empty front matter block.
		return &Document{front: &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, Body: body}
	case node.Kind == yaml.DocumentNode && len(node.Content) == 1 && node.Content[0].Kind == yaml.MappingNode:
		return &Document{front: node.Content[0], Body: body}
	default:
		return &Document{Body: string(data)}
	}
}

// splitFrontmatter separates the YAML block between leading --- delimiter
// lines from the markdown body. ok is false when no complete block exists.
func splitFrontmatter(data []byte) (block []byte, body string, ok bool) {
	s := string(bytes.TrimLeft(data, "\n\r"))
	lines := strings.SplitAfter(s, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r\n") != delim {
		return nil, "", false
	}
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if strings.TrimRight(line, "\r\n") == delim {
			return []byte(s[len(lines[0]):offset]), s[offset+len(line):], true
		}
		offset += len(line)
	}
	return nil, "", false
}

// HasFrontmatter reports whether the document carries a front-matter block.
func (d *Document) HasFrontmatter() bool { return d.front != nil }

// Get returns the scalar value stored under key, or "" when the key is
// absent, null or not a scalar.
func (d *Document) Get(key string) string {
	v := d.lookup(key)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return ""
	}
	return v.Value
}

// Set stores value under key, replacing an existing entry in place or
// appending a new one.
func (d *Document) Set(key, value string) {
	if d.front == nil {
		d.front = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	for i := 0; i+1 < len(d.front.Content); i += 2 {
		if d.front.Content[i].Value == key {
			d.front.Content[i+1] = scalar(value)
			return
		}
	}
	d.front.Content = append(d.front.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		scalar(value),
	)
}

// Strings returns the string items of a sequence stored under key.
func (d *Document) Strings(key string) []string {
	v := d.lookup(key)
	if v == nil || v.Kind != yaml.SequenceNode {
		return nil
	}
	var out []string
	for _, item := range v.Content {
		if item.Kind == yaml.ScalarNode && strings.TrimSpace(item.Value) != "" {
			out = append(out, strings.TrimSpace(item.Value))
		}
	}
	return out
}

func (d *Document) lookup(key string) *yaml.Node {
	if d.front == nil {
		return nil
	}
	for i := 0; i+1 < len(d.front.Content); i += 2 {
		if d.front.Content[i].Value == key {
			return d.front.Content[i+1]
		}
	}
	return nil
}

// MapScalars replaces every scalar value of the front matter (keys excluded)
// with fn applied to it.
func (d *Document) MapScalars(fn func(string) string) {
	if d.front == nil {
		return
	}
	var walk func(n *yaml.Node)
	walk = func(n *yaml.Node) {
		switch n.Kind {
		case yaml.MappingNode:
			for i := 1; i < len(n.Content); i += 2 {
				walk(n.Content[i])
			}
		case yaml.SequenceNode:
			for _, c := range n.Content {
				walk(c)
			}
		case yaml.ScalarNode:
			if v := fn(n.Value); v != n.Value {
				*n = *scalar(v)
			}
		}
	}
	walk(d.front)
}

// Bytes serializes the document back to markdown.
func (d *Document) Bytes() ([]byte, error) {
	if d.front == nil {
		return []byte(d.Body), nil
	}
	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(d.front.Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.front); err != nil {
			return nil, fmt.Errorf("parser: encode front matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("parser: encode front matter: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}

// Title returns the front-matter "title" if present, otherwise the first H1
// heading of the body, otherwise "".
func (d *Document) Title() string {
	if t := strings.TrimSpace(d.Get("title")); t != "" {
		return t
	}
	for _, line := range strings.Split(d.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// Links returns the deduplicated wikilink targets of the body.
func (d *Document) Links() []string { return extractLinks(d.Body) }

// Tags returns front-matter tags followed by inline #tags, deduplicated.
func (d *Document) Tags() []string { return extractTags(d.Body, d.Strings("tags")) }

// scalar builds a value node. Plain style is kept unless the text would read
// back as something other than a string or a date.
func scalar(v string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: v}
	var probe any
	if err := yaml.Unmarshal([]byte(v), &probe); err != nil || probe == nil {
		n.Tag = "!!str"
		return n
	}
	switch probe.(type) {
	case string, time.Time:
	default:
		n.Tag = "!!str"
	}
	return n
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		// [[Target|Alias]] → Target.
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags merges front-matter tags with inline #tags from the body.
func extractTags(body string, front []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range front {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
