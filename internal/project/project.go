// Package project maps ADR identifiers to packages, folders and templates.
//
// The package table is built once by Load and never mutated afterwards, so a
// *Project may be shared between goroutines without locking.
package project

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/adrbook/internal/apperr"
	"github.com/starford/adrbook/internal/storage"
)

// TemplateFile is the template file name looked up in every ADR folder.
const TemplateFile = "template.md"

// Package is a named sub-scope with its own ADR folder.
type Package struct {
	Name      string
	Path      string
	ADRFolder string
	// TemplatePath is the package template, or the global one when the
	// package has none. Empty means the built-in default.
	TemplatePath string
}

// Project is the resolved package table of one project.
type Project struct {
	Name           string
	Location       *time.Location
	ADRFolder      string
	GlobalTemplate string

	packages map[string]*Package
	order    []string
}

// Resolution is the outcome of resolving a creation identifier.
type Resolution struct {
	Package      *Package // nil for global scope
	Local        string   // local slug, empty when omitted
	ADRFolder    string
	TemplatePath string
}

// Scope returns the package name, or "" for global scope.
func (r Resolution) Scope() string {
	if r.Package == nil {
		return ""
	}
	return r.Package.Name
}

// Load builds the package table from cfg, checking which template files
// exist in store.
func Load(store storage.Provider, cfg *Config) (*Project, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	s := cfg.Project
	p := &Project{
		Name:      s.Name,
		Location:  s.Location(),
		ADRFolder: cleanDir(s.ADRFolder),
		packages:  make(map[string]*Package, len(s.Packages)),
	}

	global, err := templateIn(store, p.ADRFolder)
	if err != nil {
		return nil, err
	}
	p.GlobalTemplate = global

	for _, pc := range s.Packages {
		pkg := &Package{
			Name:         pc.Name,
			Path:         cleanDir(pc.Path),
			ADRFolder:    cleanDir(pc.ADRFolder),
			TemplatePath: global,
		}
		own, err := templateIn(store, pkg.ADRFolder)
		if err != nil {
			return nil, err
		}
		if own != "" {
			pkg.TemplatePath = own
		}
		p.packages[pkg.Name] = pkg
		p.order = append(p.order, pkg.Name)
	}
	return p, nil
}

func templateIn(store storage.Provider, dir string) (string, error) {
	candidate := path.Join(dir, TemplateFile)
	ok, err := store.Exists(candidate)
	if err != nil {
		return "", fmt.Errorf("project: %w", err)
	}
	if !ok {
		return "", nil
	}
	return candidate, nil
}

// Resolve splits identifier into an optional package prefix and a local
// slug. "<package>/<local>", "<package>/", "<local>" and "" are accepted.
func (p *Project) Resolve(identifier string) (Resolution, error) {
	identifier = strings.TrimSpace(identifier)
	scope, local, qualified := strings.Cut(identifier, "/")
	if !qualified {
		return Resolution{
			Local:        identifier,
			ADRFolder:    p.ADRFolder,
			TemplatePath: p.GlobalTemplate,
		}, nil
	}
	pkg, ok := p.packages[scope]
	if !ok {
		return Resolution{}, fmt.Errorf("project: package %q: %w", scope, apperr.ErrUnknownPackage)
	}
	return Resolution{
		Package:      pkg,
		Local:        local,
		ADRFolder:    pkg.ADRFolder,
		TemplatePath: pkg.TemplatePath,
	}, nil
}

// Package returns the named package.
func (p *Project) Package(name string) (*Package, bool) {
	pkg, ok := p.packages[name]
	return pkg, ok
}

// Packages returns the packages in declaration order.
func (p *Project) Packages() []*Package {
	out := make([]*Package, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.packages[name])
	}
	return out
}

// Folders returns every ADR folder keyed by package name ("" is global).
func (p *Project) Folders() map[string]string {
	out := map[string]string{"": p.ADRFolder}
	for name, pkg := range p.packages {
		out[name] = pkg.ADRFolder
	}
	return out
}
