package project

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	pkgconfig "github.com/starford/adrbook/pkg/config"
)

// FileName is the project file looked up in the project root.
const FileName = ".adrbook.yml"

var packageNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Config is the content of the project file.
type Config struct {
	Project Settings `yaml:"project"`
}

// Settings describes the project and its packages.
type Settings struct {
	Name      string          `yaml:"name"`
	TZ        string          `yaml:"tz"`
	ADRFolder string          `yaml:"adr_folder"`
	Packages  []PackageConfig `yaml:"packages"`
}

// PackageConfig declares one sub-package.
type PackageConfig struct {
	Name      string `yaml:"name"`
	Path      string `yaml:"path"`
	ADRFolder string `yaml:"adr_folder"`
}

// Validate validates the project file.
func (c *Config) Validate() error {
	return c.Project.Validate()
}

// Validate validates project settings, including package uniqueness and
// distinct ADR folders.
func (s *Settings) Validate() error {
	if err := validation.ValidateStruct(s,
		validation.Field(&s.Name, validation.Required),
		validation.Field(&s.ADRFolder, validation.Required, validation.By(relativePath)),
		validation.Field(&s.TZ, validation.By(loadableTZ)),
		validation.Field(&s.Packages),
	); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(s.Packages))
	folders := map[string]string{cleanDir(s.ADRFolder): "global scope"}
	for _, p := range s.Packages {
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("packages: duplicate package name %q", p.Name)
		}
		names[p.Name] = struct{}{}
		dir := cleanDir(p.ADRFolder)
		if owner, dup := folders[dir]; dup {
			return fmt.Errorf("packages: %q shares adr_folder %q with %s", p.Name, dir, owner)
		}
		folders[dir] = fmt.Sprintf("package %q", p.Name)
	}
	return nil
}

// Validate validates a package declaration.
func (p PackageConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Match(packageNameRe)),
		validation.Field(&p.Path, validation.Required, validation.By(relativePath)),
		validation.Field(&p.ADRFolder, validation.Required, validation.By(relativePath)),
	)
}

// Location returns the configured time zone, time.Local when unset.
func (s *Settings) Location() *time.Location {
	if s.TZ == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.TZ)
	if err != nil {
		return time.Local
	}
	return loc
}

// NewDefaultConfig returns a project with a single global ADR folder.
func NewDefaultConfig() *Config {
	return &Config{
		Project: Settings{
			Name:      "adrbook",
			ADRFolder: "docs/adr",
		},
	}
}

// LoadConfig reads FileName from root. A missing file yields the defaults.
func LoadConfig(root string) (*Config, error) {
	cfg := NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(filepath.Join(root, FileName), cfg); err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	return cfg, nil
}

func relativePath(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	clean := cleanDir(s)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must be a path inside the project root")
	}
	return nil
}

func loadableTZ(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
}

// cleanDir normalises a configured folder to a slash-separated relative path.
func cleanDir(dir string) string {
	return path.Clean(filepath.ToSlash(dir))
}
