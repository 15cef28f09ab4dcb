package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("ADRBOOK_TEST_NAME", "from-env")
	p := writeFile(t, "name: ${ADRBOOK_TEST_NAME}\n")

	cfg := &sample{Port: 8080}
	if err := Load(p, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" || cfg.Port != 8080 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationError(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	err := Load(p, &sample{})
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadIfExists_Missing(t *testing.T) {
	cfg := &sample{Port: 1}
	found, err := LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), cfg)
	if err != nil || found {
		t.Errorf("found = %v, err = %v", found, err)
	}

	found, err = LoadIfExists(filepath.Join(t.TempDir(), "nope.yaml"), &sample{})
	if err == nil || found {
		t.Errorf("defaults must still be validated, found = %v, err = %v", found, err)
	}
}
