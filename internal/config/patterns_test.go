package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

func TestLoadPatternsDefaults(t *testing.T) {
	patterns, err := LoadPatterns("")
	if err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}
	if len(patterns[domain.CategoryIdentity]) == 0 {
		t.Error("default identity patterns are empty")
	}
}

func TestLoadPatternsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := "identity: [passport]\nfinancial: [bank, iban]\neducation: [diploma]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	patterns, err := LoadPatterns(path)
	if err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}
	if got := patterns[domain.CategoryFinancial]; len(got) != 2 || got[1] != "iban" {
		t.Errorf("financial patterns = %v", got)
	}
}

func TestLoadPatternsRejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(path, []byte("medical: [xray]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPatterns(path); err == nil {
		t.Error("unknown category accepted")
	}
}

func TestLoadPatternsMissingFile(t *testing.T) {
	_, err := LoadPatterns(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped os.ErrNotExist", err)
	}
}
