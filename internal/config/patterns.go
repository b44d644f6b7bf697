package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

// Patterns maps a document category to the lowercase filename keywords that
// classify it without consulting the fallback capability.
type Patterns map[domain.Category][]string

// DefaultPatterns returns the built-in keyword lists.
func DefaultPatterns() Patterns {
	return Patterns{
		domain.CategoryIdentity: {
			"passport", "pp_", "identity", "id_card", "travel_document",
		},
		domain.CategoryFinancial: {
			"bank", "statement", "balance", "financial", "account",
			"certificate_of_balance", "bank_letter",
		},
		domain.CategoryEducation: {
			"transcript", "degree", "diploma", "certificate", "mark_sheet",
			"marksheet", "grade", "academic", "semester", "education",
			"qualification", "bachelor", "master", "phd",
		},
	}
}

// LoadPatterns reads category keyword lists from a YAML file of the form
//
//	identity: [passport, id_card]
//	financial: [bank, statement]
//	education: [diploma]
//
// An empty path returns the defaults.
func LoadPatterns(path string) (Patterns, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns file: %w", err)
	}

	var parsed map[string][]string
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse patterns file: %w", err)
	}

	patterns := Patterns{}
	for key, words := range parsed {
		switch category := domain.Category(key); category {
		case domain.CategoryIdentity, domain.CategoryFinancial, domain.CategoryEducation:
			patterns[category] = words
		default:
			return nil, fmt.Errorf("patterns file: unknown category %q", key)
		}
	}
	return patterns, nil
}
