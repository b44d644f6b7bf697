// Package keyword implements the content-based fallback classifier: it
// extracts the text layer of a PDF and scores it against the same category
// keyword lists used for filename matching.
package keyword

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/mrz"
)

// categoryOrder breaks score ties deterministically.
var categoryOrder = []domain.Category{
	domain.CategoryIdentity,
	domain.CategoryFinancial,
	domain.CategoryEducation,
}

type Classifier struct {
	patterns config.Patterns
	log      *slog.Logger
}

func NewClassifier(patterns config.Patterns, log *slog.Logger) *Classifier {
	return &Classifier{patterns: patterns, log: log}
}

func (c *Classifier) Classify(ctx context.Context, doc domain.DocumentInfo) (domain.Classification, error) {
	if err := ctx.Err(); err != nil {
		return domain.Classification{}, err
	}
	if doc.Extension != ".pdf" {
		return domain.Classification{}, fmt.Errorf("content classification needs a text layer, %s files are not supported", doc.Extension)
	}

	text, err := extractText(doc.Path)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("extract text from %s: %w", doc.Name, err)
	}
	if strings.TrimSpace(text) == "" {
		return domain.Classification{}, fmt.Errorf("%s has no extractable text layer", doc.Name)
	}

	cls := c.classifyText(text)
	c.log.Debug("content_classified", "file", doc.Name, "category", cls.Category, "confidence", cls.Confidence)
	return cls, nil
}

func (c *Classifier) classifyText(text string) domain.Classification {
	// A machine-readable zone in the text layer identifies a passport more
	// reliably than any keyword.
	if _, _, ok := mrz.ScanText(text); ok {
		return domain.Classification{
			Category:   domain.CategoryIdentity,
			Confidence: 0.9,
			Reasoning:  "document text contains a machine-readable zone",
		}
	}

	category, hits, matched := c.score(strings.ToLower(text))
	if hits == 0 {
		return domain.Classification{
			Category:  domain.CategoryUnknown,
			Reasoning: "no category keywords found in document text",
		}
	}

	return domain.Classification{
		Category:   category,
		Confidence: confidenceForHits(hits),
		Reasoning:  "document text mentions: " + strings.Join(matched, ", "),
	}
}

// score counts distinct keyword hits per category and returns the winner.
func (c *Classifier) score(text string) (domain.Category, int, []string) {
	bestCategory := domain.CategoryUnknown
	bestHits := 0
	var bestMatched []string

	for _, category := range categoryOrder {
		hits := 0
		var matched []string
		for _, keyword := range c.patterns[category] {
			if strings.Contains(text, keyword) {
				hits++
				matched = append(matched, keyword)
			}
		}
		if hits > bestHits {
			bestCategory = category
			bestHits = hits
			bestMatched = matched
		}
	}
	return bestCategory, bestHits, bestMatched
}

// confidenceForHits grows with keyword evidence but never reaches the 1.0
// reserved for explicit filename matches.
func confidenceForHits(hits int) float64 {
	confidence := 0.5 + 0.1*float64(hits)
	if confidence > 0.9 {
		confidence = 0.9
	}
	return confidence
}

func extractText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", err
	}
	return sb.String(), nil
}
