package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/core/ports"
)

// Classification strategies.
const (
	StrategyHybrid       = "hybrid"
	StrategyFilenameOnly = "filename_only"
	StrategyContentOnly  = "content_only"
)

// patternOrder fixes the category precedence for filename matching.
var patternOrder = []domain.Category{
	domain.CategoryIdentity,
	domain.CategoryFinancial,
	domain.CategoryEducation,
}

// classifierStage routes every scanned document into exactly one category
// list. Classification never fails a run: documents that cannot be classified
// land in the unknown bucket with a warning.
type classifierStage struct {
	strategy string
	patterns config.Patterns
	fallback ports.ClassifierCapability
	log      *slog.Logger
}

func newClassifierStage(strategy string, patterns config.Patterns, fallback ports.ClassifierCapability, log *slog.Logger) *classifierStage {
	return &classifierStage{
		strategy: strategy,
		patterns: patterns,
		fallback: fallback,
		log:      log,
	}
}

func (s *classifierStage) Name() string { return "document_classifier" }

func (s *classifierStage) Run(ctx context.Context, pc *Context) error {
	batch := &domain.DocumentBatch{}
	for i := range pc.Scanned {
		doc := &pc.Scanned[i]
		s.classify(ctx, pc, doc)
		batch.Add(*doc)
		s.log.Debug("document_classified",
			"run_id", pc.RunID,
			"file", doc.Name,
			"category", doc.Category,
			"confidence", doc.Confidence,
			"method", doc.Method,
		)
	}
	pc.Batch = batch

	if missing := batch.MissingCategories(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, c := range missing {
			names[i] = string(c)
		}
		pc.AddWarning(fmt.Errorf("%w: %s", domain.ErrMissingCategory, strings.Join(names, ", ")).Error())
	}

	s.log.Info("classification_complete",
		"run_id", pc.RunID,
		"identity", len(batch.Identity),
		"financial", len(batch.Financial),
		"education", len(batch.Education),
		"unknown", len(batch.Unknown),
	)
	return nil
}

func (s *classifierStage) classify(ctx context.Context, pc *Context, doc *domain.DocumentInfo) {
	if s.strategy != StrategyContentOnly {
		if category, ok := s.matchPatterns(doc.Name); ok {
			doc.Category = category
			doc.Confidence = 1.0
			doc.Method = domain.MethodPattern
			return
		}
	}

	if s.strategy != StrategyFilenameOnly && s.fallback != nil {
		cls, err := s.fallback.Classify(ctx, *doc)
		if err != nil {
			pc.AddWarning(fmt.Sprintf("classification of %s failed: %v", doc.Name, err))
			doc.Category = domain.CategoryUnknown
			doc.Confidence = 0
			doc.Method = domain.MethodCapability
			return
		}
		doc.Category = cls.Category
		doc.Confidence = cls.Confidence
		doc.Method = domain.MethodCapability
		return
	}

	doc.Category = domain.CategoryUnknown
	doc.Confidence = 0
}

// matchPatterns tests the lowercased filename against every keyword list in a
// fixed category order; the first match wins.
func (s *classifierStage) matchPatterns(name string) (domain.Category, bool) {
	lower := strings.ToLower(name)
	for _, category := range patternOrder {
		for _, keyword := range s.patterns[category] {
			if strings.Contains(lower, keyword) {
				return category, true
			}
		}
	}
	return domain.CategoryUnknown, false
}
