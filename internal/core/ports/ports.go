package ports

import (
	"context"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

// Extraction capabilities, one per document category. Implementations wrap
// external backends; they must be safely callable with an empty or
// single-file input and must not mutate the provided files.

type IdentityCapability interface {
	Process(ctx context.Context, files []string) (*domain.IdentityExtract, error)
}

type FinancialCapability interface {
	Process(ctx context.Context, files []string, thresholdEUR float64) (*domain.FinancialExtract, error)
}

type EducationCapability interface {
	Process(ctx context.Context, files []string) (*domain.EducationExtract, error)
}

// ClassifierCapability is the fallback used when filename patterns fail.
type ClassifierCapability interface {
	Classify(ctx context.Context, doc domain.DocumentInfo) (domain.Classification, error)
}

// ReportWriter persists a unified result to a destination directory and
// returns the path it wrote.
type ReportWriter interface {
	Write(ctx context.Context, result *domain.UnifiedResult, destDir string) (string, error)
}

type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id string) (*domain.Run, error)
	MarkProcessing(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result *domain.UnifiedResult) error
	Fail(ctx context.Context, id string, errMessage string) error
}

type RunQueue interface {
	PublishRunRequested(ctx context.Context, req domain.RunRequest) error
	SubscribeRunRequested(ctx context.Context, handler func(context.Context, domain.RunRequest) error) error
}
