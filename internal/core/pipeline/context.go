package pipeline

import (
	"sync"
	"time"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

// Context is the mutable record threaded through all stages of one run. It is
// owned exclusively by that run; the mutex only covers the error/warning and
// dispatch-failure accumulators, which the dispatcher writes from concurrent
// category tasks.
type Context struct {
	RunID              string
	InputFolder        string
	OutputDir          string
	Format             domain.OutputFormat
	FinancialThreshold float64

	Scanned []domain.DocumentInfo
	Batch   *domain.DocumentBatch

	IdentityRaw  *domain.IdentityExtract
	FinancialRaw *domain.FinancialExtract
	EducationRaw *domain.EducationExtract

	Identity  *domain.IdentitySummary
	Financial *domain.FinancialSummary
	Education *domain.EducationSummary

	CrossValidation *domain.CrossValidationResult

	Elapsed time.Duration
	Result  *domain.UnifiedResult

	mu             sync.Mutex
	errors         []string
	warnings       []string
	dispatchErrors map[domain.Category]string
}

func (c *Context) AddError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
}

func (c *Context) AddWarning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, msg)
}

func (c *Context) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.errors))
	copy(out, c.errors)
	return out
}

func (c *Context) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func (c *Context) SetDispatchError(category domain.Category, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dispatchErrors == nil {
		c.dispatchErrors = make(map[domain.Category]string)
	}
	c.dispatchErrors[category] = msg
}

func (c *Context) DispatchError(category domain.Category) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchErrors[category]
}

// Metadata snapshots the run bookkeeping for the unified result.
func (c *Context) Metadata() domain.RunMetadata {
	md := domain.RunMetadata{
		DocumentsScanned:    len(c.Scanned),
		DocumentsByCategory: map[string]int{},
		Errors:              c.Errors(),
		Warnings:            c.Warnings(),
		ElapsedSeconds:      c.Elapsed.Seconds(),
	}
	if c.Batch != nil {
		md.DocumentsByCategory = c.Batch.CountByCategory()
		md.MissingCategories = c.Batch.MissingCategories()
	}
	return md
}
