// Package pipeline implements the six-stage admission document evaluation
// run: scan, classify, dispatch, normalize, cross-validate, generate output.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/core/ports"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/resilience"
	"github.com/mkorchagin/admission-analyzer/internal/observability/metrics"
)

// Stage is one step of a run. Stages communicate exclusively through the run
// context; a returned error aborts the run.
type Stage interface {
	Name() string
	Run(ctx context.Context, pc *Context) error
}

// Analyzer executes complete evaluation runs. Safe for concurrent use: each
// Process call builds its own stage instances around a fresh run context,
// while the admission gate serializes the dispatch phases across calls.
type Analyzer struct {
	cfg         config.Config
	patterns    config.Patterns
	caps        Capabilities
	gate        *Gate
	exec        *resilience.Executor
	jsonWriter  ports.ReportWriter
	excelWriter ports.ReportWriter
	log         *slog.Logger
	metrics     *metrics.PipelineMetrics
	service     string
}

func NewAnalyzer(
	cfg config.Config,
	patterns config.Patterns,
	caps Capabilities,
	gate *Gate,
	exec *resilience.Executor,
	jsonWriter, excelWriter ports.ReportWriter,
	log *slog.Logger,
	m *metrics.PipelineMetrics,
	service string,
) *Analyzer {
	if gate == nil {
		gate = NewGate(cfg.BackendRateLimit, cfg.BackendRateBurst)
	}
	return &Analyzer{
		cfg:         cfg,
		patterns:    patterns,
		caps:        caps,
		gate:        gate,
		exec:        exec,
		jsonWriter:  jsonWriter,
		excelWriter: excelWriter,
		log:         log,
		metrics:     m,
		service:     service,
	}
}

// Process runs the full pipeline for one request. The returned result is also
// available when individual categories failed; a non-nil error means the run
// itself could not complete.
func (a *Analyzer) Process(ctx context.Context, req domain.RunRequest, progress domain.ProgressFunc) (*domain.UnifiedResult, error) {
	start := time.Now()

	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	threshold := req.FinancialThreshold
	if threshold <= 0 {
		threshold = a.cfg.FinancialThresholdEUR
	}
	format := req.Format
	if format == "" {
		format = domain.OutputFormat(a.cfg.OutputFormat)
	}

	pc := &Context{
		RunID:              req.RunID,
		InputFolder:        req.InputFolder,
		OutputDir:          req.OutputDir,
		Format:             format,
		FinancialThreshold: threshold,
	}

	stages := a.buildStages(pc, progress)
	total := len(stages)

	if a.metrics != nil {
		a.metrics.StartRun()
	}
	a.log.Info("run_started", "run_id", pc.RunID, "folder", pc.InputFolder, "format", format)

	var runErr error
	for i, stage := range stages {
		emitProgress(progress, a.log, domain.ProgressUpdate{
			StageName:   stage.Name(),
			StageIndex:  i + 1,
			TotalStages: total,
			Message:     "started",
		})

		stageStart := time.Now()
		err := stage.Run(ctx, pc)
		if a.metrics != nil {
			a.metrics.ObserveStage(a.service, stage.Name(), time.Since(stageStart))
		}
		if err != nil {
			runErr = err
			a.log.Error("stage_failed", "run_id", pc.RunID, "stage", stage.Name(), "error", err)
			break
		}
	}

	pc.Elapsed = time.Since(start)
	if a.metrics != nil {
		a.metrics.FinishRun(a.service, pc.Elapsed, runErr)
	}

	if runErr != nil {
		a.log.Error("run_failed", "run_id", pc.RunID, "elapsed", pc.Elapsed.String(), "error", runErr)
		return nil, runErr
	}

	// Metadata was assembled before the final timing was known.
	pc.Result.Metadata.ElapsedSeconds = pc.Elapsed.Seconds()

	a.log.Info("run_completed",
		"run_id", pc.RunID,
		"elapsed", pc.Elapsed.String(),
		"errors", len(pc.Result.Metadata.Errors),
		"warnings", len(pc.Result.Metadata.Warnings),
	)
	return pc.Result, nil
}

func (a *Analyzer) buildStages(pc *Context, progress domain.ProgressFunc) []Stage {
	const dispatchIndex = 3

	dispatchProgress := func(subAgent, message string, processed int) {
		update := domain.ProgressUpdate{
			StageName:   "agent_dispatcher",
			StageIndex:  dispatchIndex,
			TotalStages: 6,
			SubAgent:    subAgent,
			Message:     message,
		}
		if processed >= 0 {
			update.ProcessedDocuments = processed
			update.TotalDocuments = len(pc.Scanned)
		}
		emitProgress(progress, a.log, update)
	}

	return []Stage{
		newScannerStage(a.cfg.InputExtensions, a.cfg.MaxFileSizeBytes, a.log),
		newClassifierStage(a.cfg.ClassificationStrategy, a.patterns, a.caps.Classifier, a.log),
		newDispatcherStage(
			a.caps, a.gate, a.exec, a.log, a.metrics, a.service,
			a.cfg.ParallelDispatch, a.cfg.DispatchTimeout, a.cfg.RunDispatchTimeout,
			dispatchProgress,
		),
		newNormalizerStage(a.cfg.Scoring, a.log),
		newCrossValidatorStage(a.cfg.NameMatchThreshold, a.log),
		newOutputStage(a.jsonWriter, a.excelWriter, a.log),
	}
}

// emitProgress invokes the caller's callback behind a recover so that a
// panicking observer cannot take the run down with it.
func emitProgress(progress domain.ProgressFunc, log *slog.Logger, update domain.ProgressUpdate) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Warn("progress_callback_panic", "stage", update.StageName, "panic", r)
		}
	}()
	progress(update)
}
