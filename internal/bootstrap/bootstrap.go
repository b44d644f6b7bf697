// Package bootstrap assembles the analyzer from configuration: logging,
// metrics, the admission gate, the extraction agents and the report writers,
// plus the queue/repository pair used by the worker.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/core/pipeline"
	"github.com/mkorchagin/admission-analyzer/internal/core/ports"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/capability/agentexec"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/classify/keyword"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/queue/nats"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/report/excelreport"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/report/jsonreport"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/repository/postgres"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/resilience"
	"github.com/mkorchagin/admission-analyzer/internal/observability/logging"
	"github.com/mkorchagin/admission-analyzer/internal/observability/metrics"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Metrics  *metrics.PipelineMetrics
	Analyzer *pipeline.Analyzer
}

// New builds a standalone analyzer. The extraction agents are optional:
// categories without a configured agent command degrade to failed summaries
// at run time instead of failing startup.
func New(cfg config.Config, service string) (*App, error) {
	logger := logging.NewJSONLogger(service, cfg.LogLevel)
	m := metrics.NewPipelineMetrics(service)

	patterns, err := config.LoadPatterns(cfg.PatternsFile)
	if err != nil {
		return nil, fmt.Errorf("load classification patterns: %w", err)
	}

	caps, err := buildCapabilities(cfg, patterns, logger)
	if err != nil {
		return nil, err
	}

	policy := resilience.DefaultPolicy()
	policy.RetryMaxAttempts = cfg.DispatchRetries + 1
	if cfg.DispatchRetryBackoff > 0 {
		policy.RetryBackoff = cfg.DispatchRetryBackoff
	}
	executor := resilience.NewExecutor(policy)

	gate := pipeline.NewGate(cfg.BackendRateLimit, cfg.BackendRateBurst)

	analyzer := pipeline.NewAnalyzer(
		cfg,
		patterns,
		caps,
		gate,
		executor,
		jsonreport.NewWriter(),
		excelreport.NewWriter(),
		logger,
		m,
		service,
	)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
		Analyzer: analyzer,
	}, nil
}

func buildCapabilities(cfg config.Config, patterns config.Patterns, logger *slog.Logger) (pipeline.Capabilities, error) {
	caps := pipeline.Capabilities{
		Classifier: keyword.NewClassifier(patterns, logger),
	}

	if cfg.IdentityAgentCmd != "" {
		agent, err := agentexec.NewIdentityAgent(cfg.IdentityAgentCmd, logger)
		if err != nil {
			return caps, fmt.Errorf("identity agent: %w", err)
		}
		caps.Identity = agent
	}
	if cfg.FinancialAgentCmd != "" {
		agent, err := agentexec.NewFinancialAgent(cfg.FinancialAgentCmd, logger)
		if err != nil {
			return caps, fmt.Errorf("financial agent: %w", err)
		}
		caps.Financial = agent
	}
	if cfg.EducationAgentCmd != "" {
		agent, err := agentexec.NewEducationAgent(cfg.EducationAgentCmd, logger)
		if err != nil {
			return caps, fmt.Errorf("education agent: %w", err)
		}
		caps.Education = agent
	}
	return caps, nil
}

// WorkerApp extends App with the run ledger and the queue the worker consumes.
type WorkerApp struct {
	*App
	Repo  ports.RunRepository
	Queue *nats.Queue

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	app, err := New(cfg, "worker")
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultPolicy()),
		Logger:             app.Logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init run queue: %w", err)
	}

	return &WorkerApp{
		App:   app,
		Repo:  repo,
		Queue: queue,
		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (w *WorkerApp) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// HandleRun executes one queued run request, tracking its lifecycle in the
// run ledger.
func (w *WorkerApp) HandleRun(ctx context.Context, req domain.RunRequest) error {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	if _, err := w.Repo.GetByID(ctx, req.RunID); err != nil {
		now := time.Now().UTC()
		if cerr := w.Repo.Create(ctx, &domain.Run{
			ID:          req.RunID,
			InputFolder: req.InputFolder,
			OutputDir:   req.OutputDir,
			Status:      domain.RunPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}); cerr != nil {
			return fmt.Errorf("register run: %w", cerr)
		}
	}
	if err := w.Repo.MarkProcessing(ctx, req.RunID); err != nil {
		return fmt.Errorf("mark run processing: %w", err)
	}

	result, err := w.Analyzer.Process(ctx, req, nil)
	if err != nil {
		if ferr := w.Repo.Fail(ctx, req.RunID, err.Error()); ferr != nil {
			w.Logger.Error("run_fail_not_recorded", "run_id", req.RunID, "error", ferr)
		}
		return err
	}
	return w.Repo.Complete(ctx, req.RunID, result)
}
