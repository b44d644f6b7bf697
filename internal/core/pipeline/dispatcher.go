package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/core/ports"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/resilience"
	"github.com/mkorchagin/admission-analyzer/internal/observability/metrics"
)

// Capabilities bundles the per-category extraction backends and the fallback
// classifier wired into one analyzer instance.
type Capabilities struct {
	Identity   ports.IdentityCapability
	Financial  ports.FinancialCapability
	Education  ports.EducationCapability
	Classifier ports.ClassifierCapability
}

// dispatcherStage fans the classified batch out to the extraction
// capabilities. The whole dispatch phase runs inside the admission gate: at
// most one run talks to the backends at any moment, no matter how many runs
// are in flight. Individual category failures are recorded on the context and
// never abort the run.
type dispatcherStage struct {
	caps    Capabilities
	gate    *Gate
	exec    *resilience.Executor
	log     *slog.Logger
	metrics *metrics.PipelineMetrics
	service string

	parallel        bool
	categoryTimeout time.Duration
	phaseTimeout    time.Duration

	// progressMu keeps callback invocations ordered per run even when
	// category tasks run in parallel.
	progressMu sync.Mutex
	progress   func(subAgent, message string, processed int)
}

func newDispatcherStage(
	caps Capabilities,
	gate *Gate,
	exec *resilience.Executor,
	log *slog.Logger,
	m *metrics.PipelineMetrics,
	service string,
	parallel bool,
	categoryTimeout, phaseTimeout time.Duration,
	progress func(subAgent, message string, processed int),
) *dispatcherStage {
	return &dispatcherStage{
		caps:            caps,
		gate:            gate,
		exec:            exec,
		log:             log,
		metrics:         m,
		service:         service,
		parallel:        parallel,
		categoryTimeout: categoryTimeout,
		phaseTimeout:    phaseTimeout,
		progress:        progress,
	}
}

func (s *dispatcherStage) Name() string { return "agent_dispatcher" }

type dispatchTask struct {
	category domain.Category
	docs     []domain.DocumentInfo
	call     func(ctx context.Context) error
}

func (s *dispatcherStage) Run(ctx context.Context, pc *Context) error {
	if pc.Batch == nil {
		pc.AddError("dispatch skipped: no classified document batch")
		return nil
	}

	tasks := s.buildTasks(pc)
	if len(tasks) == 0 {
		pc.AddWarning("dispatch skipped: no documents in any known category")
		return nil
	}

	waitStart := time.Now()
	if err := s.gate.Acquire(ctx); err != nil {
		pc.AddError(fmt.Sprintf("dispatch cancelled while waiting for admission gate: %v", err))
		return nil
	}
	defer s.gate.Release()
	if s.metrics != nil {
		s.metrics.ObserveGateWait(time.Since(waitStart))
	}
	s.log.Info("admission_gate_acquired",
		"run_id", pc.RunID,
		"wait", time.Since(waitStart).String(),
		"categories", len(tasks),
		"parallel", s.parallel,
	)

	if s.parallel {
		s.runParallel(ctx, pc, tasks)
	} else {
		s.runSequential(ctx, pc, tasks)
	}
	return nil
}

func (s *dispatcherStage) buildTasks(pc *Context) []dispatchTask {
	var tasks []dispatchTask

	if docs := pc.Batch.Identity; len(docs) > 0 && s.caps.Identity != nil {
		if len(docs) > 1 {
			pc.AddWarning(fmt.Sprintf("%d identity documents found, all forwarded to the identity backend", len(docs)))
		}
		files := documentPaths(docs)
		tasks = append(tasks, dispatchTask{
			category: domain.CategoryIdentity,
			docs:     docs,
			call: func(ctx context.Context) error {
				out, err := s.caps.Identity.Process(ctx, files)
				if err != nil {
					return err
				}
				pc.IdentityRaw = out
				return nil
			},
		})
	}

	if docs := pc.Batch.Financial; len(docs) > 0 && s.caps.Financial != nil {
		if len(docs) > 1 {
			pc.AddWarning(fmt.Sprintf("%d financial documents found, all forwarded to the financial backend", len(docs)))
		}
		files := documentPaths(docs)
		threshold := pc.FinancialThreshold
		tasks = append(tasks, dispatchTask{
			category: domain.CategoryFinancial,
			docs:     docs,
			call: func(ctx context.Context) error {
				out, err := s.caps.Financial.Process(ctx, files, threshold)
				if err != nil {
					return err
				}
				pc.FinancialRaw = out
				return nil
			},
		})
	}

	if docs := pc.Batch.Education; len(docs) > 0 && s.caps.Education != nil {
		files := documentPaths(docs)
		tasks = append(tasks, dispatchTask{
			category: domain.CategoryEducation,
			docs:     docs,
			call: func(ctx context.Context) error {
				out, err := s.caps.Education.Process(ctx, files)
				if err != nil {
					return err
				}
				pc.EducationRaw = out
				return nil
			},
		})
	}

	return tasks
}

func (s *dispatcherStage) runSequential(ctx context.Context, pc *Context, tasks []dispatchTask) {
	processed := 0
	for _, task := range tasks {
		s.emit(task, "dispatching", processed)
		s.dispatchOne(ctx, pc, task)
		processed += len(task.docs)
		s.emit(task, "done", processed)
	}
}

func (s *dispatcherStage) runParallel(ctx context.Context, pc *Context, tasks []dispatchTask) {
	phaseCtx := ctx
	if s.phaseTimeout > 0 {
		var cancel context.CancelFunc
		phaseCtx, cancel = context.WithTimeout(ctx, s.phaseTimeout)
		defer cancel()
	}

	var wg sync.WaitGroup
	var processed int
	var mu sync.Mutex
	for _, task := range tasks {
		wg.Add(1)
		go func(task dispatchTask) {
			defer wg.Done()
			s.emit(task, "dispatching", -1)
			s.dispatchOne(phaseCtx, pc, task)
			mu.Lock()
			processed += len(task.docs)
			done := processed
			mu.Unlock()
			s.emit(task, "done", done)
		}(task)
	}
	wg.Wait()
}

// dispatchOne invokes one category capability under its own timeout, routing
// the call through the retry/breaker executor and the backend rate limiter.
func (s *dispatcherStage) dispatchOne(ctx context.Context, pc *Context, task dispatchTask) {
	callCtx := ctx
	if s.categoryTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.categoryTimeout)
		defer cancel()
	}

	call := func(c context.Context) error {
		if err := s.gate.WaitBackend(c); err != nil {
			return err
		}
		return task.call(c)
	}

	start := time.Now()
	var err error
	if s.exec != nil {
		err = s.exec.Execute(callCtx, "dispatch."+string(task.category), call, classifyDispatchError)
	} else {
		err = call(callCtx)
	}
	if s.metrics != nil {
		s.metrics.ObserveDispatch(s.service, string(task.category), err)
	}

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = domain.WrapError(domain.ErrDispatchTimeout, string(task.category)+" dispatch", err)
		default:
			err = domain.WrapError(domain.ErrExtraction, string(task.category)+" dispatch", err)
		}
		pc.SetDispatchError(task.category, err.Error())
		pc.AddError(err.Error())
		s.log.Error("dispatch_failed",
			"run_id", pc.RunID,
			"category", task.category,
			"files", len(task.docs),
			"duration", time.Since(start).String(),
			"error", err,
		)
		return
	}

	s.log.Info("dispatch_complete",
		"run_id", pc.RunID,
		"category", task.category,
		"files", len(task.docs),
		"duration", time.Since(start).String(),
	)
}

func (s *dispatcherStage) emit(task dispatchTask, message string, processed int) {
	if s.progress == nil {
		return
	}
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.progress(string(task.category), message, processed)
}

// classifyDispatchError treats everything except context expiry as a
// transient backend fault worth a retry.
func classifyDispatchError(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func documentPaths(docs []domain.DocumentInfo) []string {
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}
	return paths
}
