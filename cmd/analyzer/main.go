// Command analyzer evaluates an admission document folder from the command
// line, or enqueues the run for the worker fleet with -enqueue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mkorchagin/admission-analyzer/internal/bootstrap"
	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/infrastructure/queue/nats"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	var (
		inputFolder = flag.String("input", "", "folder with the applicant's documents (required)")
		outputDir   = flag.String("output", "", "directory for the generated reports (default: alongside input)")
		format      = flag.String("format", cfg.OutputFormat, "report format: json, excel or both")
		threshold   = flag.Float64("threshold", cfg.FinancialThresholdEUR, "financial worthiness threshold in EUR")
		enqueue     = flag.Bool("enqueue", false, "publish the run to the worker queue instead of running locally")
		quiet       = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	if *inputFolder == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		flag.Usage()
		return 2
	}
	if *outputDir == "" {
		*outputDir = *inputFolder
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := domain.RunRequest{
		RunID:              uuid.NewString(),
		InputFolder:        *inputFolder,
		OutputDir:          *outputDir,
		Format:             domain.OutputFormat(*format),
		FinancialThreshold: *threshold,
	}

	if *enqueue {
		return enqueueRun(ctx, cfg, req)
	}
	return runLocally(ctx, cfg, req, *quiet)
}

func runLocally(ctx context.Context, cfg config.Config, req domain.RunRequest, quiet bool) int {
	app, err := bootstrap.New(cfg, "analyzer")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	var progress domain.ProgressFunc
	if !quiet {
		progress = printProgress
	}

	result, err := app.Analyzer.Process(ctx, req, progress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: run failed: %v\n", err)
		if domain.IsKind(err, domain.ErrPathNotFound) ||
			domain.IsKind(err, domain.ErrNotADirectory) ||
			domain.IsKind(err, domain.ErrNoDocumentsFound) {
			return 2
		}
		return 1
	}

	printSummary(result)
	if len(result.Metadata.Errors) > 0 {
		return 1
	}
	return 0
}

func enqueueRun(ctx context.Context, cfg config.Config, req domain.RunRequest) int {
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer queue.Close()

	if err := queue.PublishRunRequested(ctx, req); err != nil {
		fmt.Fprintf(os.Stderr, "error: enqueue run: %v\n", err)
		return 1
	}
	fmt.Printf("run %s enqueued on %s\n", req.RunID, cfg.NATSSubject)
	return 0
}

func printProgress(u domain.ProgressUpdate) {
	if u.SubAgent != "" {
		fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s %s\n", u.StageIndex, u.TotalStages, u.StageName, u.SubAgent, u.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "[%d/%d] %s: %s\n", u.StageIndex, u.TotalStages, u.StageName, u.Message)
}

func printSummary(result *domain.UnifiedResult) {
	fmt.Printf("run %s finished\n", result.RunID)
	if id := result.Identity; id != nil {
		fmt.Printf("  identity:  %-10s accuracy=%d confidence=%s\n", id.Status, id.AccuracyScore, id.Confidence)
	}
	if fin := result.Financial; fin != nil {
		fmt.Printf("  financial: %-10s worthiness=%s\n", fin.Status, fin.Worthiness)
	}
	if edu := result.Education; edu != nil {
		fmt.Printf("  education: %-10s validation=%s\n", edu.Status, edu.Validation)
	}
	if cv := result.CrossValidation; cv != nil {
		fmt.Printf("  cross-validation: %s\n", cv.Remarks)
	}
	fmt.Printf("  %d documents, %d errors, %d warnings, %.2fs\n",
		result.Metadata.DocumentsScanned,
		len(result.Metadata.Errors),
		len(result.Metadata.Warnings),
		result.Metadata.ElapsedSeconds,
	)
}
