package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/core/ports"
)

// outputStage assembles the unified result and persists it through the
// configured report writers. Writer failure is fatal: a run whose result
// cannot be delivered has not completed.
type outputStage struct {
	jsonWriter  ports.ReportWriter
	excelWriter ports.ReportWriter
	log         *slog.Logger
}

func newOutputStage(jsonWriter, excelWriter ports.ReportWriter, log *slog.Logger) *outputStage {
	return &outputStage{jsonWriter: jsonWriter, excelWriter: excelWriter, log: log}
}

func (s *outputStage) Name() string { return "output_generator" }

func (s *outputStage) Run(ctx context.Context, pc *Context) error {
	pc.Result = &domain.UnifiedResult{
		RunID:           pc.RunID,
		Identity:        pc.Identity,
		Financial:       pc.Financial,
		Education:       pc.Education,
		CrossValidation: pc.CrossValidation,
		Metadata:        pc.Metadata(),
	}

	if pc.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(pc.OutputDir, 0o755); err != nil {
		return domain.WrapError(domain.ErrOutputGeneration, "create output directory", err)
	}

	for _, w := range s.writers(pc.Format) {
		path, err := w.writer.Write(ctx, pc.Result, pc.OutputDir)
		if err != nil {
			pc.AddError(fmt.Sprintf("%s report failed: %v", w.format, err))
			return domain.WrapError(domain.ErrOutputGeneration, w.format+" report", err)
		}
		s.log.Info("report_written", "run_id", pc.RunID, "format", w.format, "path", path)
	}
	return nil
}

type formatWriter struct {
	format string
	writer ports.ReportWriter
}

func (s *outputStage) writers(format domain.OutputFormat) []formatWriter {
	var out []formatWriter
	wantJSON := format == domain.FormatJSON || format == domain.FormatBoth || format == ""
	wantExcel := format == domain.FormatExcel || format == domain.FormatBoth
	if wantJSON && s.jsonWriter != nil {
		out = append(out, formatWriter{string(domain.FormatJSON), s.jsonWriter})
	}
	if wantExcel && s.excelWriter != nil {
		out = append(out, formatWriter{string(domain.FormatExcel), s.excelWriter})
	}
	return out
}
