package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

// scannerStage discovers candidate files in the input folder. The only stage
// besides output generation whose failure aborts the run: with nothing
// scanned there is nothing to analyze.
type scannerStage struct {
	extensions  []string
	maxSizeByte int64
	log         *slog.Logger
}

func newScannerStage(extensions []string, maxSizeBytes int64, log *slog.Logger) *scannerStage {
	return &scannerStage{
		extensions:  extensions,
		maxSizeByte: maxSizeBytes,
		log:         log,
	}
}

func (s *scannerStage) Name() string { return "document_scanner" }

func (s *scannerStage) Run(_ context.Context, pc *Context) error {
	info, err := os.Stat(pc.InputFolder)
	if err != nil {
		return domain.WrapError(domain.ErrPathNotFound, "scan "+pc.InputFolder, err)
	}
	if !info.IsDir() {
		return domain.WrapError(domain.ErrNotADirectory, "scan "+pc.InputFolder, fmt.Errorf("%s is a regular file", pc.InputFolder))
	}

	entries, err := os.ReadDir(pc.InputFolder)
	if err != nil {
		return domain.WrapError(domain.ErrPathNotFound, "scan "+pc.InputFolder, err)
	}

	var docs []domain.DocumentInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(s.extensions, ext) {
			s.log.Debug("scanner_skip_extension", "file", name, "extension", ext)
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			pc.AddWarning(fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		if fi.Size() == 0 {
			pc.AddWarning(fmt.Sprintf("skipped %s: file is empty", name))
			continue
		}
		if s.maxSizeByte > 0 && fi.Size() > s.maxSizeByte {
			pc.AddWarning(fmt.Sprintf("skipped %s: size %d exceeds limit %d", name, fi.Size(), s.maxSizeByte))
			continue
		}

		docs = append(docs, domain.DocumentInfo{
			Path:      filepath.Join(pc.InputFolder, name),
			Name:      name,
			Extension: ext,
			Size:      fi.Size(),
			Category:  domain.CategoryUnknown,
		})
	}

	if len(docs) == 0 {
		return domain.WrapError(
			domain.ErrNoDocumentsFound,
			"scan "+pc.InputFolder,
			fmt.Errorf("no files with extensions %s", strings.Join(s.extensions, ", ")),
		)
	}

	pc.Scanned = docs
	s.log.Info("documents_scanned", "run_id", pc.RunID, "folder", pc.InputFolder, "count", len(docs))
	return nil
}
