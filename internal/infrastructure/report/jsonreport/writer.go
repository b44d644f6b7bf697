// Package jsonreport writes the unified run result as a JSON document.
package jsonreport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

const fileName = "unified_results.json"

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

// Write persists the result to destDir/unified_results.json via a temp file
// rename so a crashed run never leaves a truncated report behind.
func (w *Writer) Write(_ context.Context, result *domain.UnifiedResult, destDir string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("jsonreport: result is nil")
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("jsonreport: marshal result: %w", err)
	}

	path := filepath.Join(destDir, fileName)
	tmp, err := os.CreateTemp(destDir, fileName+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("jsonreport: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("jsonreport: write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("jsonreport: close report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("jsonreport: finalize report: %w", err)
	}
	return path, nil
}
