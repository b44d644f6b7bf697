// Package excelreport renders the unified run result as a multi-sheet Excel
// workbook for the admission officers who review runs by hand.
package excelreport

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
)

const fileName = "unified_results.xlsx"

type Writer struct{}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Write(_ context.Context, result *domain.UnifiedResult, destDir string) (string, error) {
	if result == nil {
		return "", fmt.Errorf("excelreport: result is nil")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummarySheet(f, result); err != nil {
		return "", err
	}
	if err := w.writeIdentitySheet(f, result.Identity); err != nil {
		return "", err
	}
	if err := w.writeFinancialSheet(f, result.Financial); err != nil {
		return "", err
	}
	if err := w.writeEducationSheet(f, result.Education); err != nil {
		return "", err
	}
	if err := w.writeCrossValidationSheet(f, result.CrossValidation); err != nil {
		return "", err
	}

	path := filepath.Join(destDir, fileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("excelreport: save workbook: %w", err)
	}
	return path, nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, result *domain.UnifiedResult) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("excelreport: rename summary sheet: %w", err)
	}

	rows := [][2]any{
		{"Run ID", result.RunID},
		{"Documents scanned", result.Metadata.DocumentsScanned},
		{"Processing time (s)", result.Metadata.ElapsedSeconds},
		{"Errors", strings.Join(result.Metadata.Errors, "\n")},
		{"Warnings", strings.Join(result.Metadata.Warnings, "\n")},
	}
	for category, count := range result.Metadata.DocumentsByCategory {
		rows = append(rows, [2]any{"Documents: " + category, count})
	}
	return writeKeyValueRows(f, sheet, rows)
}

func (w *Writer) writeIdentitySheet(f *excelize.File, s *domain.IdentitySummary) error {
	const sheet = "Identity"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("excelreport: create %s sheet: %w", sheet, err)
	}
	if s == nil {
		return writeKeyValueRows(f, sheet, [][2]any{{"Status", "not available"}})
	}

	rows := [][2]any{
		{"Status", string(s.Status)},
		{"First name", s.FirstName},
		{"Last name", s.LastName},
		{"Date of birth", s.DateOfBirth},
		{"Sex", s.Sex},
		{"Passport number", s.PassportNumber},
		{"Issuing country", s.IssuingCountry},
		{"Expiry date", s.ExpiryDate},
		{"Accuracy score", s.AccuracyScore},
		{"Confidence", string(s.Confidence)},
	}
	if s.MRZ != nil && s.MRZ.ChecksumValid != nil {
		rows = append(rows, [2]any{"MRZ checksums valid", *s.MRZ.ChecksumValid})
	}
	if s.FailureReason != "" {
		rows = append(rows, [2]any{"Failure reason", s.FailureReason})
	}
	return writeKeyValueRows(f, sheet, rows)
}

func (w *Writer) writeFinancialSheet(f *excelize.File, s *domain.FinancialSummary) error {
	const sheet = "Financial"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("excelreport: create %s sheet: %w", sheet, err)
	}
	if s == nil {
		return writeKeyValueRows(f, sheet, [][2]any{{"Status", "not available"}})
	}

	rows := [][2]any{
		{"Status", string(s.Status)},
		{"Account holder", s.AccountHolder},
		{"Bank", s.BankName},
		{"Amount (original)", s.AmountOriginal},
		{"Currency", s.BaseCurrency},
		{"Amount (EUR)", s.AmountEUR},
		{"Threshold (EUR)", s.ThresholdEUR},
		{"Worthiness", string(s.Worthiness)},
		{"Confidence", s.ConfidenceScore},
		{"Remarks", s.Remarks},
	}
	if s.FailureReason != "" {
		rows = append(rows, [2]any{"Failure reason", s.FailureReason})
	}
	return writeKeyValueRows(f, sheet, rows)
}

func (w *Writer) writeEducationSheet(f *excelize.File, s *domain.EducationSummary) error {
	const sheet = "Education"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("excelreport: create %s sheet: %w", sheet, err)
	}
	if s == nil {
		return writeKeyValueRows(f, sheet, [][2]any{{"Status", "not available"}})
	}

	rows := [][2]any{
		{"Status", string(s.Status)},
		{"Student name", s.StudentName},
		{"Date of birth", s.StudentDateOfBirth},
		{"Qualification", s.HighestQualification},
		{"Institution", s.Institution},
		{"Country", s.Country},
		{"Final grade (original)", s.FinalGradeOriginal},
		{"French equivalent (0-20)", s.FrenchGrade},
		{"Validation", string(s.Validation)},
		{"Confidence", s.ConfidenceScore},
		{"Remarks", s.Remarks},
	}
	if s.FailureReason != "" {
		rows = append(rows, [2]any{"Failure reason", s.FailureReason})
	}
	return writeKeyValueRows(f, sheet, rows)
}

func (w *Writer) writeCrossValidationSheet(f *excelize.File, cv *domain.CrossValidationResult) error {
	const sheet = "CrossValidation"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("excelreport: create %s sheet: %w", sheet, err)
	}
	if cv == nil {
		return writeKeyValueRows(f, sheet, [][2]any{{"Status", "not available"}})
	}

	rows := [][2]any{
		{"Name match", matchLabel(cv.NameMatch)},
		{"DOB match", matchLabel(cv.DOBMatch)},
		{"Identity name", cv.IdentityName},
		{"Education name", cv.EducationName},
		{"Financial name", cv.FinancialName},
		{"Identity DOB", cv.IdentityDOB},
		{"Education DOB", cv.EducationDOB},
		{"Remarks", cv.Remarks},
	}
	if cv.NameMatchScore != nil {
		rows = append(rows, [2]any{"Name similarity", *cv.NameMatchScore})
	}
	return writeKeyValueRows(f, sheet, rows)
}

func writeKeyValueRows(f *excelize.File, sheet string, rows [][2]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("excelreport: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{row[0], row[1]}); err != nil {
			return fmt.Errorf("excelreport: write row on %s: %w", sheet, err)
		}
	}
	return nil
}

func matchLabel(b *bool) string {
	if b == nil {
		return "INCONCLUSIVE"
	}
	if *b {
		return "MATCH"
	}
	return "MISMATCH"
}
