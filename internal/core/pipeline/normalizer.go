package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mkorchagin/admission-analyzer/internal/config"
	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/match"
	"github.com/mkorchagin/admission-analyzer/internal/mrz"
)

const isoDate = "2006-01-02"

// normalizerStage turns raw capability responses into the summary shapes,
// independently validating identity extractions against the passport MRZ. It
// always produces all three summaries; a category whose dispatch failed gets
// a failed summary carrying the failure reason.
type normalizerStage struct {
	scoring config.Scoring
	log     *slog.Logger
}

func newNormalizerStage(scoring config.Scoring, log *slog.Logger) *normalizerStage {
	return &normalizerStage{scoring: scoring, log: log}
}

func (s *normalizerStage) Name() string { return "result_normalizer" }

func (s *normalizerStage) Run(_ context.Context, pc *Context) error {
	pc.Identity = s.normalizeIdentity(pc)
	pc.Financial = s.normalizeFinancial(pc)
	pc.Education = s.normalizeEducation(pc)
	return nil
}

func (s *normalizerStage) normalizeIdentity(pc *Context) *domain.IdentitySummary {
	raw := pc.IdentityRaw
	if raw == nil {
		return &domain.IdentitySummary{
			Status:        domain.ExtractionFailed,
			Confidence:    domain.ConfidenceLow,
			FailureReason: s.failureReason(pc, domain.CategoryIdentity),
		}
	}

	summary := &domain.IdentitySummary{
		FirstName:      strings.TrimSpace(raw.FirstName),
		LastName:       strings.TrimSpace(raw.LastName),
		DateOfBirth:    strings.TrimSpace(raw.DateOfBirth),
		Sex:            strings.TrimSpace(raw.Sex),
		PassportNumber: strings.TrimSpace(raw.PassportNumber),
		IssuingCountry: strings.TrimSpace(raw.IssuingCountry),
		IssueDate:      strings.TrimSpace(raw.IssueDate),
		ExpiryDate:     strings.TrimSpace(raw.ExpiryDate),
		Status:         domain.ExtractionSuccess,
	}

	var record *mrz.Record
	if raw.MRZLine1 != "" && raw.MRZLine2 != "" {
		parsed, err := mrz.ParseTD3(raw.MRZLine1, raw.MRZLine2)
		if err != nil {
			pc.AddWarning(fmt.Sprintf("mrz validation unavailable: %v", err))
			summary.MRZ = &domain.MRZDetails{
				RawLine1: raw.MRZLine1,
				RawLine2: raw.MRZLine2,
			}
		} else {
			record = parsed
			allValid := record.Checksums.AllValid()
			summary.MRZ = &domain.MRZDetails{
				DocumentType:  record.DocumentType,
				RawLine1:      record.RawLine1,
				RawLine2:      record.RawLine2,
				ChecksumValid: &allValid,
			}
		}
	}

	// MRZ values fill gaps the extraction left blank.
	if record != nil {
		if summary.FirstName == "" {
			summary.FirstName = record.FirstName
		}
		if summary.LastName == "" {
			summary.LastName = record.LastName
		}
		if summary.DateOfBirth == "" {
			summary.DateOfBirth = record.BirthDate.Format(isoDate)
		}
		if summary.Sex == "" {
			summary.Sex = record.Sex
		}
		if summary.PassportNumber == "" {
			summary.PassportNumber = record.PassportNumber
		}
		if summary.IssuingCountry == "" {
			summary.IssuingCountry = record.IssuingCountry
		}
		if summary.ExpiryDate == "" {
			summary.ExpiryDate = record.ExpiryDate.Format(isoDate)
		}
	}

	if summary.FirstName == "" && summary.LastName == "" && summary.PassportNumber == "" {
		summary.Status = domain.ExtractionPartial
	}

	summary.AccuracyScore = s.scoreIdentity(raw, record)
	summary.Confidence = s.confidenceLevel(summary.AccuracyScore)

	s.log.Debug("identity_normalized",
		"run_id", pc.RunID,
		"accuracy", summary.AccuracyScore,
		"confidence", summary.Confidence,
		"mrz_parsed", record != nil,
	)
	return summary
}

// scoreIdentity blends three signals into a 0-100 accuracy score: the share
// of valid MRZ check digits, the share of extracted fields that agree with
// the MRZ, and the backend's own confidence. Without a parsed MRZ the first
// two contributions are zero.
func (s *normalizerStage) scoreIdentity(raw *domain.IdentityExtract, record *mrz.Record) int {
	var checksumRatio, fieldRatio float64
	if record != nil {
		checksumRatio = float64(record.Checksums.ValidCount()) / 4

		matched, compared := 0, 0
		compare := func(ok bool, rawValue string) {
			if strings.TrimSpace(rawValue) == "" {
				return
			}
			compared++
			if ok {
				matched++
			}
		}

		firstOK, _ := match.FuzzyMatch(raw.FirstName, record.FirstName, match.DefaultNameThreshold)
		compare(firstOK, raw.FirstName)
		lastOK, _ := match.FuzzyMatch(raw.LastName, record.LastName, match.DefaultNameThreshold)
		compare(lastOK, raw.LastName)
		dobOK, _, _ := match.CompareDates(raw.DateOfBirth, record.BirthDate.Format(isoDate))
		compare(dobOK, raw.DateOfBirth)
		compare(strings.EqualFold(strings.TrimSpace(raw.PassportNumber), record.PassportNumber), raw.PassportNumber)
		expiryOK, _, _ := match.CompareDates(raw.ExpiryDate, record.ExpiryDate.Format(isoDate))
		compare(expiryOK, raw.ExpiryDate)

		if compared > 0 {
			fieldRatio = float64(matched) / float64(compared)
		}
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	score := checksumRatio*s.scoring.ChecksumWeight +
		fieldRatio*s.scoring.FieldMatchWeight +
		confidence*s.scoring.ExtractionWeight
	return int(math.Min(100, math.Max(0, math.Round(score))))
}

func (s *normalizerStage) confidenceLevel(score int) domain.ConfidenceLevel {
	switch {
	case score >= s.scoring.HighThreshold:
		return domain.ConfidenceHigh
	case score >= s.scoring.MediumThreshold:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

func (s *normalizerStage) normalizeFinancial(pc *Context) *domain.FinancialSummary {
	raw := pc.FinancialRaw
	if raw == nil {
		return &domain.FinancialSummary{
			ThresholdEUR:  pc.FinancialThreshold,
			Worthiness:    domain.CheckInconclusive,
			Status:        domain.ExtractionFailed,
			FailureReason: s.failureReason(pc, domain.CategoryFinancial),
		}
	}

	worthiness := domain.CheckInconclusive
	switch strings.ToUpper(strings.TrimSpace(raw.Decision)) {
	case "WORTHY":
		worthiness = domain.CheckPass
	case "NOT_WORTHY":
		worthiness = domain.CheckFail
	}

	return &domain.FinancialSummary{
		DocumentType:    raw.DocumentType,
		AccountHolder:   strings.TrimSpace(raw.AccountHolder),
		BankName:        raw.BankName,
		BaseCurrency:    raw.Currency,
		AmountOriginal:  raw.AmountOriginal,
		AmountEUR:       raw.AmountEUR,
		ThresholdEUR:    pc.FinancialThreshold,
		Worthiness:      worthiness,
		ConfidenceScore: raw.Confidence,
		Remarks:         raw.Reason,
		Status:          domain.ExtractionSuccess,
	}
}

func (s *normalizerStage) normalizeEducation(pc *Context) *domain.EducationSummary {
	raw := pc.EducationRaw
	if raw == nil {
		return &domain.EducationSummary{
			Validation:    domain.CheckInconclusive,
			Status:        domain.ExtractionFailed,
			FailureReason: s.failureReason(pc, domain.CategoryEducation),
		}
	}

	validation := domain.CheckInconclusive
	switch strings.ToUpper(strings.TrimSpace(raw.SemesterStatus)) {
	case "VALID":
		validation = domain.CheckPass
	case "INVALID":
		validation = domain.CheckFail
	}

	return &domain.EducationSummary{
		HighestQualification: raw.HighestQualification,
		Institution:          raw.Institution,
		Country:              raw.Country,
		StudentName:          strings.TrimSpace(raw.StudentName),
		StudentDateOfBirth:   strings.TrimSpace(raw.StudentDateOfBirth),
		FinalGradeOriginal:   raw.FinalGrade,
		FrenchGrade:          raw.FrenchGrade,
		Validation:           validation,
		ConfidenceScore:      raw.Confidence,
		Remarks:              raw.Notes,
		Status:               domain.ExtractionSuccess,
	}
}

func (s *normalizerStage) failureReason(pc *Context, category domain.Category) string {
	if msg := pc.DispatchError(category); msg != "" {
		return msg
	}
	if pc.Batch != nil {
		switch category {
		case domain.CategoryIdentity:
			if len(pc.Batch.Identity) == 0 {
				return "no identity documents provided"
			}
		case domain.CategoryFinancial:
			if len(pc.Batch.Financial) == 0 {
				return "no financial documents provided"
			}
		case domain.CategoryEducation:
			if len(pc.Batch.Education) == 0 {
				return "no education documents provided"
			}
		}
	}
	return "extraction produced no result"
}
