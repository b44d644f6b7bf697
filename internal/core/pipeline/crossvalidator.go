package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mkorchagin/admission-analyzer/internal/core/domain"
	"github.com/mkorchagin/admission-analyzer/internal/match"
)

// crossValidatorStage checks that the three document categories describe the
// same person: the identity full name against the names on the education and
// financial documents, and the identity date of birth against the one on the
// transcript. A comparison without both sides stays nil, never guessed.
type crossValidatorStage struct {
	nameThreshold float64
	log           *slog.Logger
}

func newCrossValidatorStage(nameThreshold float64, log *slog.Logger) *crossValidatorStage {
	if nameThreshold <= 0 || nameThreshold > 1 {
		nameThreshold = match.DefaultNameThreshold
	}
	return &crossValidatorStage{nameThreshold: nameThreshold, log: log}
}

func (s *crossValidatorStage) Name() string { return "cross_validator" }

func (s *crossValidatorStage) Run(_ context.Context, pc *Context) error {
	result := &domain.CrossValidationResult{}

	if pc.Identity != nil && pc.Identity.Status != domain.ExtractionFailed {
		result.IdentityName = pc.Identity.FullName()
		result.IdentityDOB = pc.Identity.DateOfBirth
	}
	if pc.Education != nil && pc.Education.Status != domain.ExtractionFailed {
		result.EducationName = pc.Education.StudentName
		result.EducationDOB = pc.Education.StudentDateOfBirth
	}
	if pc.Financial != nil && pc.Financial.Status != domain.ExtractionFailed {
		result.FinancialName = pc.Financial.AccountHolder
	}

	var remarks []string
	remarks = append(remarks, s.compareNames(result)...)
	remarks = append(remarks, s.compareDOB(result)...)
	result.Remarks = strings.Join(remarks, "; ")

	pc.CrossValidation = result
	s.log.Info("cross_validation_complete",
		"run_id", pc.RunID,
		"name_match", boolOrNil(result.NameMatch),
		"dob_match", boolOrNil(result.DOBMatch),
	)
	return nil
}

// compareNames matches the identity name against every available supporting
// name. All candidates must agree for a positive match; the reported score is
// the average across candidates.
func (s *crossValidatorStage) compareNames(result *domain.CrossValidationResult) []string {
	if result.IdentityName == "" {
		return []string{"name comparison skipped: identity name unavailable"}
	}

	type candidate struct {
		source string
		name   string
	}
	var candidates []candidate
	if result.EducationName != "" {
		candidates = append(candidates, candidate{"education", result.EducationName})
	}
	if result.FinancialName != "" {
		candidates = append(candidates, candidate{"financial", result.FinancialName})
	}
	if len(candidates) == 0 {
		return []string{"name comparison skipped: no supporting document names"}
	}

	allMatched := true
	scoreSum := 0.0
	var remarks []string
	for _, c := range candidates {
		matched, score := match.FuzzyMatch(result.IdentityName, c.name, s.nameThreshold)
		scoreSum += score
		if !matched {
			allMatched = false
			remarks = append(remarks, fmt.Sprintf("name mismatch with %s document (similarity %.2f)", c.source, score))
		}
	}
	avgScore := scoreSum / float64(len(candidates))
	if allMatched {
		remarks = append(remarks, fmt.Sprintf("names consistent across documents (similarity %.2f)", avgScore))
	}

	result.NameMatch = &allMatched
	result.NameMatchScore = &avgScore
	return remarks
}

func (s *crossValidatorStage) compareDOB(result *domain.CrossValidationResult) []string {
	if result.IdentityDOB == "" || result.EducationDOB == "" {
		return []string{"date of birth comparison skipped: value missing on one side"}
	}

	matched, normID, normEdu := match.CompareDates(result.IdentityDOB, result.EducationDOB)
	result.IdentityDOB = normID
	result.EducationDOB = normEdu
	result.DOBMatch = &matched
	if matched {
		return []string{"date of birth consistent across documents"}
	}
	return []string{fmt.Sprintf("date of birth mismatch: identity %s vs education %s", normID, normEdu)}
}

func boolOrNil(b *bool) any {
	if b == nil {
		return "inconclusive"
	}
	return *b
}
