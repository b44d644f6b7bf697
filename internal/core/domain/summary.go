package domain

import "strings"

type ExtractionStatus string

const (
	ExtractionSuccess ExtractionStatus = "success"
	ExtractionPartial ExtractionStatus = "partial"
	ExtractionFailed  ExtractionStatus = "failed"
)

// CheckStatus is the outcome of a policy check (worthiness, semester
// validation) carried over from the extraction backends.
type CheckStatus string

const (
	CheckPass         CheckStatus = "PASS"
	CheckFail         CheckStatus = "FAIL"
	CheckInconclusive CheckStatus = "INCONCLUSIVE"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "HIGH"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceLow    ConfidenceLevel = "LOW"
)

// MRZDetails is the subset of parsed machine-readable-zone data that is
// reported alongside the identity summary.
type MRZDetails struct {
	DocumentType  string `json:"document_type,omitempty"`
	RawLine1      string `json:"raw_line1,omitempty"`
	RawLine2      string `json:"raw_line2,omitempty"`
	ChecksumValid *bool  `json:"checksum_valid,omitempty"`
}

type IdentitySummary struct {
	FirstName      string           `json:"first_name,omitempty"`
	LastName       string           `json:"last_name,omitempty"`
	DateOfBirth    string           `json:"date_of_birth,omitempty"` // ISO YYYY-MM-DD
	Sex            string           `json:"sex,omitempty"`           // M, F or X
	PassportNumber string           `json:"passport_number,omitempty"`
	IssuingCountry string           `json:"issuing_country,omitempty"`
	IssueDate      string           `json:"issue_date,omitempty"`
	ExpiryDate     string           `json:"expiry_date,omitempty"`
	MRZ            *MRZDetails      `json:"mrz_data,omitempty"`
	AccuracyScore  int              `json:"accuracy_score"` // 0-100
	Confidence     ConfidenceLevel  `json:"confidence_level,omitempty"`
	Status         ExtractionStatus `json:"extraction_status"`
	FailureReason  string           `json:"failure_reason,omitempty"`
}

func (s *IdentitySummary) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

type FinancialSummary struct {
	DocumentType    string           `json:"document_type,omitempty"`
	AccountHolder   string           `json:"account_holder_name,omitempty"`
	BankName        string           `json:"bank_name,omitempty"`
	BaseCurrency    string           `json:"base_currency,omitempty"`
	AmountOriginal  float64          `json:"amount_original,omitempty"`
	AmountEUR       float64          `json:"amount_eur,omitempty"`
	ThresholdEUR    float64          `json:"financial_threshold_eur"`
	Worthiness      CheckStatus      `json:"worthiness_status"`
	ConfidenceScore float64          `json:"confidence_score"`
	Remarks         string           `json:"remarks,omitempty"`
	Status          ExtractionStatus `json:"extraction_status"`
	FailureReason   string           `json:"failure_reason,omitempty"`
}

type EducationSummary struct {
	HighestQualification string           `json:"highest_qualification,omitempty"`
	Institution          string           `json:"institution,omitempty"`
	Country              string           `json:"country,omitempty"`
	StudentName          string           `json:"student_name,omitempty"`
	StudentDateOfBirth   string           `json:"student_date_of_birth,omitempty"`
	FinalGradeOriginal   string           `json:"final_grade_original,omitempty"`
	FrenchGrade          float64          `json:"french_equivalent_grade_0_20,omitempty"`
	Validation           CheckStatus      `json:"validation_status"`
	ConfidenceScore      float64          `json:"confidence_score"`
	Remarks              string           `json:"remarks,omitempty"`
	Status               ExtractionStatus `json:"extraction_status"`
	FailureReason        string           `json:"failure_reason,omitempty"`
}
