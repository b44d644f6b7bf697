package domain

import "time"

type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatExcel OutputFormat = "excel"
	FormatBoth  OutputFormat = "both"
)

// CrossValidationResult records the identity-consistency judgment together
// with the source values it was computed from, for auditability. Nil booleans
// mean the comparison was inconclusive, never inferred.
type CrossValidationResult struct {
	NameMatch      *bool    `json:"name_match"`
	NameMatchScore *float64 `json:"name_match_score,omitempty"`
	DOBMatch       *bool    `json:"dob_match"`
	Remarks        string   `json:"remarks"`

	IdentityName  string `json:"identity_name,omitempty"`
	EducationName string `json:"education_name,omitempty"`
	FinancialName string `json:"financial_name,omitempty"`
	IdentityDOB   string `json:"identity_dob,omitempty"`
	EducationDOB  string `json:"education_dob,omitempty"`
}

type RunMetadata struct {
	DocumentsScanned    int            `json:"total_documents_scanned"`
	DocumentsByCategory map[string]int `json:"documents_by_category"`
	MissingCategories   []Category     `json:"missing_categories,omitempty"`
	Errors              []string       `json:"processing_errors"`
	Warnings            []string       `json:"processing_warnings"`
	ElapsedSeconds      float64        `json:"processing_time_seconds"`
}

// UnifiedResult is the externally visible outcome of one run. Immutable once
// assembled by the output generator stage.
type UnifiedResult struct {
	RunID           string                 `json:"run_id"`
	Identity        *IdentitySummary       `json:"identity_summary,omitempty"`
	Financial       *FinancialSummary      `json:"financial_summary,omitempty"`
	Education       *EducationSummary      `json:"education_summary,omitempty"`
	CrossValidation *CrossValidationResult `json:"cross_validation,omitempty"`
	Metadata        RunMetadata            `json:"metadata"`
}

type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run is the persisted record of one pipeline invocation.
type Run struct {
	ID          string    `json:"id"`
	InputFolder string    `json:"input_folder"`
	OutputDir   string    `json:"output_dir,omitempty"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunRequest is the invocation surface consumed by the CLI and the queue
// worker.
type RunRequest struct {
	RunID              string       `json:"run_id"`
	InputFolder        string       `json:"input_folder"`
	OutputDir          string       `json:"output_dir"`
	Format             OutputFormat `json:"output_format"`
	FinancialThreshold float64      `json:"financial_threshold,omitempty"`
}
