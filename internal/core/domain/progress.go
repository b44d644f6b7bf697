package domain

// ProgressUpdate is emitted after each stage and, inside the dispatcher,
// after each per-category sub-step. Updates are ordered per run.
type ProgressUpdate struct {
	StageName          string `json:"stage_name"`
	StageIndex         int    `json:"stage_index"`
	TotalStages        int    `json:"total_stages"`
	SubAgent           string `json:"sub_agent,omitempty"`
	Message            string `json:"message"`
	CurrentDocument    string `json:"current_document,omitempty"`
	ProcessedDocuments int    `json:"processed_documents"`
	TotalDocuments     int    `json:"total_documents"`
}

// ProgressFunc receives progress updates. A nil func disables reporting; a
// panicking func must not abort the pipeline.
type ProgressFunc func(ProgressUpdate)
