package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted pipeline run.
type Run struct {
	ID        string          `json:"id"`
	Profile   json.RawMessage `json:"profile"`
	Status    RunStatus       `json:"status"`
	Summary   *Summary        `json:"summary,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PhaseStatus represents the outcome of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult records the timing and outcome of one pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Summary aggregates counts for a completed run.
type Summary struct {
	CompaniesDiscovered int              `json:"companies_discovered"`
	CompaniesEnriched   int              `json:"companies_enriched"`
	CompaniesProcessed  int              `json:"companies_processed"`
	StrategiesFailed    int              `json:"strategies_failed"`
	ContactsFound       int              `json:"contacts_found"`
	Classification      map[Category]int `json:"classification"`
	ContactsByDomain    map[string]int   `json:"contacts_by_domain,omitempty"`
	Phases              []PhaseResult    `json:"phases,omitempty"`
	StartedAt           time.Time        `json:"started_at"`
	FinishedAt          time.Time        `json:"finished_at"`
}

// NewSummary returns a Summary with every category counter present.
func NewSummary() *Summary {
	cls := make(map[Category]int, 3)
	for _, c := range AllCategories() {
		cls[c] = 0
	}
	return &Summary{Classification: cls}
}

// RunResult is returned by the pipeline for one run. When discovery finds
// nothing only Error is set.
type RunResult struct {
	RunID   string         `json:"run_id,omitempty"`
	Summary *Summary       `json:"summary,omitempty"`
	Records []OutputRecord `json:"records,omitempty"`
	Error   string         `json:"error,omitempty"`
}
