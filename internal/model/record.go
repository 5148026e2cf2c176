package model

import "time"

// TechSignal holds keyword hits found in a company description.
type TechSignal struct {
	LikelyStack        []string `json:"likely_stack"`
	AIMLIndicators     []string `json:"ai_ml_indicators"`
	DataInfrastructure []string `json:"data_infrastructure"`
}

// OutputRecord is the final per-company unit appended to the output collection.
type OutputRecord struct {
	RunID         string     `json:"run_id"`
	Index         int        `json:"index"`
	Company       Company    `json:"company"`
	Contacts      []Contact  `json:"contacts"`
	TechSignal    TechSignal `json:"tech_analysis"`
	Strategy      string     `json:"strategy"`
	StrategyError string     `json:"strategy_error,omitempty"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// StrategyFailed reports whether generation failed for this record.
func (r OutputRecord) StrategyFailed() bool {
	return r.StrategyError != ""
}
