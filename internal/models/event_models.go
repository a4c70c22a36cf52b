package models

import "time"

// AnalysisEvent is published to the results topic after a successful analysis.
type AnalysisEvent struct {
	AnalysisID string           `json:"analysis_id"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
	Cached     bool             `json:"cached"`
	Text       string           `json:"text"`
	Vocabulary []string         `json:"vocabulary"`
	Result     AnalysisResponse `json:"result"`
}
