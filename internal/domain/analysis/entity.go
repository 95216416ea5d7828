package analysis

import "time"

// RecordID identifier type
type RecordID string

// CategoryGuess is one suggested incident category with its confidence
type CategoryGuess struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SeverityGuess is the assessed severity with its confidence
type SeverityGuess struct {
	Severity   string  `json:"severity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// MitigationStep is one recommended remediation action
type MitigationStep struct {
	Strategy          string   `json:"strategy"`
	Priority          int      `json:"priority"`
	EstimatedTime     string   `json:"estimated_time"`
	ResourcesRequired []string `json:"resources_required"`
}

// Result is the terminal output of one analysis run
type Result struct {
	Categories           []CategoryGuess  `json:"categories"`
	Severity             SeverityGuess    `json:"severity"`
	MitigationStrategies []MitigationStep `json:"mitigation_strategies"`
	ConfidenceScore      float64          `json:"confidence_score"`
}

// EvidenceBundle is the merged textual evidence for one analysis run.
// Created per request, discarded after use.
type EvidenceBundle struct {
	CombinedText string `json:"combined_text"`
	HasImage     bool   `json:"has_image"`
	ImageText    string `json:"image_text,omitempty"`
	Sufficient   bool   `json:"sufficient"`
}

// InsufficientEvidenceResult is the canned low-confidence result used
// when the merged evidence is empty. The classifier must never be called
// with empty input.
func InsufficientEvidenceResult() *Result {
	return &Result{
		Categories: []CategoryGuess{{
			Category:   "unknown",
			Confidence: 0.1,
			Reasoning:  "No title, description, or image text available for analysis",
		}},
		Severity: SeverityGuess{
			Severity:   "unknown",
			Confidence: 0.1,
			Reasoning:  "Insufficient evidence to assess severity",
		},
		MitigationStrategies: []MitigationStep{{
			Strategy:          "Add a description or attachment to the incident, then re-run the analysis",
			Priority:          1,
			EstimatedTime:     "Immediate",
			ResourcesRequired: []string{"Reporter"},
		}},
		ConfidenceScore: 0.1,
	}
}

// Record is a persisted analysis run, kept for audit and retrieval
type Record struct {
	ID         RecordID  `json:"id"`
	TenantID   string    `json:"tenant_id"`
	IncidentID string    `json:"incident_id"`
	Result     string    `json:"result"` // JSON-encoded Result
	CreatedAt  time.Time `json:"created_at"`
}
