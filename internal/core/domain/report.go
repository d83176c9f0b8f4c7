package domain

import "time"

const ReportTypeSession = "session"

// Progress trend values computed across a patient's analysis history.
const (
	TrendImproving  = "improving"
	TrendNeedsFocus = "needs_focus"

	ProgressInsufficientData = "insufficient_data"
)

// KeyFindings is the structured findings block of a report.
type KeyFindings struct {
	PrimaryIssue     string   `json:"primary_issue"`
	ImprovementAreas []string `json:"improvement_areas"`
	Strengths        []string `json:"strengths"`
}

// ProgressMetrics compares the patient's first-ever analysis against the
// most recent one. Status is set to ProgressInsufficientData when fewer
// than two analyses exist; the numeric fields are meaningless in that case.
type ProgressMetrics struct {
	Status          string  `json:"status,omitempty"`
	MismatchChange  float64 `json:"mismatch_change"`
	FrequencyChange float64 `json:"frequency_change"`
	TotalSessions   int     `json:"total_sessions"`
	Trend           string  `json:"trend,omitempty"`
}

// Report is a patient-scoped narrative generated after each completed
// analysis. It references the triggering analysis through an append-only
// association.
type Report struct {
	ID              string
	PatientID       string
	ReportType      string
	Summary         string
	KeyFindings     KeyFindings
	ProgressMetrics ProgressMetrics
	Recommendations string // bullet-joined free text
	CreatedAt       time.Time
}

// TherapyRecommendation is a concrete exercise attached to a report.
type TherapyRecommendation struct {
	ID              string
	ReportID        string
	Title           string
	Description     string
	Difficulty      string // beginner, intermediate, advanced
	DurationMinutes int
	WeeklyFrequency int
	Instructions    string
}
