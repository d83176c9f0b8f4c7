package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// severityLabels maps severities to their clinical display labels.
var severityLabels = map[Severity]string{
	SeverityNone:     "No Stuttering",
	SeverityMild:     "Mild",
	SeverityModerate: "Moderate",
	SeveritySevere:   "Severe",
}

// Display returns the human-readable label for the severity, falling back
// to the raw value for anything the oracle invents.
func (s Severity) Display() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return string(s)
}

// Interval is a stutter timestamp pair in seconds. On the wire it is a
// two-element JSON array [start, end], matching the oracle's response shape.
type Interval struct {
	Start float64
	End   float64
}

func (iv Interval) Duration() float64 {
	return iv.End - iv.Start
}

func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{iv.Start, iv.End})
}

func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("interval must be a [start, end] pair: %w", err)
	}
	iv.Start = pair[0]
	iv.End = pair[1]
	return nil
}

// AnalysisResult holds the scoring oracle's output for exactly one
// recording. It is written once at the end of a successful processing
// attempt and never mutated; the store enforces the one-to-one relation
// with the recording.
type AnalysisResult struct {
	ID                      string
	RecordingID             string
	ActualTranscript        string
	TargetTranscript        string
	MismatchedChars         []string
	MismatchPercentage      float64 // [0, 100]
	CTCLossScore            float64 // lower is better
	StutterTimestamps       []Interval
	TotalStutterDuration    float64 // seconds
	StutterFrequency        float64 // events per minute
	Severity                Severity
	ConfidenceScore         float64 // [0, 1]
	AnalysisDurationSeconds float64
	ModelVersion            string
	CreatedAt               time.Time
}
