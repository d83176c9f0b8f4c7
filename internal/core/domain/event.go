package domain

type EventType string

const (
	EventTypeRepetition   EventType = "repetition"
	EventTypeProlongation EventType = "prolongation"
	EventTypeBlock        EventType = "block"
	// EventTypeInterjection is part of the clinical taxonomy but is never
	// produced by the duration-based classifier; it exists for events
	// entered through other paths (e.g. clinician annotation).
	EventTypeInterjection EventType = "interjection"
)

// StutterEvent is a classified disfluent interval within one analysis.
// Events are created in bulk right after the analysis result and are
// immutable afterwards, ordered by start time.
type StutterEvent struct {
	ID           string
	AnalysisID   string
	EventType    EventType
	StartTime    float64 // seconds
	EndTime      float64 // seconds, > StartTime
	Duration     float64 // EndTime - StartTime
	AffectedText string
	Confidence   float64 // [0, 1]
}
