// Package classify turns raw stutter timestamp intervals into typed,
// duration-classified events.
package classify

import (
	"sort"

	"github.com/google/uuid"
	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

const (
	// Duration thresholds in seconds; the longer-duration category wins.
	prolongationMin = 0.8
	blockMin        = 0.4

	// excerptLen is how much of the transcript is attached to each event.
	// The same excerpt is applied to every event of an analysis; a precise
	// per-event mapping would need word-level timestamps from the oracle.
	excerptLen = 20

	// eventConfidence is a fixed confidence for generated events. The
	// oracle does not report per-interval confidence today.
	eventConfidence = 0.85
)

// Duration classifies a single interval length in seconds.
// Note interjection is never produced here: the duration rule cannot
// distinguish an interjection from a repetition, so that type is reserved
// for events entered through other paths.
func Duration(d float64) domain.EventType {
	switch {
	case d > prolongationMin:
		return domain.EventTypeProlongation
	case d > blockMin:
		return domain.EventTypeBlock
	default:
		return domain.EventTypeRepetition
	}
}

// Events derives typed stutter events from the analysis's raw intervals,
// ordered by start time. Pure except for ID generation.
func Events(
	analysisID string,
	intervals []domain.Interval,
	actualTranscript string,
) []*domain.StutterEvent {
	excerpt := actualTranscript
	if len(excerpt) > excerptLen {
		excerpt = excerpt[:excerptLen]
	}

	events := make([]*domain.StutterEvent, 0, len(intervals))
	for _, iv := range intervals {
		events = append(events, &domain.StutterEvent{
			ID:           uuid.New().String(),
			AnalysisID:   analysisID,
			EventType:    Duration(iv.Duration()),
			StartTime:    iv.Start,
			EndTime:      iv.End,
			Duration:     iv.Duration(),
			AffectedText: excerpt,
			Confidence:   eventConfidence,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime < events[j].StartTime
	})
	return events
}
