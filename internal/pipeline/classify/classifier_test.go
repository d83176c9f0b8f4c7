package classify

import (
	"testing"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

func TestDuration(t *testing.T) {
	cases := []struct {
		duration float64
		want     domain.EventType
	}{
		{0.1, domain.EventTypeRepetition},
		{0.3, domain.EventTypeRepetition},
		{0.4, domain.EventTypeRepetition}, // boundary: strictly greater wins
		{0.41, domain.EventTypeBlock},
		{0.5, domain.EventTypeBlock},
		{0.8, domain.EventTypeBlock}, // boundary
		{0.81, domain.EventTypeProlongation},
		{1.2, domain.EventTypeProlongation},
	}

	for _, tc := range cases {
		if got := Duration(tc.duration); got != tc.want {
			t.Errorf("Duration(%v) = %s, want %s", tc.duration, got, tc.want)
		}
	}
}

func TestEvents(t *testing.T) {
	transcript := "the quick brown fox jumps over the lazy dog"
	intervals := []domain.Interval{
		{Start: 5.0, End: 6.5},  // prolongation
		{Start: 1.0, End: 1.3},  // repetition
		{Start: 2.0, End: 2.55}, // block
	}

	events := Events("analysis-1", intervals, transcript)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	// Ordered by start time regardless of input order.
	wantTypes := []domain.EventType{
		domain.EventTypeRepetition,
		domain.EventTypeBlock,
		domain.EventTypeProlongation,
	}
	for i, ev := range events {
		if ev.EventType != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.EventType, wantTypes[i])
		}
		if i > 0 && events[i-1].StartTime > ev.StartTime {
			t.Errorf("events not ordered by start time at %d", i)
		}
		if ev.AnalysisID != "analysis-1" {
			t.Errorf("event %d analysis ID = %q", i, ev.AnalysisID)
		}
		if ev.AffectedText != "the quick brown fox " {
			t.Errorf("event %d excerpt = %q", i, ev.AffectedText)
		}
		if ev.Confidence != 0.85 {
			t.Errorf("event %d confidence = %v", i, ev.Confidence)
		}
		if ev.ID == "" {
			t.Errorf("event %d missing ID", i)
		}
	}
}

func TestEvents_ShortTranscript(t *testing.T) {
	events := Events("a", []domain.Interval{{Start: 0, End: 0.2}}, "uh hi")
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AffectedText != "uh hi" {
		t.Errorf("excerpt = %q", events[0].AffectedText)
	}
}

func TestEvents_Empty(t *testing.T) {
	events := Events("a", nil, "text")
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
