package domain

import (
	"errors"
	"testing"
	"time"
)

func TestRecordingStatus_CanTransitionTo(t *testing.T) {
	statuses := []RecordingStatus{
		RecordingStatusPending,
		RecordingStatusProcessing,
		RecordingStatusCompleted,
		RecordingStatusFailed,
	}

	legal := map[RecordingStatus]map[RecordingStatus]bool{
		RecordingStatusPending:    {RecordingStatusProcessing: true},
		RecordingStatusProcessing: {RecordingStatusCompleted: true, RecordingStatusFailed: true},
		RecordingStatusFailed:     {RecordingStatusProcessing: true},
		RecordingStatusCompleted:  {},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			got := from.CanTransitionTo(to)
			want := legal[from][to]
			if got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestRecording_TransitionIllegal(t *testing.T) {
	rec := &Recording{Status: RecordingStatusCompleted}
	err := rec.Transition(RecordingStatusProcessing)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if rec.Status != RecordingStatusCompleted {
		t.Errorf("status mutated on illegal transition: %s", rec.Status)
	}
}

func TestRecording_RetryResetsAttemptOutcome(t *testing.T) {
	processed := time.Now()
	rec := &Recording{
		Status:       RecordingStatusFailed,
		ErrorMessage: "analyze audio: timeout",
		ProcessedAt:  &processed,
	}

	if err := rec.Transition(RecordingStatusProcessing); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	if rec.ErrorMessage != "" {
		t.Errorf("error message not cleared: %q", rec.ErrorMessage)
	}
	if rec.ProcessedAt != nil {
		t.Errorf("processed_at not cleared: %v", rec.ProcessedAt)
	}
}

func TestRecording_MarkCompleted(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	rec := &Recording{Status: RecordingStatusProcessing, ErrorMessage: "stale"}

	if err := rec.MarkCompleted(now); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	if rec.Status != RecordingStatusCompleted {
		t.Errorf("status = %s, want completed", rec.Status)
	}
	if rec.ErrorMessage != "" {
		t.Errorf("completed recording has error message %q", rec.ErrorMessage)
	}
	if rec.ProcessedAt == nil || !rec.ProcessedAt.Equal(now) {
		t.Errorf("processed_at = %v, want %v", rec.ProcessedAt, now)
	}
	if !rec.IsTerminal() {
		t.Error("completed recording should be terminal")
	}
}

func TestRecording_MarkFailed(t *testing.T) {
	now := time.Now()

	rec := &Recording{Status: RecordingStatusProcessing}
	if err := rec.MarkFailed("open audio: no such file", now); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if rec.Status != RecordingStatusFailed {
		t.Errorf("status = %s, want failed", rec.Status)
	}
	if rec.ErrorMessage != "open audio: no such file" {
		t.Errorf("error message = %q", rec.ErrorMessage)
	}
	if rec.ProcessedAt == nil {
		t.Error("processed_at not stamped")
	}

	// A failed recording must always carry some reason.
	rec2 := &Recording{Status: RecordingStatusProcessing}
	if err := rec2.MarkFailed("", now); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	if rec2.ErrorMessage != "unknown error" {
		t.Errorf("empty reason: error message = %q, want %q", rec2.ErrorMessage, "unknown error")
	}
}

func TestRecording_MarkFromPendingRejected(t *testing.T) {
	now := time.Now()
	rec := &Recording{Status: RecordingStatusPending}
	if err := rec.MarkCompleted(now); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("pending -> completed: expected ErrIllegalTransition, got %v", err)
	}
	if err := rec.MarkFailed("x", now); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("pending -> failed: expected ErrIllegalTransition, got %v", err)
	}
}
