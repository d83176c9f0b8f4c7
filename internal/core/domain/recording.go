package domain

import (
	"errors"
	"fmt"
	"time"
)

type RecordingStatus string

const (
	RecordingStatusPending    RecordingStatus = "pending"
	RecordingStatusProcessing RecordingStatus = "processing"
	RecordingStatusCompleted  RecordingStatus = "completed"
	RecordingStatusFailed     RecordingStatus = "failed"
)

// ErrIllegalTransition is returned when a status change violates the
// recording lifecycle. An illegal transition indicates a concurrency or
// logic bug and must never be silently ignored.
var ErrIllegalTransition = errors.New("illegal recording status transition")

// legalTransitions defines the recording lifecycle:
// pending -> processing -> completed | failed.
// failed -> processing is the retry path; completed is final.
var legalTransitions = map[RecordingStatus][]RecordingStatus{
	RecordingStatusPending:    {RecordingStatusProcessing},
	RecordingStatusProcessing: {RecordingStatusCompleted, RecordingStatusFailed},
	RecordingStatusFailed:     {RecordingStatusProcessing},
}

// CanTransitionTo reports whether the lifecycle allows moving to the
// given status.
func (s RecordingStatus) CanTransitionTo(to RecordingStatus) bool {
	for _, next := range legalTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Recording is one submitted audio sample awaiting or having undergone
// analysis. It is created in pending status by the upload path and mutated
// only by the task executor.
type Recording struct {
	ID              string
	PatientID       string
	AudioPath       string // opaque locator into the audio store
	Status          RecordingStatus
	DurationSeconds *float64
	FileSizeBytes   *int64
	RecordedAt      time.Time
	ProcessedAt     *time.Time
	ErrorMessage    string // non-empty iff Status == failed
}

// Transition moves the recording to a new status, enforcing lifecycle
// legality. Callers that need the terminal invariants (processed_at,
// error_message) should use MarkCompleted / MarkFailed instead.
func (r *Recording) Transition(to RecordingStatus) error {
	if !r.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, to)
	}
	r.Status = to
	if to == RecordingStatusProcessing {
		// A retry attempt fully resets the previous attempt's outcome.
		r.ErrorMessage = ""
		r.ProcessedAt = nil
	}
	return nil
}

// MarkCompleted transitions to completed and stamps the completion time.
func (r *Recording) MarkCompleted(now time.Time) error {
	if err := r.Transition(RecordingStatusCompleted); err != nil {
		return err
	}
	r.ErrorMessage = ""
	r.ProcessedAt = &now
	return nil
}

// MarkFailed transitions to failed, storing the human-readable reason.
func (r *Recording) MarkFailed(reason string, now time.Time) error {
	if err := r.Transition(RecordingStatusFailed); err != nil {
		return err
	}
	if reason == "" {
		reason = "unknown error"
	}
	r.ErrorMessage = reason
	r.ProcessedAt = &now
	return nil
}

// IsTerminal reports whether the recording has reached a final state.
// A failed recording is only conditionally terminal: the executor may
// re-enter processing while retry budget remains.
func (r *Recording) IsTerminal() bool {
	return r.Status == RecordingStatusCompleted || r.Status == RecordingStatusFailed
}
