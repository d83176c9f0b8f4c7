// Package queue provides the durable work queue for the processing
// pipeline. Each schedulable unit of work (process one recording, generate
// one report) is a Task delivered at least once; delayed delivery backs the
// executor's retry policy.
package queue

import (
	"context"
	"time"
)

type Kind string

const (
	KindProcessRecording Kind = "process_recording"
	KindGenerateReport   Kind = "generate_report"
)

// Task is the work-unit envelope. The attempt counter travels on the
// envelope rather than living in hidden scheduler state: attempt 0 is the
// initial delivery, attempt n a retry scheduled after n prior failures.
type Task struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	RecordingID string    `json:"recording_id,omitempty"`
	PatientID   string    `json:"patient_id,omitempty"`
	AnalysisID  string    `json:"analysis_id,omitempty"`
	Attempt     int       `json:"attempt"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Queue is the at-least-once task queue contract.
type Queue interface {
	// Enqueue makes the task available for immediate delivery.
	Enqueue(ctx context.Context, task *Task) error

	// EnqueueIn makes the task available after the given delay.
	EnqueueIn(ctx context.Context, task *Task, delay time.Duration) error

	// Dequeue claims the next ready task. Returns found=false when no task
	// is ready.
	Dequeue(ctx context.Context) (task *Task, found bool, err error)

	// Size returns the number of queued tasks, ready or delayed.
	Size(ctx context.Context) (int64, error)
}
