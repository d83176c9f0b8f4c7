package storage

import (
	"context"
	"errors"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

var (
	// ErrRecordingNotFound is returned when a recording doesn't exist.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrAnalysisNotFound is returned when an analysis result doesn't exist.
	ErrAnalysisNotFound = errors.New("analysis result not found")

	// ErrAnalysisExists is returned when an analysis result already exists
	// for the recording. The store enforces the one-to-one relation so a
	// raced retry attempt fails instead of committing a duplicate.
	ErrAnalysisExists = errors.New("analysis result already exists for recording")
)

// RecordingRepository handles recording storage operations.
type RecordingRepository interface {
	// Create persists a new recording (normally in pending status).
	Create(ctx context.Context, rec *domain.Recording) error

	// Get retrieves a recording by ID, or ErrRecordingNotFound.
	Get(ctx context.Context, id string) (*domain.Recording, error)

	// Save persists status, duration, error and completion fields.
	Save(ctx context.Context, rec *domain.Recording) error

	// ListByPatient retrieves a patient's recordings, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Recording, error)
}

// AnalysisRepository handles analysis result storage operations.
type AnalysisRepository interface {
	// Create persists a new analysis result. Returns ErrAnalysisExists if
	// the recording already has one.
	Create(ctx context.Context, res *domain.AnalysisResult) error

	// Get retrieves an analysis result by ID, or ErrAnalysisNotFound.
	Get(ctx context.Context, id string) (*domain.AnalysisResult, error)

	// GetByRecording retrieves the recording's analysis result, or
	// ErrAnalysisNotFound.
	GetByRecording(ctx context.Context, recordingID string) (*domain.AnalysisResult, error)

	// ListByPatient retrieves all of a patient's analysis results ordered
	// by creation time ascending (oldest first).
	ListByPatient(ctx context.Context, patientID string) ([]*domain.AnalysisResult, error)
}

// EventRepository handles stutter event storage operations.
type EventRepository interface {
	// BulkCreate persists events in one batch.
	BulkCreate(ctx context.Context, events []*domain.StutterEvent) error

	// ListByAnalysis retrieves an analysis's events ordered by start time.
	ListByAnalysis(ctx context.Context, analysisID string) ([]*domain.StutterEvent, error)
}

// ReportRepository handles report and therapy recommendation storage.
type ReportRepository interface {
	// Create persists a new report.
	Create(ctx context.Context, report *domain.Report) error

	// Associate links a report to an analysis (append-only).
	Associate(ctx context.Context, reportID, analysisID string) error

	// BulkCreateRecommendations persists therapy recommendations in one batch.
	BulkCreateRecommendations(ctx context.Context, recs []*domain.TherapyRecommendation) error

	// ListByPatient retrieves a patient's reports, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*domain.Report, error)
}
