package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
)

// RecordingRepo implements storage.RecordingRepository using PostgreSQL.
type RecordingRepo struct {
	db *DB
}

// NewRecordingRepo creates a new PostgreSQL recording repository.
func NewRecordingRepo(db *DB) *RecordingRepo {
	return &RecordingRepo{db: db}
}

type recordingRow struct {
	ID              string              `db:"id"`
	PatientID       string              `db:"patient_id"`
	AudioPath       string              `db:"audio_path"`
	Status          string              `db:"status"`
	DurationSeconds sql.Null[float64]   `db:"duration_seconds"`
	FileSizeBytes   sql.Null[int64]     `db:"file_size_bytes"`
	RecordedAt      time.Time           `db:"recorded_at"`
	ProcessedAt     sql.Null[time.Time] `db:"processed_at"`
	ErrorMessage    string              `db:"error_message"`
}

func (r *recordingRow) toDomain() *domain.Recording {
	rec := &domain.Recording{
		ID:           r.ID,
		PatientID:    r.PatientID,
		AudioPath:    r.AudioPath,
		Status:       domain.RecordingStatus(r.Status),
		RecordedAt:   r.RecordedAt,
		ErrorMessage: r.ErrorMessage,
	}
	if r.DurationSeconds.Valid {
		v := r.DurationSeconds.V
		rec.DurationSeconds = &v
	}
	if r.FileSizeBytes.Valid {
		v := r.FileSizeBytes.V
		rec.FileSizeBytes = &v
	}
	if r.ProcessedAt.Valid {
		v := r.ProcessedAt.V
		rec.ProcessedAt = &v
	}
	return rec
}

// Create persists a new recording.
func (r *RecordingRepo) Create(ctx context.Context, rec *domain.Recording) error {
	query := `
		INSERT INTO recordings (id, patient_id, audio_path, status, duration_seconds, file_size_bytes, recorded_at, processed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.PatientID,
		rec.AudioPath,
		string(rec.Status),
		rec.DurationSeconds,
		rec.FileSizeBytes,
		rec.RecordedAt,
		rec.ProcessedAt,
		rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	return nil
}

// Get retrieves a recording by ID.
func (r *RecordingRepo) Get(ctx context.Context, id string) (*domain.Recording, error) {
	query := `
		SELECT id, patient_id, audio_path, status, duration_seconds, file_size_bytes, recorded_at, processed_at, error_message
		FROM recordings
		WHERE id = $1
	`

	var row recordingRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recording: %w", err)
	}
	return row.toDomain(), nil
}

// Save persists the recording's mutable lifecycle fields.
func (r *RecordingRepo) Save(ctx context.Context, rec *domain.Recording) error {
	query := `
		UPDATE recordings
		SET status = $2, duration_seconds = $3, processed_at = $4, error_message = $5
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Status),
		rec.DurationSeconds,
		rec.ProcessedAt,
		rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrRecordingNotFound
	}
	return nil
}

// ListByPatient retrieves a patient's recordings, newest first.
func (r *RecordingRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.Recording, error) {
	query := `
		SELECT id, patient_id, audio_path, status, duration_seconds, file_size_bytes, recorded_at, processed_at, error_message
		FROM recordings
		WHERE patient_id = $1
		ORDER BY recorded_at DESC
	`

	var rows []recordingRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}

	recs := make([]*domain.Recording, 0, len(rows))
	for i := range rows {
		recs = append(recs, rows[i].toDomain())
	}
	return recs, nil
}
