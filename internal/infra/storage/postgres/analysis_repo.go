package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
)

// AnalysisRepo implements storage.AnalysisRepository using PostgreSQL.
type AnalysisRepo struct {
	db *DB
}

// NewAnalysisRepo creates a new PostgreSQL analysis repository.
func NewAnalysisRepo(db *DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

type analysisRow struct {
	ID                      string    `db:"id"`
	RecordingID             string    `db:"recording_id"`
	ActualTranscript        string    `db:"actual_transcript"`
	TargetTranscript        string    `db:"target_transcript"`
	MismatchedChars         []byte    `db:"mismatched_chars"`
	MismatchPercentage      float64   `db:"mismatch_percentage"`
	CTCLossScore            float64   `db:"ctc_loss_score"`
	StutterTimestamps       []byte    `db:"stutter_timestamps"`
	TotalStutterDuration    float64   `db:"total_stutter_duration"`
	StutterFrequency        float64   `db:"stutter_frequency"`
	Severity                string    `db:"severity"`
	ConfidenceScore         float64   `db:"confidence_score"`
	AnalysisDurationSeconds float64   `db:"analysis_duration_seconds"`
	ModelVersion            string    `db:"model_version"`
	CreatedAt               time.Time `db:"created_at"`
}

func (a *analysisRow) toDomain() (*domain.AnalysisResult, error) {
	res := &domain.AnalysisResult{
		ID:                      a.ID,
		RecordingID:             a.RecordingID,
		ActualTranscript:        a.ActualTranscript,
		TargetTranscript:        a.TargetTranscript,
		MismatchPercentage:      a.MismatchPercentage,
		CTCLossScore:            a.CTCLossScore,
		TotalStutterDuration:    a.TotalStutterDuration,
		StutterFrequency:        a.StutterFrequency,
		Severity:                domain.Severity(a.Severity),
		ConfidenceScore:         a.ConfidenceScore,
		AnalysisDurationSeconds: a.AnalysisDurationSeconds,
		ModelVersion:            a.ModelVersion,
		CreatedAt:               a.CreatedAt,
	}
	if len(a.MismatchedChars) > 0 {
		if err := json.Unmarshal(a.MismatchedChars, &res.MismatchedChars); err != nil {
			return nil, fmt.Errorf("failed to decode mismatched_chars: %w", err)
		}
	}
	if len(a.StutterTimestamps) > 0 {
		if err := json.Unmarshal(a.StutterTimestamps, &res.StutterTimestamps); err != nil {
			return nil, fmt.Errorf("failed to decode stutter_timestamps: %w", err)
		}
	}
	return res, nil
}

// Create persists a new analysis result. The unique constraint on
// recording_id is the exactly-once guard for retried attempts: a second
// insert for the same recording reports ErrAnalysisExists instead of
// committing a duplicate.
func (r *AnalysisRepo) Create(ctx context.Context, res *domain.AnalysisResult) error {
	mismatched, err := json.Marshal(res.MismatchedChars)
	if err != nil {
		return fmt.Errorf("failed to encode mismatched_chars: %w", err)
	}
	timestamps, err := json.Marshal(res.StutterTimestamps)
	if err != nil {
		return fmt.Errorf("failed to encode stutter_timestamps: %w", err)
	}

	query := `
		INSERT INTO analysis_results (
			id, recording_id, actual_transcript, target_transcript,
			mismatched_chars, mismatch_percentage, ctc_loss_score,
			stutter_timestamps, total_stutter_duration, stutter_frequency,
			severity, confidence_score, analysis_duration_seconds,
			model_version, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (recording_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		res.ID,
		res.RecordingID,
		res.ActualTranscript,
		res.TargetTranscript,
		mismatched,
		res.MismatchPercentage,
		res.CTCLossScore,
		timestamps,
		res.TotalStutterDuration,
		res.StutterFrequency,
		string(res.Severity),
		res.ConfidenceScore,
		res.AnalysisDurationSeconds,
		res.ModelVersion,
		res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create analysis result: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check analysis insert: %w", err)
	}
	if n == 0 {
		return storage.ErrAnalysisExists
	}
	return nil
}

const analysisColumns = `
	id, recording_id, actual_transcript, target_transcript,
	mismatched_chars, mismatch_percentage, ctc_loss_score,
	stutter_timestamps, total_stutter_duration, stutter_frequency,
	severity, confidence_score, analysis_duration_seconds,
	model_version, created_at
`

// Get retrieves an analysis result by ID.
func (r *AnalysisRepo) Get(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	query := `SELECT ` + analysisColumns + ` FROM analysis_results WHERE id = $1`

	var row analysisRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return row.toDomain()
}

// GetByRecording retrieves the recording's analysis result.
func (r *AnalysisRepo) GetByRecording(
	ctx context.Context,
	recordingID string,
) (*domain.AnalysisResult, error) {
	query := `SELECT ` + analysisColumns + ` FROM analysis_results WHERE recording_id = $1`

	var row analysisRow
	err := r.db.GetContext(ctx, &row, query, recordingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return row.toDomain()
}

// ListByPatient retrieves a patient's analysis history oldest-first, which
// is the order the progress metrics computation depends on.
func (r *AnalysisRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.AnalysisResult, error) {
	query := `
		SELECT
			a.id, a.recording_id, a.actual_transcript, a.target_transcript,
			a.mismatched_chars, a.mismatch_percentage, a.ctc_loss_score,
			a.stutter_timestamps, a.total_stutter_duration, a.stutter_frequency,
			a.severity, a.confidence_score, a.analysis_duration_seconds,
			a.model_version, a.created_at
		FROM analysis_results a
		JOIN recordings rec ON rec.id = a.recording_id
		WHERE rec.patient_id = $1
		ORDER BY a.created_at ASC
	`

	var rows []analysisRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	results := make([]*domain.AnalysisResult, 0, len(rows))
	for i := range rows {
		res, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
