package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

// ReportRepo implements storage.ReportRepository using PostgreSQL.
type ReportRepo struct {
	db *DB
}

// NewReportRepo creates a new PostgreSQL report repository.
func NewReportRepo(db *DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create persists a new report.
func (r *ReportRepo) Create(ctx context.Context, report *domain.Report) error {
	findings, err := json.Marshal(report.KeyFindings)
	if err != nil {
		return fmt.Errorf("failed to encode key_findings: %w", err)
	}
	progress, err := json.Marshal(report.ProgressMetrics)
	if err != nil {
		return fmt.Errorf("failed to encode progress_metrics: %w", err)
	}

	query := `
		INSERT INTO reports (id, patient_id, report_type, summary, key_findings, progress_metrics, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.PatientID,
		report.ReportType,
		report.Summary,
		findings,
		progress,
		report.Recommendations,
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// Associate links a report to an analysis.
func (r *ReportRepo) Associate(ctx context.Context, reportID, analysisID string) error {
	query := `
		INSERT INTO report_analyses (report_id, analysis_id)
		VALUES ($1, $2)
		ON CONFLICT (report_id, analysis_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, reportID, analysisID)
	if err != nil {
		return fmt.Errorf("failed to associate report with analysis: %w", err)
	}
	return nil
}

// BulkCreateRecommendations saves therapy recommendations in one transaction.
func (r *ReportRepo) BulkCreateRecommendations(
	ctx context.Context,
	recs []*domain.TherapyRecommendation,
) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO therapy_recommendations (id, report_id, title, description, difficulty, duration_minutes, weekly_frequency, instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.ExecContext(ctx,
			rec.ID,
			rec.ReportID,
			rec.Title,
			rec.Description,
			rec.Difficulty,
			rec.DurationMinutes,
			rec.WeeklyFrequency,
			rec.Instructions,
		)
		if err != nil {
			return fmt.Errorf("failed to save therapy recommendation: %w", err)
		}
	}

	return tx.Commit()
}

type reportRow struct {
	ID              string    `db:"id"`
	PatientID       string    `db:"patient_id"`
	ReportType      string    `db:"report_type"`
	Summary         string    `db:"summary"`
	KeyFindings     []byte    `db:"key_findings"`
	ProgressMetrics []byte    `db:"progress_metrics"`
	Recommendations string    `db:"recommendations"`
	CreatedAt       time.Time `db:"created_at"`
}

func (row *reportRow) toDomain() (*domain.Report, error) {
	report := &domain.Report{
		ID:              row.ID,
		PatientID:       row.PatientID,
		ReportType:      row.ReportType,
		Summary:         row.Summary,
		Recommendations: row.Recommendations,
		CreatedAt:       row.CreatedAt,
	}
	if len(row.KeyFindings) > 0 {
		if err := json.Unmarshal(row.KeyFindings, &report.KeyFindings); err != nil {
			return nil, fmt.Errorf("failed to decode key_findings: %w", err)
		}
	}
	if len(row.ProgressMetrics) > 0 {
		if err := json.Unmarshal(row.ProgressMetrics, &report.ProgressMetrics); err != nil {
			return nil, fmt.Errorf("failed to decode progress_metrics: %w", err)
		}
	}
	return report, nil
}

// ListByPatient retrieves a patient's reports, newest first.
func (r *ReportRepo) ListByPatient(
	ctx context.Context,
	patientID string,
) ([]*domain.Report, error) {
	query := `
		SELECT id, patient_id, report_type, summary, key_findings, progress_metrics, recommendations, created_at
		FROM reports
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`

	var rows []reportRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]*domain.Report, 0, len(rows))
	for i := range rows {
		rep, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
