package postgres

import (
	"context"
	"fmt"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

// EventRepo implements storage.EventRepository using PostgreSQL.
type EventRepo struct {
	db *DB
}

// NewEventRepo creates a new PostgreSQL stutter event repository.
func NewEventRepo(db *DB) *EventRepo {
	return &EventRepo{db: db}
}

// BulkCreate saves events in a single transaction.
func (r *EventRepo) BulkCreate(ctx context.Context, events []*domain.StutterEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO stutter_events (id, analysis_id, event_type, start_time, end_time, duration, affected_text, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.ExecContext(ctx,
			ev.ID,
			ev.AnalysisID,
			string(ev.EventType),
			ev.StartTime,
			ev.EndTime,
			ev.Duration,
			ev.AffectedText,
			ev.Confidence,
		)
		if err != nil {
			return fmt.Errorf("failed to save stutter event: %w", err)
		}
	}

	return tx.Commit()
}

type eventRow struct {
	ID           string  `db:"id"`
	AnalysisID   string  `db:"analysis_id"`
	EventType    string  `db:"event_type"`
	StartTime    float64 `db:"start_time"`
	EndTime      float64 `db:"end_time"`
	Duration     float64 `db:"duration"`
	AffectedText string  `db:"affected_text"`
	Confidence   float64 `db:"confidence"`
}

func (e *eventRow) toDomain() *domain.StutterEvent {
	return &domain.StutterEvent{
		ID:           e.ID,
		AnalysisID:   e.AnalysisID,
		EventType:    domain.EventType(e.EventType),
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		Duration:     e.Duration,
		AffectedText: e.AffectedText,
		Confidence:   e.Confidence,
	}
}

// ListByAnalysis retrieves an analysis's events ordered by start time.
func (r *EventRepo) ListByAnalysis(
	ctx context.Context,
	analysisID string,
) ([]*domain.StutterEvent, error) {
	query := `
		SELECT id, analysis_id, event_type, start_time, end_time, duration, affected_text, confidence
		FROM stutter_events
		WHERE analysis_id = $1
		ORDER BY start_time ASC
	`

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, analysisID); err != nil {
		return nil, fmt.Errorf("failed to list stutter events: %w", err)
	}

	events := make([]*domain.StutterEvent, 0, len(rows))
	for i := range rows {
		events = append(events, rows[i].toDomain())
	}
	return events, nil
}
