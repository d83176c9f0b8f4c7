// Package report aggregates one completed analysis with the patient's
// history into a session report, progress metrics and therapy exercises.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
	"github.com/slaqresearch/slaq-version-d/internal/metrics"
)

// Clinical thresholds used across findings and recommendations.
const (
	highMismatchPct   = 30.0 // speech fluency needs work above this
	clearSpeechPct    = 15.0 // high clarity below this
	highFrequency     = 5.0  // events/minute considered frequent
	lowFrequency      = 3.0  // events/minute considered low
	longTotalDuration = 10.0 // seconds of total stuttering considered long
	highConfidence    = 0.8
)

// Generator computes and persists reports. No network I/O: its only
// effects are store writes.
type Generator struct {
	analyses storage.AnalysisRepository
	events   storage.EventRepository
	reports  storage.ReportRepository
	log      *slog.Logger
	now      func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(
	analyses storage.AnalysisRepository,
	events storage.EventRepository,
	reports storage.ReportRepository,
) *Generator {
	return &Generator{
		analyses: analyses,
		events:   events,
		reports:  reports,
		log:      slog.Default().With("component", "report"),
		now:      time.Now,
	}
}

// Generate builds a session report for the patient from the given analysis
// plus their full analysis history, persists it together with its therapy
// recommendations, and returns the report ID.
func (g *Generator) Generate(ctx context.Context, patientID, analysisID string) (string, error) {
	analysis, err := g.analyses.Get(ctx, analysisID)
	if err != nil {
		return "", fmt.Errorf("load analysis: %w", err)
	}

	events, err := g.events.ListByAnalysis(ctx, analysisID)
	if err != nil {
		return "", fmt.Errorf("load events: %w", err)
	}

	history, err := g.analyses.ListByPatient(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("load analysis history: %w", err)
	}

	report := &domain.Report{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		ReportType: domain.ReportTypeSession,
		Summary:    summarize(analysis),
		KeyFindings: domain.KeyFindings{
			PrimaryIssue:     primaryIssue(events),
			ImprovementAreas: improvementAreas(analysis),
			Strengths:        strengths(analysis),
		},
		ProgressMetrics: progressMetrics(history),
		Recommendations: recommendations(analysis),
		CreatedAt:       g.now(),
	}

	if err := g.reports.Create(ctx, report); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("create report: %w", err)
	}
	if err := g.reports.Associate(ctx, report.ID, analysisID); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("associate analysis: %w", err)
	}
	if err := g.reports.BulkCreateRecommendations(ctx, therapyExercises(report.ID, analysis)); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("create therapy recommendations: %w", err)
	}

	metrics.ReportsGenerated.WithLabelValues("ok").Inc()
	g.log.Info("Session report generated",
		"report", report.ID,
		"patient", patientID,
		"analysis", analysisID,
	)
	return report.ID, nil
}

// summarize renders the human-readable session summary.
func summarize(a *domain.AnalysisResult) string {
	if a.Severity == domain.SeverityNone {
		return fmt.Sprintf(
			"No significant stuttering detected. Speech clarity: %.1f%%",
			100-a.MismatchPercentage,
		)
	}
	return fmt.Sprintf(
		"%s stuttering detected with %.1f%% speech disfluency. "+
			"Analysis identified %d stutter events totaling %.2f seconds. "+
			"Frequency: %.1f stutters per minute.",
		a.Severity.Display(),
		a.MismatchPercentage,
		len(a.StutterTimestamps),
		a.TotalStutterDuration,
		a.StutterFrequency,
	)
}

// primaryIssue names the most frequent event type; ties keep the type
// whose maximal count was encountered first in event order.
func primaryIssue(events []*domain.StutterEvent) string {
	if len(events) == 0 {
		return "No significant issues detected"
	}

	counts := make(map[domain.EventType]int)
	var order []domain.EventType
	for _, ev := range events {
		if counts[ev.EventType] == 0 {
			order = append(order, ev.EventType)
		}
		counts[ev.EventType]++
	}

	primary := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[primary] {
			primary = t
		}
	}

	label := strings.ToUpper(string(primary)[:1]) + string(primary)[1:]
	return fmt.Sprintf("Primary issue: %s (%d occurrences)", label, counts[primary])
}

func improvementAreas(a *domain.AnalysisResult) []string {
	var areas []string
	if a.MismatchPercentage > highMismatchPct {
		areas = append(areas, "Speech fluency and clarity")
	}
	if a.StutterFrequency > highFrequency {
		areas = append(areas, "Reducing frequency of disfluencies")
	}
	if a.TotalStutterDuration > longTotalDuration {
		areas = append(areas, "Shortening duration of stutter events")
	}
	if len(areas) == 0 {
		return []string{"Continue current progress"}
	}
	return areas
}

func strengths(a *domain.AnalysisResult) []string {
	var found []string
	if a.MismatchPercentage < clearSpeechPct {
		found = append(found, "High speech clarity")
	}
	if a.StutterFrequency < lowFrequency {
		found = append(found, "Low stutter frequency")
	}
	if a.ConfidenceScore > highConfidence {
		found = append(found, "Consistent speech patterns")
	}
	if len(found) == 0 {
		return []string{"Working towards improvement"}
	}
	return found
}

// progressMetrics compares the patient's first-ever analysis against the
// most recent one. history must be ordered oldest first.
func progressMetrics(history []*domain.AnalysisResult) domain.ProgressMetrics {
	if len(history) < 2 {
		return domain.ProgressMetrics{Status: domain.ProgressInsufficientData}
	}

	first := history[0]
	latest := history[len(history)-1]

	trend := domain.TrendNeedsFocus
	if latest.MismatchPercentage < first.MismatchPercentage {
		trend = domain.TrendImproving
	}

	return domain.ProgressMetrics{
		MismatchChange:  first.MismatchPercentage - latest.MismatchPercentage,
		FrequencyChange: first.StutterFrequency - latest.StutterFrequency,
		TotalSessions:   len(history),
		Trend:           trend,
	}
}

// recommendations renders the bullet-joined free-text recommendation list.
func recommendations(a *domain.AnalysisResult) string {
	var recs []string

	if a.Severity == domain.SeverityModerate || a.Severity == domain.SeveritySevere {
		recs = append(recs,
			"Continue daily practice sessions (15-20 minutes)",
			"Focus on slow, controlled breathing before speaking",
		)
	}
	if a.StutterFrequency > highFrequency {
		recs = append(recs, "Practice phrase repetition exercises")
	}
	if a.TotalStutterDuration > longTotalDuration {
		recs = append(recs, "Work on prolongation reduction techniques")
	}
	recs = append(recs, "Record progress weekly to track improvement")

	var b strings.Builder
	for i, rec := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("• ")
		b.WriteString(rec)
	}
	return b.String()
}

// therapyExercises builds the concrete exercise records for the report:
// breathing work for everyone, slow speech practice for moderate and
// severe cases.
func therapyExercises(reportID string, a *domain.AnalysisResult) []*domain.TherapyRecommendation {
	exercises := []*domain.TherapyRecommendation{
		{
			ID:              uuid.New().String(),
			ReportID:        reportID,
			Title:           "Diaphragmatic Breathing",
			Description:     "Practice controlled breathing to improve speech fluency",
			Difficulty:      "beginner",
			DurationMinutes: 10,
			WeeklyFrequency: 7,
			Instructions: "1. Sit comfortably with back straight\n" +
				"2. Place one hand on chest, one on stomach\n" +
				"3. Breathe deeply through nose (stomach should rise)\n" +
				"4. Exhale slowly through mouth\n" +
				"5. Repeat for 10 minutes daily",
		},
	}

	if a.Severity == domain.SeverityModerate || a.Severity == domain.SeveritySevere {
		exercises = append(exercises, &domain.TherapyRecommendation{
			ID:              uuid.New().String(),
			ReportID:        reportID,
			Title:           "Slow Speech Practice",
			Description:     "Practice speaking at a reduced rate",
			Difficulty:      "intermediate",
			DurationMinutes: 15,
			WeeklyFrequency: 5,
			Instructions: "1. Choose a short paragraph\n" +
				"2. Read it at half your normal speed\n" +
				"3. Pause between words\n" +
				"4. Focus on smooth transitions\n" +
				"5. Gradually increase speed while maintaining fluency",
		})
	}

	return exercises
}
