package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage/memory"
)

type fixture struct {
	gen        *Generator
	store      *memory.MemoryStorage
	recordings *memory.RecordingRepo
	analyses   *memory.AnalysisRepo
	events     *memory.EventRepo
	reports    *memory.ReportRepo
	clock      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewMemoryStorage()
	f := &fixture{
		store:      store,
		recordings: memory.NewRecordingRepo(store),
		analyses:   memory.NewAnalysisRepo(store),
		events:     memory.NewEventRepo(store),
		reports:    memory.NewReportRepo(store),
		clock:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	f.gen = NewGenerator(f.analyses, f.events, f.reports)
	f.gen.now = func() time.Time { return f.clock }
	return f
}

// addAnalysis stores an analysis with a backing recording so patient
// history lookups see it.
func (f *fixture) addAnalysis(t *testing.T, a *domain.AnalysisResult, patientID string) {
	t.Helper()
	ctx := context.Background()
	rec := &domain.Recording{
		ID:         "rec-" + a.ID,
		PatientID:  patientID,
		AudioPath:  "x.wav",
		Status:     domain.RecordingStatusCompleted,
		RecordedAt: a.CreatedAt,
	}
	if err := f.recordings.Create(ctx, rec); err != nil {
		t.Fatal(err)
	}
	a.RecordingID = rec.ID
	if err := f.analyses.Create(ctx, a); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) report(t *testing.T, id string) *domain.Report {
	t.Helper()
	reports, err := f.reports.ListByPatient(context.Background(), "patient-1")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range reports {
		if r.ID == id {
			return r
		}
	}
	t.Fatalf("report %s not stored", id)
	return nil
}

func TestGenerate_ModerateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := &domain.AnalysisResult{
		ID:                   "a-1",
		MismatchPercentage:   25.5,
		StutterTimestamps:    []domain.Interval{{Start: 1, End: 2}, {Start: 3, End: 3.5}, {Start: 5, End: 5.2}},
		TotalStutterDuration: 1.7,
		StutterFrequency:     6.0,
		Severity:             domain.SeverityModerate,
		ConfidenceScore:      0.9,
		CreatedAt:            f.clock,
	}
	f.addAnalysis(t, a, "patient-1")

	if err := f.events.BulkCreate(ctx, []*domain.StutterEvent{
		{ID: "e1", AnalysisID: "a-1", EventType: domain.EventTypeRepetition, StartTime: 1},
		{ID: "e2", AnalysisID: "a-1", EventType: domain.EventTypeBlock, StartTime: 3},
		{ID: "e3", AnalysisID: "a-1", EventType: domain.EventTypeRepetition, StartTime: 5},
	}); err != nil {
		t.Fatal(err)
	}

	id, err := f.gen.Generate(ctx, "patient-1", "a-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rep := f.report(t, id)
	wantSummary := "Moderate stuttering detected with 25.5% speech disfluency. " +
		"Analysis identified 3 stutter events totaling 1.70 seconds. " +
		"Frequency: 6.0 stutters per minute."
	if rep.Summary != wantSummary {
		t.Errorf("summary = %q\nwant      %q", rep.Summary, wantSummary)
	}
	if rep.KeyFindings.PrimaryIssue != "Primary issue: Repetition (2 occurrences)" {
		t.Errorf("primary issue = %q", rep.KeyFindings.PrimaryIssue)
	}
	if rep.ReportType != domain.ReportTypeSession {
		t.Errorf("report type = %s", rep.ReportType)
	}
	if !rep.CreatedAt.Equal(f.clock) {
		t.Errorf("created at = %v", rep.CreatedAt)
	}

	// moderate severity + frequency above 5 -> both recommendation groups
	for _, want := range []string{
		"• Continue daily practice sessions (15-20 minutes)",
		"• Focus on slow, controlled breathing before speaking",
		"• Practice phrase repetition exercises",
		"• Record progress weekly to track improvement",
	} {
		if !strings.Contains(rep.Recommendations, want) {
			t.Errorf("recommendations missing %q:\n%s", want, rep.Recommendations)
		}
	}

	// The report links back to its analysis.
	assoc := f.store.Associations(id)
	if len(assoc) != 1 || assoc[0] != "a-1" {
		t.Errorf("associations = %v", assoc)
	}

	// Moderate cases get both exercises.
	recs := f.store.Recommendations(id)
	if len(recs) != 2 {
		t.Fatalf("therapy recommendations = %d, want 2", len(recs))
	}
	if recs[0].Title != "Diaphragmatic Breathing" || recs[0].Difficulty != "beginner" {
		t.Errorf("first exercise = %+v", recs[0])
	}
	if recs[1].Title != "Slow Speech Practice" || recs[1].DurationMinutes != 15 || recs[1].WeeklyFrequency != 5 {
		t.Errorf("second exercise = %+v", recs[1])
	}
}

func TestGenerate_CleanSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := &domain.AnalysisResult{
		ID:                 "a-1",
		MismatchPercentage: 4.0,
		StutterFrequency:   0.5,
		Severity:           domain.SeverityNone,
		ConfidenceScore:    0.95,
		CreatedAt:          f.clock,
	}
	f.addAnalysis(t, a, "patient-1")

	id, err := f.gen.Generate(ctx, "patient-1", "a-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rep := f.report(t, id)
	if rep.Summary != "No significant stuttering detected. Speech clarity: 96.0%" {
		t.Errorf("summary = %q", rep.Summary)
	}
	if rep.KeyFindings.PrimaryIssue != "No significant issues detected" {
		t.Errorf("primary issue = %q", rep.KeyFindings.PrimaryIssue)
	}
	if len(rep.KeyFindings.ImprovementAreas) != 1 ||
		rep.KeyFindings.ImprovementAreas[0] != "Continue current progress" {
		t.Errorf("improvement areas = %v", rep.KeyFindings.ImprovementAreas)
	}
	wantStrengths := []string{"High speech clarity", "Low stutter frequency", "Consistent speech patterns"}
	if len(rep.KeyFindings.Strengths) != len(wantStrengths) {
		t.Fatalf("strengths = %v", rep.KeyFindings.Strengths)
	}
	for i, s := range wantStrengths {
		if rep.KeyFindings.Strengths[i] != s {
			t.Errorf("strength %d = %q, want %q", i, rep.KeyFindings.Strengths[i], s)
		}
	}
	if rep.Recommendations != "• Record progress weekly to track improvement" {
		t.Errorf("recommendations = %q", rep.Recommendations)
	}

	// Breathing exercise only.
	recs := f.store.Recommendations(id)
	if len(recs) != 1 || recs[0].Title != "Diaphragmatic Breathing" {
		t.Errorf("therapy recommendations = %+v", recs)
	}
	if rep.ProgressMetrics.Status != domain.ProgressInsufficientData {
		t.Errorf("single session progress status = %q", rep.ProgressMetrics.Status)
	}
}

func TestGenerate_SevereImprovementAreas(t *testing.T) {
	f := newFixture(t)

	a := &domain.AnalysisResult{
		ID:                   "a-1",
		MismatchPercentage:   45.0,
		StutterFrequency:     8.0,
		TotalStutterDuration: 12.0,
		Severity:             domain.SeveritySevere,
		CreatedAt:            f.clock,
	}
	f.addAnalysis(t, a, "patient-1")

	id, err := f.gen.Generate(context.Background(), "patient-1", "a-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	rep := f.report(t, id)
	want := []string{
		"Speech fluency and clarity",
		"Reducing frequency of disfluencies",
		"Shortening duration of stutter events",
	}
	if len(rep.KeyFindings.ImprovementAreas) != len(want) {
		t.Fatalf("improvement areas = %v", rep.KeyFindings.ImprovementAreas)
	}
	for i, w := range want {
		if rep.KeyFindings.ImprovementAreas[i] != w {
			t.Errorf("area %d = %q, want %q", i, rep.KeyFindings.ImprovementAreas[i], w)
		}
	}
	if len(rep.KeyFindings.Strengths) != 1 ||
		rep.KeyFindings.Strengths[0] != "Working towards improvement" {
		t.Errorf("strengths = %v", rep.KeyFindings.Strengths)
	}
	if !strings.Contains(rep.Recommendations, "• Work on prolongation reduction techniques") {
		t.Errorf("recommendations = %q", rep.Recommendations)
	}
}

func TestGenerate_ProgressImproving(t *testing.T) {
	f := newFixture(t)

	first := &domain.AnalysisResult{
		ID:                 "a-1",
		MismatchPercentage: 40.0,
		StutterFrequency:   7.0,
		Severity:           domain.SeverityModerate,
		CreatedAt:          f.clock.Add(-48 * time.Hour),
	}
	middle := &domain.AnalysisResult{
		ID:                 "a-2",
		MismatchPercentage: 33.0,
		StutterFrequency:   6.0,
		Severity:           domain.SeverityModerate,
		CreatedAt:          f.clock.Add(-24 * time.Hour),
	}
	latest := &domain.AnalysisResult{
		ID:                 "a-3",
		MismatchPercentage: 25.0,
		StutterFrequency:   4.0,
		Severity:           domain.SeverityMild,
		CreatedAt:          f.clock,
	}
	f.addAnalysis(t, first, "patient-1")
	f.addAnalysis(t, middle, "patient-1")
	f.addAnalysis(t, latest, "patient-1")

	id, err := f.gen.Generate(context.Background(), "patient-1", "a-3")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	pm := f.report(t, id).ProgressMetrics
	if pm.Status != "" {
		t.Errorf("status = %q, want empty", pm.Status)
	}
	if pm.Trend != domain.TrendImproving {
		t.Errorf("trend = %q", pm.Trend)
	}
	if pm.MismatchChange != 15.0 {
		t.Errorf("mismatch change = %v, want 15", pm.MismatchChange)
	}
	if pm.FrequencyChange != 3.0 {
		t.Errorf("frequency change = %v, want 3", pm.FrequencyChange)
	}
	if pm.TotalSessions != 3 {
		t.Errorf("total sessions = %d", pm.TotalSessions)
	}
}

func TestGenerate_ProgressNeedsFocus(t *testing.T) {
	f := newFixture(t)

	first := &domain.AnalysisResult{
		ID:                 "a-1",
		MismatchPercentage: 20.0,
		Severity:           domain.SeverityMild,
		CreatedAt:          f.clock.Add(-24 * time.Hour),
	}
	latest := &domain.AnalysisResult{
		ID:                 "a-2",
		MismatchPercentage: 30.0,
		Severity:           domain.SeverityModerate,
		CreatedAt:          f.clock,
	}
	f.addAnalysis(t, first, "patient-1")
	f.addAnalysis(t, latest, "patient-1")

	id, err := f.gen.Generate(context.Background(), "patient-1", "a-2")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	pm := f.report(t, id).ProgressMetrics
	if pm.Trend != domain.TrendNeedsFocus {
		t.Errorf("trend = %q", pm.Trend)
	}
	if pm.MismatchChange != -10.0 {
		t.Errorf("mismatch change = %v, want -10", pm.MismatchChange)
	}
}

func TestGenerate_PrimaryIssueTie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := &domain.AnalysisResult{
		ID:        "a-1",
		Severity:  domain.SeverityMild,
		CreatedAt: f.clock,
	}
	f.addAnalysis(t, a, "patient-1")

	// Two blocks and two repetitions; block appears first by start time.
	if err := f.events.BulkCreate(ctx, []*domain.StutterEvent{
		{ID: "e1", AnalysisID: "a-1", EventType: domain.EventTypeBlock, StartTime: 1},
		{ID: "e2", AnalysisID: "a-1", EventType: domain.EventTypeRepetition, StartTime: 2},
		{ID: "e3", AnalysisID: "a-1", EventType: domain.EventTypeBlock, StartTime: 3},
		{ID: "e4", AnalysisID: "a-1", EventType: domain.EventTypeRepetition, StartTime: 4},
	}); err != nil {
		t.Fatal(err)
	}

	id, err := f.gen.Generate(ctx, "patient-1", "a-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if got := f.report(t, id).KeyFindings.PrimaryIssue; got != "Primary issue: Block (2 occurrences)" {
		t.Errorf("primary issue = %q", got)
	}
}

func TestGenerate_MissingAnalysis(t *testing.T) {
	f := newFixture(t)
	_, err := f.gen.Generate(context.Background(), "patient-1", "ghost")
	if !errors.Is(err, storage.ErrAnalysisNotFound) {
		t.Fatalf("expected ErrAnalysisNotFound, got %v", err)
	}
}
