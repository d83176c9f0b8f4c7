// Package executor drives one recording through its processing lifecycle:
// claim, analyze, persist results, and schedule retries on failure.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/slaqresearch/slaq-version-d/internal/analysis"
	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/infra/audio"
	"github.com/slaqresearch/slaq-version-d/internal/infra/queue"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
	"github.com/slaqresearch/slaq-version-d/internal/metrics"
	"github.com/slaqresearch/slaq-version-d/internal/pipeline/classify"
)

// Analyzer is the scoring oracle contract the executor depends on.
type Analyzer interface {
	Analyze(ctx context.Context, audioData []byte, transcript string) (*analysis.Outcome, error)
}

// Config holds the retry policy for recording processing.
type Config struct {
	// MaxRetries is how many times a failed attempt is re-queued before
	// the recording stays failed permanently.
	MaxRetries int

	// RetryBackoff is the base delay unit; retry attempt n waits n times
	// this long before redelivery.
	RetryBackoff time.Duration
}

// DefaultConfig returns the standard retry policy: 3 retries at 60s, 120s,
// 180s.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   3,
		RetryBackoff: 60 * time.Second,
	}
}

// Executor processes one recording per task. Each attempt re-runs the
// whole pipeline; the store's one-to-one recording/analysis constraint
// keeps a raced or repeated attempt from committing a second result.
type Executor struct {
	cfg        Config
	recordings storage.RecordingRepository
	analyses   storage.AnalysisRepository
	events     storage.EventRepository
	audio      audio.Store
	analyzer   Analyzer
	tasks      queue.Queue
	log        *slog.Logger
	now        func() time.Time
}

// New creates a new task executor.
func New(
	cfg Config,
	recordings storage.RecordingRepository,
	analyses storage.AnalysisRepository,
	events storage.EventRepository,
	audioStore audio.Store,
	analyzer Analyzer,
	tasks queue.Queue,
) *Executor {
	if cfg.MaxRetries == 0 {
		cfg = DefaultConfig()
	}
	return &Executor{
		cfg:        cfg,
		recordings: recordings,
		analyses:   analyses,
		events:     events,
		audio:      audioStore,
		analyzer:   analyzer,
		tasks:      tasks,
		log:        slog.Default().With("component", "executor"),
		now:        time.Now,
	}
}

// Process runs one processing attempt for the task's recording. A missing
// recording fails fast and is never retried. Any later error marks the
// recording failed and, while retry budget remains, schedules the next
// attempt with the backoff policy.
func (e *Executor) Process(ctx context.Context, task *queue.Task) error {
	log := e.log.With("recording", task.RecordingID, "attempt", task.Attempt)

	rec, err := e.recordings.Get(ctx, task.RecordingID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordingNotFound) {
			log.Error("Recording not found, dropping task")
			return err
		}
		return e.fail(ctx, log, nil, task, fmt.Errorf("load recording: %w", err))
	}

	if err := rec.Transition(domain.RecordingStatusProcessing); err != nil {
		// Terminal recording redelivered: a concurrency or logic bug.
		// Surface it without touching the stored state.
		log.Error("Refusing to process recording", "status", rec.Status, "error", err)
		return err
	}
	if err := e.recordings.Save(ctx, rec); err != nil {
		return e.fail(ctx, log, rec, task, fmt.Errorf("claim recording: %w", err))
	}

	audioData, err := e.audio.Open(ctx, rec.AudioPath)
	if err != nil {
		return e.fail(ctx, log, rec, task, fmt.Errorf("open audio: %w", err))
	}

	// Duration is advisory: a computation or save failure is logged and
	// must not abort the pipeline.
	if seconds, err := audio.Duration(audioData); err != nil {
		log.Warn("Could not compute audio duration", "error", err)
	} else {
		rec.DurationSeconds = &seconds
		if err := e.recordings.Save(ctx, rec); err != nil {
			log.Warn("Could not save audio duration", "error", err)
		}
	}

	start := e.now()
	outcome, err := e.analyzer.Analyze(ctx, audioData, "")
	metrics.AnalysisLatency.Observe(e.now().Sub(start).Seconds())
	if err != nil {
		metrics.AnalysisRequests.WithLabelValues("error").Inc()
		return e.fail(ctx, log, rec, task, fmt.Errorf("analyze audio: %w", err))
	}
	metrics.AnalysisRequests.WithLabelValues("ok").Inc()

	result := newAnalysisResult(rec.ID, outcome, e.now())
	if err := e.analyses.Create(ctx, result); err != nil {
		return e.fail(ctx, log, rec, task, fmt.Errorf("persist analysis: %w", err))
	}

	// Event creation is best effort once the result is committed: the
	// analysis stands on its own and a partial event set is recoverable
	// from the stored timestamps.
	events := classify.Events(result.ID, result.StutterTimestamps, result.ActualTranscript)
	if err := e.events.BulkCreate(ctx, events); err != nil {
		log.Error("Failed to create stutter events", "count", len(events), "error", err)
	} else {
		metrics.StutterEventsCreated.Add(float64(len(events)))
	}

	if err := rec.MarkCompleted(e.now()); err != nil {
		return e.fail(ctx, log, rec, task, err)
	}
	if err := e.recordings.Save(ctx, rec); err != nil {
		return e.fail(ctx, log, rec, task, fmt.Errorf("complete recording: %w", err))
	}
	metrics.RecordingsProcessed.WithLabelValues("completed").Inc()

	// Report generation is a decoupled follow-up: the recording is already
	// completed, so an enqueue failure is logged but never unwinds it.
	reportTask := &queue.Task{
		ID:         uuid.New().String(),
		Kind:       queue.KindGenerateReport,
		PatientID:  rec.PatientID,
		AnalysisID: result.ID,
	}
	if err := e.tasks.Enqueue(ctx, reportTask); err != nil {
		log.Error("Failed to enqueue report generation", "analysis", result.ID, "error", err)
	}

	log.Info("Recording processed",
		"analysis", result.ID,
		"severity", result.Severity,
		"events", len(events),
	)
	return nil
}

// fail records the attempt's failure on the recording and schedules the
// next attempt while retry budget remains. rec is nil when the failure
// happened before the recording could be loaded.
func (e *Executor) fail(
	ctx context.Context,
	log *slog.Logger,
	rec *domain.Recording,
	task *queue.Task,
	cause error,
) error {
	log.Error("Processing attempt failed", "error", cause)
	metrics.RecordingsProcessed.WithLabelValues("failed").Inc()

	if rec != nil {
		if err := rec.MarkFailed(cause.Error(), e.now()); err != nil {
			log.Error("Could not mark recording failed", "status", rec.Status, "error", err)
		} else if err := e.recordings.Save(ctx, rec); err != nil {
			log.Error("Could not save failed recording", "error", err)
		}
	}

	next := task.Attempt + 1
	if next > e.cfg.MaxRetries {
		log.Error("Retry budget exhausted, recording stays failed", "retries", e.cfg.MaxRetries)
		return cause
	}

	retry := *task
	retry.Attempt = next
	delay := time.Duration(next) * e.cfg.RetryBackoff
	if err := e.tasks.EnqueueIn(ctx, &retry, delay); err != nil {
		log.Error("Failed to schedule retry", "error", err)
		return cause
	}
	metrics.RetriesScheduled.Inc()
	log.Info("Retry scheduled", "next_attempt", next, "delay", delay)
	return cause
}

// newAnalysisResult maps a scoring outcome onto the stored analysis record
// for one recording.
func newAnalysisResult(
	recordingID string,
	out *analysis.Outcome,
	now time.Time,
) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ID:                      uuid.New().String(),
		RecordingID:             recordingID,
		ActualTranscript:        out.ActualTranscript,
		TargetTranscript:        out.TargetTranscript,
		MismatchedChars:         out.MismatchedChars,
		MismatchPercentage:      out.MismatchPercentage,
		CTCLossScore:            out.CTCLossScore,
		StutterTimestamps:       out.StutterTimestamps,
		TotalStutterDuration:    out.TotalStutterDuration,
		StutterFrequency:        out.StutterFrequency,
		Severity:                out.Severity,
		ConfidenceScore:         out.ConfidenceScore,
		AnalysisDurationSeconds: out.AnalysisDurationSeconds,
		ModelVersion:            out.ModelVersion,
		CreatedAt:               now,
	}
}
