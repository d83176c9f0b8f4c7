// Package worker runs the pool of goroutines that claim work units from
// the task queue and dispatch them to the pipeline components.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/slaqresearch/slaq-version-d/internal/infra/queue"
	"github.com/slaqresearch/slaq-version-d/internal/metrics"
)

// RecordingProcessor runs one processing attempt for a recording task.
type RecordingProcessor interface {
	Process(ctx context.Context, task *queue.Task) error
}

// ReportGenerator builds one report for a (patient, analysis) pair.
type ReportGenerator interface {
	Generate(ctx context.Context, patientID, analysisID string) (string, error)
}

// Config holds worker pool settings.
type Config struct {
	// Concurrency is the number of worker goroutines.
	Concurrency int

	// PollInterval is how long an idle worker sleeps between queue polls.
	PollInterval time.Duration

	// ReportMaxRetries bounds re-deliveries of a failed report task.
	ReportMaxRetries int

	// ReportRetryBackoff is the base delay unit for report retries.
	ReportRetryBackoff time.Duration
}

// DefaultConfig returns the standard pool settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:        4,
		PollInterval:       time.Second,
		ReportMaxRetries:   3,
		ReportRetryBackoff: 60 * time.Second,
	}
}

// Pool consumes the task queue with a fixed number of workers. Tasks for
// unrelated recordings run in parallel with no ordering guarantee; one
// task runs strictly sequentially inside a single worker.
type Pool struct {
	cfg       Config
	tasks     queue.Queue
	processor RecordingProcessor
	reports   ReportGenerator
	log       *slog.Logger
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// NewPool creates a worker pool.
func NewPool(
	cfg Config,
	tasks queue.Queue,
	processor RecordingProcessor,
	reports ReportGenerator,
) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	return &Pool{
		cfg:       cfg,
		tasks:     tasks,
		processor: processor,
		reports:   reports,
		log:       slog.Default().With("component", "worker"),
	}
}

// Start launches the worker goroutines. It returns immediately; workers
// run until the context is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.group, ctx = errgroup.WithContext(ctx)

	for i := 0; i < p.cfg.Concurrency; i++ {
		worker := i
		p.group.Go(func() error {
			p.run(ctx, worker)
			return nil
		})
	}

	p.group.Go(func() error {
		p.observeDepth(ctx)
		return nil
	})

	p.log.Info("Worker pool started", "concurrency", p.cfg.Concurrency)
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.group != nil {
		_ = p.group.Wait()
	}
	p.log.Info("Worker pool stopped")
}

func (p *Pool) run(ctx context.Context, worker int) {
	log := p.log.With("worker", worker)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, found, err := p.tasks.Dequeue(ctx)
		if err != nil {
			log.Error("Failed to dequeue task", "error", err)
			p.sleep(ctx)
			continue
		}
		if !found {
			p.sleep(ctx)
			continue
		}

		p.dispatch(ctx, log, task)
	}
}

// Drain processes queued tasks until the queue is empty. Synchronous
// helper for tests and one-shot tooling; the polling workers are the
// production path.
func (p *Pool) Drain(ctx context.Context) error {
	for {
		task, found, err := p.tasks.Dequeue(ctx)
		if err != nil {
			return err
		}
		if !found {
			return nil
		}
		p.dispatch(ctx, p.log, task)
	}
}

func (p *Pool) dispatch(ctx context.Context, log *slog.Logger, task *queue.Task) {
	switch task.Kind {
	case queue.KindProcessRecording:
		// The executor owns failure handling and retry scheduling for
		// recording tasks; the returned error is already accounted for.
		if err := p.processor.Process(ctx, task); err != nil {
			log.Debug("Recording task failed", "recording", task.RecordingID, "error", err)
		}
	case queue.KindGenerateReport:
		if _, err := p.reports.Generate(ctx, task.PatientID, task.AnalysisID); err != nil {
			p.retryReport(ctx, log, task, err)
		}
	default:
		log.Error("Unknown task kind, dropping", "kind", task.Kind, "task", task.ID)
	}
}

// retryReport re-queues a failed report task with backoff. Report failures
// never touch the recording's state; past the budget they are only
// observable in logs and metrics.
func (p *Pool) retryReport(ctx context.Context, log *slog.Logger, task *queue.Task, cause error) {
	log.Error("Report generation failed",
		"patient", task.PatientID,
		"analysis", task.AnalysisID,
		"attempt", task.Attempt,
		"error", cause,
	)

	next := task.Attempt + 1
	if next > p.cfg.ReportMaxRetries {
		log.Error("Report retry budget exhausted", "analysis", task.AnalysisID)
		return
	}

	retry := *task
	retry.Attempt = next
	delay := time.Duration(next) * p.cfg.ReportRetryBackoff
	if err := p.tasks.EnqueueIn(ctx, &retry, delay); err != nil {
		log.Error("Failed to re-queue report task", "error", err)
	}
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.cfg.PollInterval):
	}
}

// observeDepth periodically exports the queue depth gauge.
func (p *Pool) observeDepth(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			depth, err := p.tasks.Size(ctx)
			if err != nil {
				continue
			}
			metrics.QueueDepth.Set(float64(depth))
		}
	}
}
