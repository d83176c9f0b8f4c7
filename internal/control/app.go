// Package control wires the application together and manages its lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/slaqresearch/slaq-version-d/internal/analysis"
	"github.com/slaqresearch/slaq-version-d/internal/analysis/mock"
	"github.com/slaqresearch/slaq-version-d/internal/core/config"
	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
	"github.com/slaqresearch/slaq-version-d/internal/health"
	"github.com/slaqresearch/slaq-version-d/internal/infra/audio"
	"github.com/slaqresearch/slaq-version-d/internal/infra/queue"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage/memory"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage/postgres"
	"github.com/slaqresearch/slaq-version-d/internal/pipeline/executor"
	"github.com/slaqresearch/slaq-version-d/internal/pipeline/report"
	"github.com/slaqresearch/slaq-version-d/internal/worker"
)

// App is the main application struct. It owns every long-lived component
// and shuts them down in reverse dependency order.
type App struct {
	cfg          config.AppConfig
	recordings   storage.RecordingRepository
	tasks        queue.Queue
	pool         *worker.Pool
	healthServer *health.Server
	db           *postgres.DB
	log          *slog.Logger
	now          func() time.Time
}

// NewApp creates a new App instance with all dependencies initialized.
// An empty database URL selects in-memory storage, an empty redis URL the
// in-memory queue, and an empty analysis URL the mock analyzer; all three
// are development conveniences and are logged as such.
func NewApp(cfg config.AppConfig) (*App, error) {

	// 1. Storage
	var recordings storage.RecordingRepository
	var analyses storage.AnalysisRepository
	var events storage.EventRepository
	var reports storage.ReportRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		// Migrations live in "migrations" relative to CWD.
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		recordings = postgres.NewRecordingRepo(db)
		analyses = postgres.NewAnalysisRepo(db)
		events = postgres.NewEventRepo(db)
		reports = postgres.NewReportRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		recordings = memory.NewRecordingRepo(store)
		analyses = memory.NewAnalysisRepo(store)
		events = memory.NewEventRepo(store)
		reports = memory.NewReportRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Task queue
	var tasks queue.Queue
	var queueHealth health.Pinger
	if cfg.Redis.URL != "" {
		rq, err := queue.NewRedisQueue(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis queue: %w", err)
		}
		tasks = rq
		queueHealth = rq
		slog.Info("Using Redis task queue")
	} else {
		mq := queue.NewMemoryQueue()
		tasks = mq
		queueHealth = mq
		slog.Info("Using Memory task queue")
	}

	// 3. Scoring oracle
	var analyzer executor.Analyzer
	if cfg.Analysis.URL != "" {
		analyzer = analysis.NewClient(cfg.Analysis.URL, analysis.WithTimeout(cfg.Analysis.Timeout))
	} else {
		analyzer = mock.New()
		slog.Warn("Analysis URL not configured, using mock analyzer")
	}

	audioStore := audio.NewFSStore(cfg.Audio.Root)

	// 4. Pipeline
	exec := executor.New(
		executor.Config{
			MaxRetries:   cfg.Worker.MaxRetries,
			RetryBackoff: cfg.Worker.RetryBackoff,
		},
		recordings,
		analyses,
		events,
		audioStore,
		analyzer,
		tasks,
	)
	generator := report.NewGenerator(analyses, events, reports)

	pool := worker.NewPool(
		worker.Config{
			Concurrency:        cfg.Worker.Concurrency,
			PollInterval:       cfg.Worker.PollInterval,
			ReportMaxRetries:   cfg.Worker.MaxRetries,
			ReportRetryBackoff: cfg.Worker.RetryBackoff,
		},
		tasks,
		exec,
		generator,
	)

	// 5. Health server
	checks := map[string]health.Pinger{"queue": queueHealth}
	if db != nil {
		checks["database"] = db
	}
	healthServer := health.NewServer(checks, cfg.Server.Port)

	return &App{
		cfg:          cfg,
		recordings:   recordings,
		tasks:        tasks,
		pool:         pool,
		healthServer: healthServer,
		db:           db,
		log:          slog.Default(),
		now:          time.Now,
	}, nil
}

// Start starts the app and all its components.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.pool.Start(ctx)
	return nil
}

// Stop stops the app.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping...")

	a.pool.Stop()

	if rq, ok := a.tasks.(*queue.RedisQueue); ok {
		if err := rq.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}

	return a.healthServer.Stop(ctx)
}

// Submit registers a new pending recording for the patient and enqueues
// its processing task. It returns the recording ID.
func (a *App) Submit(ctx context.Context, patientID, audioPath string, fileSize int64) (string, error) {
	rec := &domain.Recording{
		ID:         uuid.New().String(),
		PatientID:  patientID,
		AudioPath:  audioPath,
		Status:     domain.RecordingStatusPending,
		RecordedAt: a.now(),
	}
	if fileSize > 0 {
		rec.FileSizeBytes = &fileSize
	}

	if err := a.recordings.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("create recording: %w", err)
	}

	task := &queue.Task{
		ID:          uuid.New().String(),
		Kind:        queue.KindProcessRecording,
		RecordingID: rec.ID,
		PatientID:   patientID,
		EnqueuedAt:  a.now(),
	}
	if err := a.tasks.Enqueue(ctx, task); err != nil {
		return "", fmt.Errorf("enqueue processing: %w", err)
	}

	a.log.Info("Recording submitted", "recording", rec.ID, "patient", patientID)
	return rec.ID, nil
}
