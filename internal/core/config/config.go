package config

import (
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/infra/queue"
	"github.com/slaqresearch/slaq-version-d/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig      `yaml:"server"`
	Database postgres.Config   `yaml:"database"`
	Redis    queue.RedisConfig `yaml:"redis"`
	Analysis AnalysisConfig    `yaml:"analysis"`
	Worker   WorkerConfig      `yaml:"worker"`
	Audio    AudioConfig       `yaml:"audio"`
	Logging  LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// AnalysisConfig holds settings for the external scoring oracle.
type AnalysisConfig struct {
	// URL is the oracle's analyze endpoint. Empty switches the service to
	// the built-in mock analyzer (dev mode).
	URL string `yaml:"url"`

	// Timeout bounds one scoring call end to end.
	Timeout time.Duration `yaml:"timeout"`
}

// WorkerConfig holds worker pool and retry policy settings.
type WorkerConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	PollInterval time.Duration `yaml:"poll_interval"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// AudioConfig holds audio payload storage settings.
type AudioConfig struct {
	// Root is the directory recordings' audio locators resolve under.
	Root string `yaml:"root"`
}
