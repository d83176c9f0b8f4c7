// Package mock provides a canned scoring client for tests and for running
// the service without a configured oracle endpoint.
package mock

import (
	"context"
	"sync"

	"github.com/slaqresearch/slaq-version-d/internal/analysis"
	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

// Analyzer returns a configurable outcome or error and records every call.
type Analyzer struct {
	mu      sync.Mutex
	Outcome *analysis.Outcome
	Err     error
	calls   int
}

// New returns an Analyzer producing a benign no-stutter outcome.
func New() *Analyzer {
	return &Analyzer{
		Outcome: &analysis.Outcome{
			ActualTranscript:  "HELLO WORLD",
			TargetTranscript:  "HELLO WORLD",
			MismatchedChars:   []string{},
			StutterTimestamps: []domain.Interval{},
			Severity:          domain.SeverityNone,
			ConfidenceScore:   0.9,
			ModelVersion:      "mock",
		},
	}
}

func (a *Analyzer) Analyze(
	ctx context.Context,
	audioData []byte,
	transcript string,
) (*analysis.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if a.Err != nil {
		return nil, a.Err
	}
	out := *a.Outcome
	return &out, nil
}

// Calls returns how many times Analyze was invoked.
func (a *Analyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
