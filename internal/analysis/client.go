// Package analysis wraps the external speech-disfluency scoring service.
// The client is a stateless request/response wrapper: one shared instance
// is safe for concurrent use across the worker pool.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

// DefaultTimeout bounds one scoring call end to end. The oracle runs full
// model inference per request, so the bound is generous.
const DefaultTimeout = 300 * time.Second

// maxErrorBody limits how much of an error response is kept for logging.
const maxErrorBody = 500

// ErrorKind classifies a failed scoring call.
type ErrorKind string

const (
	// KindUnavailable covers transport failures and non-2xx responses.
	KindUnavailable ErrorKind = "unavailable"
	// KindTimeout covers deadline and network timeout failures.
	KindTimeout ErrorKind = "timeout"
	// KindMalformed covers responses that could not be decoded.
	KindMalformed ErrorKind = "malformed"
)

// Error is the typed failure returned by Analyze. All kinds are treated as
// transient by the executor's retry policy (a malformed response may be a
// one-off serialization glitch).
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Outcome is the fully-populated result of one scoring call. Every field
// carries an explicit default when missing from the oracle's response; a
// caller never sees a partially-populated outcome.
type Outcome struct {
	ActualTranscript        string
	TargetTranscript        string
	MismatchedChars         []string
	MismatchPercentage      float64
	CTCLossScore            float64
	StutterTimestamps       []domain.Interval
	TotalStutterDuration    float64
	StutterFrequency        float64
	Severity                domain.Severity
	ConfidenceScore         float64
	AnalysisDurationSeconds float64
	ModelVersion            string
}

// wireResult mirrors the oracle's JSON response. Any field may be absent.
type wireResult struct {
	ActualTranscript     string            `json:"actual_transcript"`
	TargetTranscript     string            `json:"target_transcript"`
	MismatchedChars      []string          `json:"mismatched_chars"`
	MismatchPercentage   float64           `json:"mismatch_percentage"`
	CTCLossScore         float64           `json:"ctc_loss_score"`
	StutterTimestamps    []domain.Interval `json:"stutter_timestamps"`
	TotalStutterDuration float64           `json:"total_stutter_duration"`
	StutterFrequency     float64           `json:"stutter_frequency"`
	Severity             string            `json:"severity"`
	ConfidenceScore      float64           `json:"confidence_score"`
	ModelVersion         string            `json:"model_version"`
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client calls the external scoring oracle. It holds no per-call mutable
// state beyond the reused HTTP client.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a scoring client for the given analyze endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Analyze submits the audio payload and optional reference transcript
// (empty string means not provided) and returns the normalized outcome.
// Exactly one network request is issued per call.
func (c *Client) Analyze(
	ctx context.Context,
	audioData []byte,
	transcript string,
) (*Outcome, error) {
	start := time.Now()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("audio", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("analysis: create form file: %w", err)
	}
	if _, err := fw.Write(audioData); err != nil {
		return nil, fmt.Errorf("analysis: write audio data: %w", err)
	}
	if err := mw.WriteField("transcript", transcript); err != nil {
		return nil, fmt.Errorf("analysis: write transcript field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("analysis: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("analysis: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		return nil, &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{
			Kind: KindUnavailable,
			Err:  fmt.Errorf("oracle returned %d: %s", resp.StatusCode, snippet),
		}
	}

	var raw wireResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &Error{Kind: KindMalformed, Err: fmt.Errorf("decode response: %w", err)}
	}

	return normalize(raw, transcript, time.Since(start)), nil
}

// normalize coerces the wire result into a fully-populated Outcome,
// applying the documented defaults for absent fields.
func normalize(raw wireResult, transcript string, elapsed time.Duration) *Outcome {
	out := &Outcome{
		ActualTranscript:        raw.ActualTranscript,
		TargetTranscript:        raw.TargetTranscript,
		MismatchedChars:         raw.MismatchedChars,
		MismatchPercentage:      raw.MismatchPercentage,
		CTCLossScore:            raw.CTCLossScore,
		StutterTimestamps:       raw.StutterTimestamps,
		TotalStutterDuration:    raw.TotalStutterDuration,
		StutterFrequency:        raw.StutterFrequency,
		Severity:                domain.Severity(raw.Severity),
		ConfidenceScore:         raw.ConfidenceScore,
		AnalysisDurationSeconds: float64(elapsed) / float64(time.Second),
		ModelVersion:            raw.ModelVersion,
	}
	if out.MismatchedChars == nil {
		out.MismatchedChars = []string{}
	}
	if out.StutterTimestamps == nil {
		out.StutterTimestamps = []domain.Interval{}
	}
	if out.Severity == "" {
		out.Severity = domain.SeverityNone
	}
	if out.TargetTranscript == "" && transcript != "" {
		out.TargetTranscript = strings.ToUpper(transcript)
	}
	if out.ModelVersion == "" {
		out.ModelVersion = "external-api"
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
