package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/slaqresearch/slaq-version-d/internal/core/domain"
)

func TestAnalyze_FullResponse(t *testing.T) {
	var gotTranscript string
	var gotAudio []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not a multipart request: %v", err)
		}
		gotTranscript = r.FormValue("transcript")
		f, _, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("missing audio part: %v", err)
		} else {
			buf := make([]byte, 16)
			n, _ := f.Read(buf)
			gotAudio = buf[:n]
			f.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"actual_transcript": "h hello world",
			"target_transcript": "HELLO WORLD",
			"mismatched_chars": ["h"],
			"mismatch_percentage": 12.5,
			"ctc_loss_score": 0.42,
			"stutter_timestamps": [[0.5, 1.0], [2.0, 3.1]],
			"total_stutter_duration": 1.6,
			"stutter_frequency": 4.0,
			"severity": "moderate",
			"confidence_score": 0.91,
			"model_version": "slaq-v2"
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.Analyze(context.Background(), []byte("RIFFdata"), "hello world")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if gotTranscript != "hello world" {
		t.Errorf("transcript field = %q", gotTranscript)
	}
	if string(gotAudio) != "RIFFdata" {
		t.Errorf("audio payload = %q", gotAudio)
	}
	if out.Severity != domain.SeverityModerate {
		t.Errorf("severity = %s", out.Severity)
	}
	if len(out.StutterTimestamps) != 2 || out.StutterTimestamps[1].End != 3.1 {
		t.Errorf("timestamps = %+v", out.StutterTimestamps)
	}
	if out.ModelVersion != "slaq-v2" {
		t.Errorf("model version = %q", out.ModelVersion)
	}
	if out.TargetTranscript != "HELLO WORLD" {
		t.Errorf("target transcript = %q", out.TargetTranscript)
	}
}

func TestAnalyze_Defaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	out, err := c.Analyze(context.Background(), []byte("x"), "some words")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if out.Severity != domain.SeverityNone {
		t.Errorf("severity default = %s, want none", out.Severity)
	}
	if out.MismatchedChars == nil || len(out.MismatchedChars) != 0 {
		t.Errorf("mismatched chars = %#v, want empty non-nil", out.MismatchedChars)
	}
	if out.StutterTimestamps == nil || len(out.StutterTimestamps) != 0 {
		t.Errorf("timestamps = %#v, want empty non-nil", out.StutterTimestamps)
	}
	if out.TargetTranscript != "SOME WORDS" {
		t.Errorf("target transcript default = %q, want upper-cased input", out.TargetTranscript)
	}
	if out.ModelVersion != "external-api" {
		t.Errorf("model version default = %q", out.ModelVersion)
	}
	if out.AnalysisDurationSeconds <= 0 {
		t.Errorf("analysis duration = %v, want > 0", out.AnalysisDurationSeconds)
	}
}

func TestAnalyze_NoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL).Analyze(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if out.TargetTranscript != "" {
		t.Errorf("target transcript = %q, want empty when no transcript provided", out.TargetTranscript)
	}
}

func TestAnalyze_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), []byte("x"), "")
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if aerr.Kind != KindUnavailable {
		t.Errorf("kind = %s, want unavailable", aerr.Kind)
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Analyze(context.Background(), []byte("x"), "")
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if aerr.Kind != KindMalformed {
		t.Errorf("kind = %s, want malformed", aerr.Kind)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithTimeout(20*time.Millisecond))
	_, err := c.Analyze(context.Background(), []byte("x"), "")
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if aerr.Kind != KindTimeout {
		t.Errorf("kind = %s, want timeout", aerr.Kind)
	}
}

func TestAnalyze_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := NewClient(srv.URL).Analyze(context.Background(), []byte("x"), "")
	var aerr *Error
	if !errors.As(err, &aerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if aerr.Kind != KindUnavailable {
		t.Errorf("kind = %s, want unavailable", aerr.Kind)
	}
}
