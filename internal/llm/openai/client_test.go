package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/lecture-notes/internal/common"
	"github.com/joseph-ayodele/lecture-notes/internal/llm"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCompleteSendsMessages checks the chat payload and response decoding.
func TestCompleteSendsMessages(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"course"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1/"}, quietLogger()).WithHTTPClient(srv.Client())
	out, err := c.Complete(context.Background(), llm.CompletionRequest{
		Model: "m", System: "sys", Prompt: "hello", Temperature: 0.1, MaxTokens: 4096,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "course" {
		t.Fatalf("Complete() = %q", out)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "hello" || got.MaxTokens != 4096 {
		t.Fatalf("request = %+v", got)
	}
}

// TestCompleteServerErrorIsTransient checks 5xx classification end to end.
func TestCompleteServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, quietLogger()).WithHTTPClient(srv.Client())
	_, err := c.Complete(context.Background(), llm.CompletionRequest{Model: "m", Prompt: "x"})
	if !common.IsTransient(err) {
		t.Fatalf("Complete() error = %v, want transient", err)
	}
}

// TestTranscribeSizePrecheck checks oversize files never reach the provider.
func TestTranscribeSizePrecheck(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "chunk_000.mp3")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, STTMaxBytes: 1024}, quietLogger()).WithHTTPClient(srv.Client())
	_, err := c.Transcribe(context.Background(), path, "fr")
	if !errors.Is(err, common.ErrFileTooLarge) {
		t.Fatalf("Transcribe() error = %v, want ErrFileTooLarge", err)
	}
	if called {
		t.Fatalf("provider must not be called for oversize files")
	}
}

// TestTranscribeMultipart checks form fields and verbose_json decoding.
func TestTranscribeMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("model") != "whisper-large-v3" || r.FormValue("response_format") != "verbose_json" || r.FormValue("language") != "fr" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		_, _ = w.Write([]byte(`{"text":" Bonjour à tous","language":"french","segments":[{"start":0,"end":1.2,"text":" Bonjour à tous"}]}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "chunk_000.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, quietLogger()).WithHTTPClient(srv.Client())
	res, err := c.Transcribe(context.Background(), path, "fr")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if !strings.Contains(res.Text, "Bonjour") || res.Language != "french" || len(res.Segments) != 1 || res.Segments[0].Text != "Bonjour à tous" {
		t.Fatalf("Transcribe() = %+v", res)
	}
}
