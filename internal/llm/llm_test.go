package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"

	"github.com/joseph-ayodele/lecture-notes/constants"
	"github.com/joseph-ayodele/lecture-notes/internal/common"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestIsTransient covers the retryable provider conditions.
func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &StatusError{StatusCode: 429}, true},
		{"503", &StatusError{StatusCode: 503}, true},
		{"wrapped 500", fmt.Errorf("chat: %w", &StatusError{StatusCode: 500}), true},
		{"400", &StatusError{StatusCode: 400}, false},
		{"401", &StatusError{StatusCode: 401}, false},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"reset", syscall.ECONNRESET, true},
		{"eof", io.ErrUnexpectedEOF, true},
		{"canceled", context.Canceled, false},
		{"marked", common.MarkTransient(errors.New("x")), true},
		{"plain", errors.New("bad json"), false},
	}
	for _, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Fatalf("IsTransient(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}

// TestSendJSONStatusError checks non-2xx mapping and transient marking.
func TestSendJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing auth header")
		}
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{"a": 1}, map[string]string{"Authorization": "Bearer k"}, quietLogger())
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 429 {
		t.Fatalf("SendJSON() error = %v, want StatusError 429", err)
	}
	if !common.IsTransient(err) {
		t.Fatalf("SendJSON() error = %v should be marked transient", err)
	}
}

// TestSendJSONCanceledIsNotTransient checks caller cancellation is terminal.
func TestSendJSONCanceledIsNotTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SendJSON(ctx, srv.Client(), srv.URL, map[string]any{}, nil, quietLogger())
	if err == nil || common.IsTransient(err) {
		t.Fatalf("SendJSON() error = %v, want non-transient failure", err)
	}
}

// TestFormatStrategyCoversEveryType checks each category has its own strategy.
func TestFormatStrategyCoversEveryType(t *testing.T) {
	seen := map[string]constants.ContentType{}
	for _, ct := range constants.ContentTypes() {
		s := FormatStrategy(ct)
		if s == "" {
			t.Fatalf("FormatStrategy(%s) is empty", ct)
		}
		if prev, dup := seen[s]; dup {
			t.Fatalf("FormatStrategy(%s) duplicates %s", ct, prev)
		}
		seen[s] = ct
	}
}

// TestNotesPrompts checks template selection and system prompt content.
func TestNotesPrompts(t *testing.T) {
	if TemplateFor(constants.Training) != TemplateCourse || TemplateFor(constants.Meeting) != TemplateNoteStructure {
		t.Fatalf("TemplateFor() mapping is wrong")
	}
	sys := BuildNotesSystemPrompt(constants.Meeting, constants.ImageMarker)
	for _, want := range []string{"MEETING", "MINUTES", constants.ImageMarker, "3 and 5"} {
		if !strings.Contains(sys, want) {
			t.Fatalf("system prompt missing %q", want)
		}
	}
	p := BuildNotesPrompt(constants.Course, "TRANSCRIPT BODY", "SLIDE TEXT")
	if !strings.Contains(p, "TRANSCRIPT BODY") || !strings.Contains(p, "SLIDE TEXT") || !strings.Contains(p, "complete course") {
		t.Fatalf("BuildNotesPrompt() = %q", p)
	}
}
