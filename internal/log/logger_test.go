package log

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"wealthnav/internal/core"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: &buf})
	l.WithComponent(ComponentLedger).Info("recorded", NewFields().WithSnapshot(core.NewSnapshot(core.NewDate(2026, 1, 1), core.Entry{Cash: 100, Spot: 200, Margin: -50}, core.DefaultGoal)).ToSlice()...)

	out := buf.String()
	for _, want := range []string{"component=app", "subcomponent=ledger", "snapshot_date=2026/01/01", "total=250"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Count(out, "component=app") != 1 {
		t.Errorf("component logged more than once: %q", out)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentHTTP, Output: &buf})
	l.LogError(t.Context(), "write failed", errors.New("boom"), OpReplace, FieldBackend, "sheets")

	out := buf.String()
	for _, want := range []string{"level=ERROR", "error=boom", "operation=replace", "backend=sheets"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentHTTP, Output: &buf})

	var fromCtx *Logger
	h := Middleware(l, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context())
		http.Error(w, "nope", http.StatusBadRequest)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/metrics", nil))

	if fromCtx == nil || fromCtx.Component() != ComponentHTTP {
		t.Fatalf("logger not on context: %+v", fromCtx)
	}
	out := buf.String()
	for _, want := range []string{"level=WARN", "request_id=req-1", "status_code=400", "path=/api/metrics"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if FromContext(t.Context()).Component() != "unknown" {
		t.Error("expected fallback logger")
	}
}
