package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"Error": slog.LevelError,
	} {
		if got, ok := ParseLevel(in); !ok || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, ok)
		}
	}

	if _, ok := ParseLevel("chatty"); ok {
		t.Error("unknown level accepted")
	}
}

func TestMiddlewareAddsRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	base := &Logger{Logger: slog.New(slog.NewTextHandler(buf, nil))}

	h := NewMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Info("handled")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/games/1", nil))

	line := buf.String()
	for _, want := range []string{"msg=handled", "request_id=", "method=GET", "path=/games/1"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q misses %q", line, want)
		}
	}
}

func TestFromContextFallback(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("no fallback logger")
	}
}
