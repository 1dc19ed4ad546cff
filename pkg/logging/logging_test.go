package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("route computed", "from", "正大门", "distance", 250.0, "stops", 3, "note", "two words")
	line := buf.String()

	assert.True(t, strings.HasPrefix(line, "[INFO]  "))
	assert.Contains(t, line, "route computed |")
	assert.Contains(t, line, "from=正大门")
	assert.Contains(t, line, "distance=250m")
	assert.Contains(t, line, "stops=3")
	assert.Contains(t, line, `note="two words"`)
}

func TestCompactHandlerKeepsWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, nil)).With("component", "engine").WithGroup("edit")

	log.Warn("rejected", "error", errors.New("boom"), "op", "add")
	line := buf.String()

	assert.True(t, strings.HasPrefix(line, "[WARN]  "))
	assert.Contains(t, line, "component=engine")
	assert.Contains(t, line, "edit.error=boom")
	assert.Contains(t, line, "edit.op=add")
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Error("shown")
	assert.Contains(t, buf.String(), "[ERROR]")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		want    slog.Level
		wantErr bool
	}{
		{"", 0, slog.LevelInfo, false},
		{"", 1, slog.LevelDebug, false},
		{"", 3, LevelTrace, false},
		{"WARN", 2, slog.LevelWarn, false},
		{"error", 0, slog.LevelError, false},
		{"loud", 0, slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name, tt.count)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, slog.LevelInfo, false)
	defer SetLevel(slog.LevelInfo)

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/graph", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, buf.String(), "request rejected")

	// An incoming ID is reused
	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "fixed-id", seen)
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", GetRequestID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))
}
