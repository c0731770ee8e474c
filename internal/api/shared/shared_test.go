package shared

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinysteps/smart-explorer/internal/platform/logger"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	withTrace := SetTraceID(ctx)
	traceID := GetTraceID(withTrace)
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetTraceID(context.WithValue(ctx, TraceIDKey, 123)))
}

func TestGenerateTraceID_Unique(t *testing.T) {
	seen := make(map[string]bool, 500)
	for i := 0; i < 500; i++ {
		id := generateTraceID()
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	id := fallbackTraceID(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Len(t, id, 32)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
}

type sampleRequest struct {
	Name string `json:"name" validate:"required"`
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("nope")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	var req sampleRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"cup"}`))
	require.NoError(t, DecodeJSON(r, &req))
	assert.Equal(t, "cup", req.Name)

	var empty sampleRequest
	r = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.NoError(t, DecodeJSON(r, &empty))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.Error(t, DecodeJSON(r, &req))
}

func TestValidateRequest(t *testing.T) {
	assert.Error(t, ValidateRequest(sampleRequest{}))
	assert.NoError(t, ValidateRequest(sampleRequest{Name: "x"}))
	assert.Error(t, ValidateRequest(selfValidating{}))
	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
}

func TestRespondWithErrorAndLog(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := httptest.NewRequest(http.MethodGet, "/api/scenes", nil)
	ctx := logger.WithLogger(SetTraceID(r.Context()), log)
	r = r.WithContext(ctx)
	w := httptest.NewRecorder()

	err := errors.New("dial postgres://admin:hunter2@db:5432/app failed")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "An unexpected error occurred", err)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "An unexpected error occurred", body.Error)
	assert.Equal(t, GetTraceID(ctx), body.TraceID)
	assert.NotContains(t, w.Body.String(), "hunter2")

	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), body.TraceID)
	assert.NotContains(t, logs.String(), "hunter2")
}

func TestRespondWithError_LogLevels(t *testing.T) {
	tests := []struct {
		name   string
		status int
		opts   []ResponseOption
		level  string
	}{
		{"client error", http.StatusNotFound, nil, "DEBUG"},
		{"elevated client error", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(logger.WithLogger(r.Context(), log))

			RespondWithErrorAndLog(httptest.NewRecorder(), r, tc.status, "msg", nil, tc.opts...)
			assert.Contains(t, logs.String(), `"level":"`+tc.level+`"`)
		})
	}
}
