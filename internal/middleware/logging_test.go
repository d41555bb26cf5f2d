package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"jmap-bridge/internal/common/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := logging.NewZapLogger(logging.LogConfig{
		Level:  logging.DebugLevel,
		Output: buf,
		Format: logging.FormatJSON,
	})
	require.NoError(t, err)

	previous := logging.GetGlobalLogger()
	logging.SetGlobalLogger(logger)
	t.Cleanup(func() { logging.SetGlobalLogger(previous) })
	return buf
}

func TestRequestID(t *testing.T) {
	var seen interface{}
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(logging.RequestIDKey)
	}))

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "sync-42")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "sync-42", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "sync-42", seen)
	})
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "success", status: http.StatusOK, wantLevel: `"level":"INFO"`},
		{name: "client error", status: http.StatusBadRequest, wantLevel: `"level":"WARN"`},
		{name: "server error", status: http.StatusInternalServerError, wantLevel: `"level":"ERROR"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			handler := RequestID(LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			})))

			req := httptest.NewRequest(http.MethodPost, "/api/contacts/to-json?dialect=nextcloud", nil)
			req.Header.Set(RequestIDHeader, "req-1")
			req.Header.Set("User-Agent", "sync-client")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			line := buf.String()
			assert.Contains(t, line, "HTTP request completed")
			assert.Contains(t, line, tt.wantLevel)
			assert.Contains(t, line, `"path":"/api/contacts/to-json"`)
			assert.Contains(t, line, `"query":"dialect=nextcloud"`)
			assert.Contains(t, line, `"bytes":4`)
			assert.Contains(t, line, `"request_id":"req-1"`)
			assert.Contains(t, line, `"user_agent":"sync-client"`)
		})
	}
}

func TestLoggingMiddleware_DefaultStatus(t *testing.T) {
	buf := captureLogs(t)
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, strings.Contains(buf.String(), `"status":200`))
}
