package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/salesdesk/internal/core"
)

// captureLogs routes the default logger to a JSON buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRespondError_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export", nil)
	rec := httptest.NewRecorder()

	respondError(rec, req, fmt.Errorf("export: %w", core.ErrNoDataset), http.StatusNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, "No file has been loaded yet (Code: DATA001). Load a sales file first\n", rec.Body.String())
}

func TestRespondError_LogLevel(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		wantLevel string
		wantCode  string
	}{
		{
			name:      "known client error",
			err:       core.ErrNoDataset,
			status:    http.StatusNotFound,
			wantLevel: "WARN",
			wantCode:  "DATA001",
		},
		{
			name:      "unmapped error with client status",
			err:       errors.New("checksum mismatch in block 7"),
			status:    http.StatusBadRequest,
			wantLevel: "ERROR",
			wantCode:  "ERR000",
		},
		{
			name:      "server error",
			err:       fmt.Errorf("%w: disk gone", core.ErrReadFailed),
			status:    http.StatusInternalServerError,
			wantLevel: "ERROR",
			wantCode:  "FILE007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
			rec := httptest.NewRecorder()
			respondError(rec, req, tt.err, tt.status)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantCode, entry["code"])
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}
