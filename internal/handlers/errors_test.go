package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/service"
	"kotoba/internal/validation"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "validation", err: validation.ValidationError{Field: "name", Message: "set name is required"}, status: http.StatusBadRequest, code: "validation_failed"},
		{name: "wrapped sentinel", err: fmt.Errorf("loading: %w", service.ErrSetNotFound), status: http.StatusNotFound, code: "set_not_found"},
		{name: "credentials", err: service.ErrInvalidCredentials, status: http.StatusUnauthorized, code: "invalid_credentials"},
		{name: "state", err: learning.ErrNotRevealed, status: http.StatusConflict, code: "not_revealed"},
		{name: "unknown", err: errors.New("disk full"), status: http.StatusInternalServerError, code: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithError(rec, logger.NewNop(), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRespondWithErrorLogsUnknownErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	rec := httptest.NewRecorder()
	respondWithError(rec, log, errors.New("boom"))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "boom", logs.All()[0].ContextMap()["error"])
	assert.NotContains(t, rec.Body.String(), "boom")
}
