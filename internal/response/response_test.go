package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadikoy/service/internal/apperr"
)

func TestFromErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Validation("file is empty"), http.StatusBadRequest, "file is empty"},
		{apperr.Unauthenticated("token expired"), http.StatusUnauthorized, "token expired"},
		{apperr.InvalidCredentials(), http.StatusUnauthorized, "invalid username or password"},
		{apperr.InsufficientRole("requires one of roles: Admin"), http.StatusForbidden, "requires one of roles: Admin"},
		{apperr.NotFound("news not found"), http.StatusNotFound, "news not found"},
		{apperr.Storage("upload failed", errors.New("bucket gone")), http.StatusInternalServerError, "internal server error"},
		{apperr.Persistence("insert failed", errors.New("conn reset")), http.StatusInternalServerError, "internal server error"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, zerolog.Nop(), tt.err)

			assert.Equal(t, tt.code, rec.Code)
			var env Envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.False(t, env.Success)
			assert.Equal(t, tt.msg, env.Error)
		})
	}
}

func TestFromErrorLogsServerFailures(t *testing.T) {
	var logs bytes.Buffer
	log := zerolog.New(&logs)

	FromError(httptest.NewRecorder(), log, apperr.NotFound("missing"))
	assert.Zero(t, logs.Len())

	FromError(httptest.NewRecorder(), log, apperr.Storage("upload failed", errors.New("bucket gone")))
	assert.Contains(t, logs.String(), "bucket gone")
	assert.Contains(t, logs.String(), `"kind":"storage"`)
}
