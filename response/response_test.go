package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskmanager/backend/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestResponder_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	(&Responder{}).Success(rec, http.StatusCreated, "Create task successfully", map[string]string{"title": "x"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, "Create task successfully", body["message"])
	assert.Equal(t, map[string]any{"title": "x"}, body["data"])
}

func TestResponder_ApiError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/1", nil)
	(&Responder{}).Error(rec, req, apperrors.NewNotFound("Task not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Task not found", body["message"])
	assert.Equal(t, float64(404), body["statusCode"])
	assert.NotContains(t, body, "stack")
}

func TestResponder_InternalErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	(&Responder{}).Error(rec, req, errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode(t, rec)["message"])
}

func TestResponder_DevIncludesStack(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
	(&Responder{Dev: true}).Error(rec, req, apperrors.NewConflict("User already exists"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "User already exists", body["message"])
	assert.Contains(t, body["stack"], "User already exists")
}
