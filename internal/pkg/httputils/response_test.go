package httputils

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	ResponseJSON(rr, http.StatusCreated, map[string]int{"file_size": 42})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.JSONEq(t, `{"file_size":42}`, rr.Body.String())
}

func TestResponseJSONEncodeFailureKeepsStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	ResponseJSON(rr, http.StatusOK, math.Inf(1))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestResponseError(t *testing.T) {
	rr := httptest.NewRecorder()
	ResponseError(rr, http.StatusNotFound, "File not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "File not found", body.Message)
}

func TestResponseText(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set("Content-Type", "text/html; charset=utf-8")
	rr.Header().Set("Content-Length", "999")

	ResponseText(rr, http.StatusUnsupportedMediaType, "File type not allowed")

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rr.Header().Get("Content-Length"))
	assert.Equal(t, "File type not allowed\n", rr.Body.String())
}
