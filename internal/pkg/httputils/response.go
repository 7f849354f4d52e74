package httputils

import (
	"encoding/json"
	"net/http"
	"tush00nka/bbbab_files/api/response"

	"go.uber.org/zap"
)

// ResponseError writes the JSON error body used by the /api routes.
func ResponseError(w http.ResponseWriter, status int, message string) {
	ResponseJSON(w, status, response.ErrorResponse{Message: message})
}

func ResponseJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON response",
			zap.Int("status", status), zap.Error(err))
	}
}

// ResponseText is the error reply of the browser routes. The form posts
// straight to the server, so the user sees the message as is.
func ResponseText(w http.ResponseWriter, status int, message string) {
	w.Header().Del("Content-Length")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message + "\n"))
}
