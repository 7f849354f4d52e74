package handler

import (
	"context"
	"net/http"
	"time"
	"tush00nka/bbbab_files/internal/pkg/httputils"

	"go.uber.org/zap"
)

type PongResponse struct {
	Message string `json:"message"`
}

// Ping
// @Summary Пингануть сервер
// @Description Пингануть сервер
// @Tags system
// @Produce json
// @Success 200 {object} PongResponse
// @Router /ping [get]
func Ping(w http.ResponseWriter, r *http.Request) {
	httputils.ResponseJSON(w, http.StatusOK, PongResponse{Message: "Pong"})
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	log     *zap.Logger
}

func NewHealthHandler(checks map[string]HealthCheck, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 3 * time.Second,
		log:     log.Named("health"),
	}
}

// Health
// @Summary Проверка зависимостей
// @Description Пингует базу и хранилище объектов
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	httputils.ResponseJSON(w, status, resp)
}
