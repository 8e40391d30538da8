package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/EternisAI/bot-deployer/internal/api/http/dto"
	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		slog.Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "degraded", Database: "disconnected"})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Database: "connected"})
}
