package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/EternisAI/bot-deployer/internal/api/http/dto"
	"github.com/EternisAI/bot-deployer/internal/deployments"
	"github.com/EternisAI/bot-deployer/internal/heroku"
	"github.com/gin-gonic/gin"
)

type DeploymentService interface {
	Deploy(ctx context.Context, req deployments.DeployRequest) (deployments.DeployResult, error)
	ListBots(ctx context.Context, token string) ([]deployments.Bot, error)
	CountDeployments(ctx context.Context, owner string) (int64, error)
	DeleteBot(ctx context.Context, appName, token string) error
	BotTypes() []string
}

type DeploymentHandler struct {
	service DeploymentService
}

func NewDeploymentHandler(service DeploymentService) *DeploymentHandler {
	return &DeploymentHandler{service: service}
}

// Deploy provisions a new bot app
// POST /deploy
func (h *DeploymentHandler) Deploy(c *gin.Context) {
	var req dto.DeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body", Details: err.Error()})
		return
	}

	config := make(map[string]string, len(req.Config))
	for k, v := range req.Config {
		config[k] = v.Value
	}

	res, err := h.service.Deploy(c.Request.Context(), deployments.DeployRequest{
		Owner:     req.Username,
		SessionID: req.SessionID,
		AppName:   req.AppName,
		BotType:   req.BotType,
		Config:    config,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeployResponse{
		Message: "Bot deployed successfully",
		Token:   res.Token,
		AppName: res.AppName,
	})
}

// CountDeployments returns how many bots a user has deployed
// GET /api/deployments/:username
func (h *DeploymentHandler) CountDeployments(c *gin.Context) {
	count, err := h.service.CountDeployments(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CountResponse{Count: count})
}

// ListBots returns every bot owned by the token's owner
// GET /api/bots?token=
func (h *DeploymentHandler) ListBots(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
		return
	}

	bots, err := h.service.ListBots(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	responses := make([]dto.BotResponse, len(bots))
	for i, b := range bots {
		responses[i] = dto.BotResponse{
			Name:      b.Name,
			Type:      b.Type,
			CreatedAt: b.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, dto.ListBotsResponse{Bots: responses})
}

// DeleteBot deletes the app a token was issued for
// DELETE /api/bots/:appName?token=
func (h *DeploymentHandler) DeleteBot(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "token is required"})
		return
	}

	appName := c.Param("appName")
	if err := h.service.DeleteBot(c.Request.Context(), appName, token); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Bot " + appName + " deleted successfully"})
}

// BotTypes lists the bot types that can be deployed
// GET /api/bot-types
func (h *DeploymentHandler) BotTypes(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BotTypesResponse{BotTypes: h.service.BotTypes()})
}

func writeError(c *gin.Context, err error) {
	var quotaErr *deployments.QuotaExceededError
	switch {
	case deployments.IsValidation(err):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &quotaErr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: quotaErr.Error()})
	case errors.Is(err, deployments.ErrInvalidToken):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "invalid token"})
	case errors.Is(err, deployments.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "bot not found"})
	case errors.Is(err, deployments.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "not authorized to delete this bot"})
	case errors.Is(err, deployments.ErrDuplicateAppName):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "app name already exists, choose another"})
	case errors.Is(err, deployments.ErrProvisioningFailed):
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "deployment failed",
			Details: providerDetail(err),
		})
	default:
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}

func providerDetail(err error) string {
	if detail := heroku.Detail(err); detail != "" {
		return detail
	}
	return err.Error()
}
