package http

import (
	"github.com/EternisAI/bot-deployer/internal/api/http/handler"
	"github.com/EternisAI/bot-deployer/internal/api/http/middleware"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Deployments handler.DeploymentService
	Database    handler.Pinger
}

func SetupRoute(engine *gin.Engine, srvs *Services) {
	engine.Use(middleware.RequestLogger())

	healthHandler := handler.NewHealthHandler(srvs.Database)
	engine.GET("/health", healthHandler.Check)

	deploymentHandler := handler.NewDeploymentHandler(srvs.Deployments)
	engine.POST("/deploy", deploymentHandler.Deploy)

	api := engine.Group("/api")
	api.GET("/deployments/:username", deploymentHandler.CountDeployments)
	api.GET("/bots", deploymentHandler.ListBots)
	api.DELETE("/bots/:appName", deploymentHandler.DeleteBot)
	api.GET("/bot-types", deploymentHandler.BotTypes)
}
