package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalhttp "github.com/EternisAI/bot-deployer/internal/api/http"
	"github.com/EternisAI/bot-deployer/internal/credentials"
	"github.com/EternisAI/bot-deployer/internal/db"
	"github.com/EternisAI/bot-deployer/internal/deployments"
	"github.com/EternisAI/bot-deployer/internal/heroku"
	"github.com/EternisAI/bot-deployer/internal/quota"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var AppVersion string

func main() {
	InitConfig()

	slog.Info("Bot Deployer", "version", AppVersion)

	if err := run(); err != nil {
		slog.Error("Bot Deployer exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	sources, err := ParseSources(config.Bots.Sources, config.Bots.Overrides)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no bot sources configured")
	}

	rotator, err := credentials.NewRotator(ParseCommaSeparated(config.Heroku.APIKeys))
	if err != nil {
		return fmt.Errorf("heroku credentials: %w", err)
	}

	if err := db.Migrate(ctx, config.DB); err != nil {
		return fmt.Errorf("database migrations: %w", err)
	}

	pool, err := db.Connect(ctx, config.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() {
		pool.Close()
		slog.Info("Database pool closed")
	}()

	store := deployments.NewPostgresStore(pool)
	herokuClient := heroku.NewClient(config.Heroku.APIURL, rotator)
	quotaService := quota.NewService(store, config.Quota)
	deploymentService := deployments.NewService(store, herokuClient, quotaService, sources)

	slog.Info("Deployment service ready",
		"bot_types", deploymentService.BotTypes(),
		"heroku_keys", rotator.Len(),
		"allowlist", config.Quota.AllowlistURL != "")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(gin.Recovery())
	internalhttp.SetupRoute(engine, &internalhttp.Services{
		Deployments: deploymentService,
		Database:    store,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Http.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case serveErr = <-errChan:
		slog.Error("Server error", "error", serveErr)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig)
	}

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
	return serveErr
}
