package systemtest

import (
	"context"
	"testing"

	internalhttp "github.com/EternisAI/bot-deployer/internal/api/http"
	"github.com/EternisAI/bot-deployer/internal/credentials"
	"github.com/EternisAI/bot-deployer/internal/db"
	"github.com/EternisAI/bot-deployer/internal/deployments"
	"github.com/EternisAI/bot-deployer/internal/heroku"
	"github.com/EternisAI/bot-deployer/internal/quota"
	"github.com/EternisAI/bot-deployer/systemtest/postgres"
	"github.com/EternisAI/bot-deployer/systemtest/tests"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestSystemIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping system test in short mode")
	}

	ctx := context.Background()
	container, err := postgres.StartPostgres(ctx, "postgres", "postgres", "botdeployer")
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = postgres.TerminatePostgres(context.Background(), container) })

	dsn, err := postgres.ConnectionString(ctx, container)
	require.NoError(t, err)

	dbConfig := db.Config{Url: dsn, Schema: "botdeployer"}
	require.NoError(t, db.Migrate(ctx, dbConfig))
	// Migrations are idempotent.
	require.NoError(t, db.Migrate(ctx, dbConfig))

	pool, err := db.Connect(ctx, dbConfig)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	fakeHeroku := tests.NewFakeHeroku()
	t.Cleanup(fakeHeroku.Close)

	rotator, err := credentials.NewRotator([]string{"key-one", "key-two"})
	require.NoError(t, err)

	store := deployments.NewPostgresStore(pool)
	service := deployments.NewService(
		store,
		heroku.NewClient(fakeHeroku.Server.URL, rotator),
		quota.NewService(store, quota.Config{DefaultLimit: 2}),
		map[string]string{"khan": tests.KhanSource},
	)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	internalhttp.SetupRoute(engine, &internalhttp.Services{
		Deployments: service,
		Database:    store,
	})

	t.Run("HealthCheck", func(t *testing.T) { tests.TestHealthCheck(t, engine) })
	t.Run("DeployValidation", func(t *testing.T) { tests.TestDeployValidation(t, engine) })
	t.Run("DeployLifecycle", func(t *testing.T) { tests.TestDeployLifecycle(t, engine, fakeHeroku) })
	t.Run("ConcurrentDuplicateName", func(t *testing.T) { tests.TestConcurrentDuplicateName(t, engine) })
	t.Run("PostgresStore", func(t *testing.T) { tests.TestPostgresStore(t, store) })
}
