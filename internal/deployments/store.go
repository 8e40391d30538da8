package deployments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/EternisAI/bot-deployer/internal/db/sqlc"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation   = "23505"
	appNameConstraint = "deployments_app_name_key"
	tokenConstraint   = "deployments_access_token_key"
)

// Store persists deployment records. Implementations must enforce uniqueness
// of app names and access tokens themselves so concurrent writers fail with
// ErrDuplicateAppName or ErrDuplicateToken instead of overwriting.
type Store interface {
	CountByOwner(ctx context.Context, owner string) (int64, error)
	AppNameExists(ctx context.Context, appName string) (bool, error)
	Create(ctx context.Context, d Deployment) (Deployment, error)
	GetByToken(ctx context.Context, token string) (Deployment, error)
	ListByOwner(ctx context.Context, owner string) ([]Deployment, error)
	DeleteByAppName(ctx context.Context, appName string) error
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *sqlc.Queries
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		queries: sqlc.New(pool),
	}
}

func (s *PostgresStore) CountByOwner(ctx context.Context, owner string) (int64, error) {
	count, err := s.queries.CountDeploymentsByOwner(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("count deployments: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AppNameExists(ctx context.Context, appName string) (bool, error) {
	exists, err := s.queries.AppNameExists(ctx, appName)
	if err != nil {
		return false, fmt.Errorf("check app name: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Create(ctx context.Context, d Deployment) (Deployment, error) {
	extra, err := json.Marshal(d.ExtraConfig)
	if err != nil {
		return Deployment{}, fmt.Errorf("marshal extra config: %w", err)
	}

	row, err := s.queries.CreateDeployment(ctx, sqlc.CreateDeploymentParams{
		Owner:       d.Owner,
		AppName:     d.AppName,
		BotType:     d.BotType,
		AccessToken: d.AccessToken,
		ExtraConfig: extra,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case appNameConstraint:
				return Deployment{}, fmt.Errorf("%w: %s", ErrDuplicateAppName, d.AppName)
			case tokenConstraint:
				return Deployment{}, ErrDuplicateToken
			}
		}
		return Deployment{}, fmt.Errorf("create deployment: %w", err)
	}
	return toDeployment(row), nil
}

func (s *PostgresStore) GetByToken(ctx context.Context, token string) (Deployment, error) {
	row, err := s.queries.GetDeploymentByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Deployment{}, ErrNotFound
		}
		return Deployment{}, fmt.Errorf("get deployment by token: %w", err)
	}
	return toDeployment(row), nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner string) ([]Deployment, error) {
	rows, err := s.queries.ListDeploymentsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}

	result := make([]Deployment, len(rows))
	for i, r := range rows {
		result[i] = toDeployment(r)
	}
	return result, nil
}

func (s *PostgresStore) DeleteByAppName(ctx context.Context, appName string) error {
	n, err := s.queries.DeleteDeploymentByAppName(ctx, appName)
	if err != nil {
		return fmt.Errorf("delete deployment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func toDeployment(row sqlc.Deployment) Deployment {
	d := Deployment{
		Owner:       row.Owner,
		AppName:     row.AppName,
		BotType:     row.BotType,
		AccessToken: row.AccessToken,
		CreatedAt:   row.CreatedAt.Time,
	}
	if row.ID.Valid {
		d.ID = uuid.UUID(row.ID.Bytes).String()
	}
	if len(row.ExtraConfig) > 0 {
		if err := json.Unmarshal(row.ExtraConfig, &d.ExtraConfig); err != nil {
			slog.Warn("Failed to decode extra config", "app", row.AppName, "error", err)
		}
	}
	return d
}
