package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Migrate applies all pending migrations to the configured schema.
func Migrate(ctx context.Context, cfg Config) error {
	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}

	slog.Info("Running database migrations", "schema", schema)

	conn, err := sql.Open("pgx", cfg.Url)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer conn.Close()

	// A single connection keeps the search_path set below in effect for goose.
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := useSchema(ctx, conn, schema); err != nil {
		return err
	}

	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, conn, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	slog.Info("Database migrations completed", "version", version)
	return nil
}

func useSchema(ctx context.Context, conn *sql.DB, schema string) error {
	ident := pgx.Identifier{schema}.Sanitize()
	if _, err := conn.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	if _, err := conn.ExecContext(ctx, "SET search_path TO "+ident); err != nil {
		return fmt.Errorf("set search_path %s: %w", schema, err)
	}
	return nil
}
