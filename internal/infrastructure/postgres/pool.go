package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jhoicas/erp-ledger/pkg/config"
)

// Límites por defecto: las transacciones del libro son cortas pero bloquean filas de saldo.
const (
	defaultMaxConns = 25
	defaultMinConns = 2
)

// NewPool abre el pool del libro con DATABASE_URL o, si no está, con el DSN de DB_HOST, DB_PORT, etc.
// Registra el codec NUMERIC a decimal en cada conexión y verifica con un ping.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(orDefault(cfg.MaxConns, defaultMaxConns))
	poolConfig.MinConns = int32(orDefault(cfg.MinConns, defaultMinConns))
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	// cantidades y montos viajan como NUMERIC; sin el codec se leerían como float
	poolConfig.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("crear pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return pool, nil
}

// OpenDB expone el pool como *sql.DB para goose (migraciones).
func OpenDB(pool *pgxpool.Pool) *sql.DB {
	return stdlib.OpenDBFromPool(pool)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
