package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/erp-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_STORAGE", "memory")
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.ReservationTTL())
	assert.Equal(t, 300*time.Second, cfg.Cron.Interval())
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 2, cfg.DB.MinConns)
}

func TestLoad_EnvSobrescribe(t *testing.T) {
	t.Setenv("APP_STORAGE", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RESERVATION_TTL_HOURS", "2")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("DB_MAX_CONNS", "8")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 2*time.Hour, cfg.Ledger.ReservationTTL())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 8, cfg.DB.MaxConns)
}

func TestLoad_StorageInvalido(t *testing.T) {
	t.Setenv("APP_STORAGE", "mysql")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "erp", Password: "p@ss/word", DBName: "erp", SSLMode: "disable"}
	assert.Equal(t, "postgres://erp:p%40ss%2Fword@db:5432/erp?sslmode=disable", c.ConnectionString())
}
