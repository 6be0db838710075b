package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Cron     CronConfig
	Payments PaymentsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
	Storage  string // postgres | memory
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL    string
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int
	MinConns       int
	MigrateOnStart bool
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisConfig conexión opcional a Redis (lock distribuido del barrido de reservas).
type RedisConfig struct {
	URL string
}

// Enabled indica si hay Redis configurado.
func (c RedisConfig) Enabled() bool { return c.URL != "" }

// LedgerConfig parámetros del libro de inventario.
type LedgerConfig struct {
	ReservationTTLHours int
}

// ReservationTTL vigencia de una reserva nueva.
func (c LedgerConfig) ReservationTTL() time.Duration {
	return time.Duration(c.ReservationTTLHours) * time.Hour
}

// CronConfig parámetros del barrido periódico.
type CronConfig struct {
	Enabled         bool
	IntervalSeconds int
	LockKey         string
}

// Interval periodo entre ejecuciones.
func (c CronConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// PaymentsConfig parámetros de cobranza.
type PaymentsConfig struct {
	DefaultCashBoxID string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, DB_PORT, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo .env o config.env
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "erp-ledger"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
			Storage:  getString(v, "APP_STORAGE", "postgres"),
		},
		DB: DBConfig{
			DatabaseURL:    getString(v, "DATABASE_URL", ""),
			Host:           getString(v, "DB_HOST", "localhost"),
			Port:           getInt(v, "DB_PORT", 5432),
			User:           getString(v, "DB_USER", "postgres"),
			Password:       getString(v, "DB_PASSWORD", ""),
			DBName:         getString(v, "DB_NAME", "erp_ledger"),
			SSLMode:        getString(v, "DB_SSLMODE", "disable"),
			MaxConns:       getInt(v, "DB_MAX_CONNS", 25),
			MinConns:       getInt(v, "DB_MIN_CONNS", 2),
			MigrateOnStart: getBool(v, "MIGRATE_ON_START", false),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "erp-ledger"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Redis: RedisConfig{
			URL: getString(v, "REDIS_URL", ""),
		},
		Ledger: LedgerConfig{
			ReservationTTLHours: getInt(v, "RESERVATION_TTL_HOURS", 24),
		},
		Cron: CronConfig{
			Enabled:         getBool(v, "CRON_ENABLED", true),
			IntervalSeconds: getInt(v, "CRON_INTERVAL_SECONDS", 300),
			LockKey:         getString(v, "CRON_LOCK_KEY", "erp-ledger:cron:reservations"),
		},
		Payments: PaymentsConfig{
			DefaultCashBoxID: getString(v, "PAYMENTS_DEFAULT_CASH_BOX_ID", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.App.Storage {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: APP_STORAGE inválido %q (postgres|memory)", c.App.Storage)
	}
	if c.Ledger.ReservationTTLHours <= 0 {
		return fmt.Errorf("config: RESERVATION_TTL_HOURS debe ser positivo")
	}
	if c.App.Env == "production" && c.JWT.Secret == "" {
		return fmt.Errorf("config: JWT_SECRET requerido en production")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
