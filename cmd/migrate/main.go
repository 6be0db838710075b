// migrate aplica el esquema embebido con goose.
//
// Uso: go run ./cmd/migrate -cmd up|down|status|version [-version N]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jhoicas/erp-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/erp-ledger/migrations"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "comando: up|down|status|version")
	version := flag.String("version", "", "versión destino para -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	db := postgres.OpenDB(pool)
	defer db.Close()

	log.Info().Str("cmd", *cmd).Msg("migrate listo")

	switch *cmd {
	case "up", "down", "status":
		err = migrate.Run(ctx, db, migrations.FS, *cmd)
	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "falta -version para el comando version")
			os.Exit(1)
		}
		err = migrate.MigrateToVersion(ctx, db, migrations.FS, *version)
	default:
		fmt.Fprintln(os.Stderr, "valor de -cmd desconocido:", *cmd)
		os.Exit(1)
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migración fallida")
		os.Exit(1)
	}
	log.Info().Str("cmd", *cmd).Msg("migración completada")
}
