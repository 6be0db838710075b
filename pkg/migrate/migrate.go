package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

// Run ejecuta un comando goose (up, down, status, ...) sobre las migraciones de fsys.
func Run(ctx context.Context, db *sql.DB, fsys fs.FS, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("migrate: db requerida")
	}
	if err := setup(fsys); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up aplica todas las migraciones pendientes.
func Up(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	return Run(ctx, db, fsys, "up")
}

// MigrateToVersion sube o baja hasta la versión indicada según la versión actual de la DB.
func MigrateToVersion(ctx context.Context, db *sql.DB, fsys fs.FS, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("migrate: versión requerida")
	}
	if err := setup(fsys); err != nil {
		return err
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("versión inválida %q: %w", targetVersion, err)
	}
	current, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("versión actual: %w", err)
	}
	switch {
	case current == target:
		return nil
	case current < target:
		if err := goose.UpToContext(ctx, db, ".", target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
	default:
		if err := goose.DownToContext(ctx, db, ".", target); err != nil {
			return fmt.Errorf("goose down-to %d: %w", target, err)
		}
	}
	return nil
}

func setup(fsys fs.FS) error {
	if fsys == nil {
		return fmt.Errorf("migrate: fs de migraciones requerido")
	}
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}
