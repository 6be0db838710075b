package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/erp-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/erp-ledger/migrations"
	"github.com/jhoicas/erp-ledger/pkg/config"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/migrate"
)

// txRunner lo satisfacen postgres.TxRunner y memory.Store.
type txRunner interface {
	Run(ctx context.Context, fn func(repos repository.TxRepos) error) error
}

type storage struct {
	tx    txRunner
	repos repository.TxRepos
	users repository.UserRepository
	close func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.App.Storage == "memory" {
		store := memory.NewStore()
		if err := seedDemo(store, cfg); err != nil {
			return nil, err
		}
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &storage{tx: store, repos: store.Repos(), users: store.Users(), close: func() {}}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.MigrateOnStart {
		db := postgres.OpenDB(pool)
		err := migrate.Up(ctx, db, migrations.FS)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	return &storage{
		tx:    postgres.NewTxRunner(pool),
		repos: postgres.NewRepos(pool),
		users: postgres.NewUserRepository(pool),
		close: pool.Close,
	}, nil
}

// Datos de demostración para APP_STORAGE=memory.
const (
	demoWarehouseID = "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3a01"
	demoCashBoxID   = "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3a02"
	demoPassword    = "demo1234"
)

func seedDemo(store *memory.Store, cfg *config.Config) error {
	store.AddWarehouse(entity.Warehouse{ID: demoWarehouseID, Name: "Bodega principal", Active: true})
	store.AddCashBox(entity.CashBox{ID: demoCashBoxID, Name: "Caja general", Currency: "COP", Active: true})
	if cfg.Payments.DefaultCashBoxID == "" {
		cfg.Payments.DefaultCashBoxID = demoCashBoxID
	}
	store.AddProduct(entity.Product{
		ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3b01", SKU: "TOR-001", Name: "Tornillo 1/4",
		Price: decimal.NewFromInt(10), TaxRate: decimal.NewFromInt(19), Active: true,
	})
	store.AddProduct(entity.Product{
		ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3b02", SKU: "TAL-900", Name: "Taladro percutor",
		Price: decimal.NewFromInt(350), TaxRate: decimal.NewFromInt(19), Serialized: true, Active: true,
	})
	store.AddCustomer(entity.Customer{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3c01", Name: "Ferretería El Tornillo", TaxID: "900123456", Active: true})
	store.AddSupplier(entity.Supplier{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3d01", Name: "Distribuidora Andina", TaxID: "800654321", Active: true})

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash demo: %w", err)
	}
	users := []entity.User{
		{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3e01", Username: "admin", Roles: []string{entity.RoleAdmin}},
		{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3e02", Username: "bodega", Roles: []string{entity.RoleBodeguero}},
		{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3e03", Username: "ventas", Roles: []string{entity.RoleVendedor}},
		{ID: "8b0f7a4e-2f1c-4a0e-9d65-0c9b1f6d3e04", Username: "caja", Roles: []string{entity.RoleCajero}},
	}
	for _, u := range users {
		u.PasswordHash = string(hash)
		u.Active = true
		if err := store.AddUser(u); err != nil {
			return err
		}
	}
	return nil
}
