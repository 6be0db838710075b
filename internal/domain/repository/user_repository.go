package repository

import (
	"context"

	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	// GetByUsername busca sin distinguir mayúsculas y carga los roles.
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}
