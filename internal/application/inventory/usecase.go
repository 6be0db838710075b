package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/logger"
)

// AdjustUseCase registra ajustes manuales de inventario (conteos físicos, mermas) con
// bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type AdjustUseCase struct {
	txRunner TxRunner
	ledger   *Ledger
	log      *logger.Logger
}

// NewAdjustUseCase construye el caso de uso.
func NewAdjustUseCase(txRunner TxRunner, ledger *Ledger, log *logger.Logger) *AdjustUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AdjustUseCase{txRunner: txRunner, ledger: ledger, log: log.Component("inventory.adjust")}
}

// Adjust valida producto y bodega, bloquea la fila y registra un movimiento ADJUSTMENT.
func (uc *AdjustUseCase) Adjust(ctx context.Context, actorID string, in dto.AdjustmentRequest) (*dto.MovementResponse, error) {
	in.Quantity = entity.Qty(in.Quantity)
	if actorID == "" || in.ProductID == "" || in.WarehouseID == "" || in.Quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, fmt.Errorf("motivo requerido: %w", domain.ErrInvalidInput)
	}

	adjustmentID := uuid.New().String()
	var mov *entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		product, err := repos.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil || !product.Active {
			return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrNotFound)
		}
		wh, err := repos.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil || !wh.Active {
			return fmt.Errorf("bodega %s: %w", in.WarehouseID, domain.ErrNotFound)
		}

		key := entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
		credit := in.Quantity.IsPositive()
		rows, err := uc.ledger.Lock(ctx, repos.Stock, []entity.StockKey{key}, credit)
		if err != nil {
			return err
		}
		e := Entry{
			Kind:         entity.MovementAdjustment,
			ProductID:    in.ProductID,
			WarehouseID:  in.WarehouseID,
			Quantity:     in.Quantity.Abs(),
			UnitCost:     product.CostRef,
			Reference:    "AJUSTE: " + reason,
			ActorID:      actorID,
			DocumentType: entity.DocumentAdjustment,
			DocumentID:   adjustmentID,
		}
		if credit {
			mov, err = uc.ledger.Credit(ctx, repos, rows, e)
		} else {
			mov, err = uc.ledger.Debit(ctx, repos, rows, e)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Observe([]*entity.InventoryMovement{mov})
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("warehouse_id", in.WarehouseID).
		Str("quantity", mov.Quantity.String()).
		Str("actor_id", actorID).
		Msg("ajuste de inventario registrado")
	out := dto.MovementFromEntity(mov)
	return &out, nil
}

// QueryUseCase consultas de existencias y kardex (solo lectura, fuera de transacción).
type QueryUseCase struct {
	stockRepo    repository.StockRepository
	movementRepo repository.InventoryMovementRepository
	productRepo  repository.ProductRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(
	stockRepo repository.StockRepository,
	movementRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
) *QueryUseCase {
	return &QueryUseCase{stockRepo: stockRepo, movementRepo: movementRepo, productRepo: productRepo}
}

// ListStock lista existencias con on_hand distinto de cero.
func (uc *QueryUseCase) ListStock(ctx context.Context, q dto.StockQuery) ([]dto.StockResponse, error) {
	rows, err := uc.stockRepo.List(ctx, entity.StockFilter{ProductID: q.ProductID, WarehouseID: q.WarehouseID})
	if err != nil {
		return nil, err
	}
	out := make([]dto.StockResponse, 0, len(rows))
	for _, s := range rows {
		if !s.OnHand.IsZero() {
			out = append(out, dto.StockFromEntity(s))
		}
	}
	return out, nil
}

// Balance devuelve la fila (producto, bodega); en cero si aún no existe.
func (uc *QueryUseCase) Balance(ctx context.Context, productID, warehouseID string) (*dto.StockResponse, error) {
	if productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	s, _, err := uc.stockRepo.Get(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	out := dto.StockFromEntity(s)
	return &out, nil
}

// Kardex devuelve los movimientos del producto ordenados por fecha.
func (uc *QueryUseCase) Kardex(ctx context.Context, productID string, q dto.KardexQuery) ([]dto.MovementResponse, error) {
	f := entity.KardexFilter{ProductID: productID, WarehouseID: q.WarehouseID, From: q.From, To: q.To}
	if f.ProductID == "" {
		return nil, domain.ErrInvalidInput
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	p, err := uc.productRepo.GetByID(ctx, f.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movementRepo.Kardex(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementFromEntity(m))
	}
	return out, nil
}

// Replay recalcula el saldo de un par sumando sus movimientos. Debe coincidir con on_hand.
func (uc *QueryUseCase) Replay(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	return uc.movementRepo.SumQuantity(ctx, productID, warehouseID)
}
