package purchase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/application/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/erp-ledger/internal/domain/inventory"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

// ListLimit tope de compras por consulta.
const ListLimit = 100

// UseCase registra y anula compras a proveedor. El registro ingresa stock y la anulación
// lo revierte con movimientos REVERSAL; nunca se borra nada del kardex.
type UseCase struct {
	txRunner     TxRunner
	purchaseRepo repository.PurchaseRepository
	ledger       *inventory.Ledger
	metrics      *metrics.LedgerMetrics
	log          *logger.Logger
	now          func() time.Time
}

// NewUseCase construye el caso de uso. purchaseRepo es el repositorio de pool para lecturas.
func NewUseCase(
	txRunner TxRunner,
	purchaseRepo repository.PurchaseRepository,
	ledger *inventory.Ledger,
	m *metrics.LedgerMetrics,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:     txRunner,
		purchaseRepo: purchaseRepo,
		ledger:       ledger,
		metrics:      m,
		log:          log.Component("purchase"),
		now:          time.Now,
	}
}

// Register registra la compra, ingresa el stock (PURCHASE), crea las unidades serializadas
// y actualiza el costo de referencia por promedio ponderado.
func (uc *UseCase) Register(ctx context.Context, actorID string, in dto.RegisterPurchaseRequest) (resp *dto.PurchaseResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("purchase.register", err, time.Since(start)) }()

	doc := strings.TrimSpace(in.DocumentNumber)
	if actorID == "" || in.SupplierID == "" || in.WarehouseID == "" || doc == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("la compra no tiene ítems: %w", domain.ErrInvalidInput)
	}
	items := make([]dto.PurchaseItemRequest, len(in.Items))
	for i, it := range in.Items {
		it.Quantity = entity.Qty(it.Quantity)
		items[i] = it
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("ítem %d: cantidad debe ser positiva: %w", i+1, domain.ErrInvalidInput)
		}
		if it.UnitCost.IsNegative() {
			return nil, fmt.Errorf("ítem %d: costo negativo: %w", i+1, domain.ErrInvalidInput)
		}
	}

	now := uc.now()
	p := &entity.Purchase{
		ID:             uuid.New().String(),
		SupplierID:     in.SupplierID,
		WarehouseID:    in.WarehouseID,
		DocumentNumber: doc,
		Status:         entity.PurchaseRegistered,
		Notes:          strings.TrimSpace(in.Notes),
		ActorID:        actorID,
		CreatedAt:      now,
	}
	var movs []*entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		sup, err := repos.Suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if sup == nil || !sup.Active {
			return fmt.Errorf("proveedor %s: %w", in.SupplierID, domain.ErrNotFound)
		}
		wh, err := repos.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil || !wh.Active {
			return fmt.Errorf("bodega %s: %w", in.WarehouseID, domain.ErrNotFound)
		}
		exists, err := repos.Purchases.ExistsDocument(ctx, in.SupplierID, doc)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewDuplicateError("compra", in.SupplierID+"/"+doc)
		}
		products, err := uc.buildLines(ctx, repos, p, items)
		if err != nil {
			return err
		}
		p.Recompute()
		if err := repos.Purchases.Create(ctx, p); err != nil {
			return err
		}

		rows, err := uc.ledger.Lock(ctx, repos.Stock, p.StockKeys(), true)
		if err != nil {
			return err
		}
		costs := map[string]decimal.Decimal{}
		for _, l := range p.Lines {
			row := rows[entity.StockKey{ProductID: l.ProductID, WarehouseID: p.WarehouseID}]
			current, ok := costs[l.ProductID]
			if !ok {
				current = products[l.ProductID].CostRef
			}
			costs[l.ProductID] = domaininv.WeightedAverageCost(row.Stock.OnHand, current, l.Quantity, l.UnitCost)

			mov, err := uc.ledger.Credit(ctx, repos, rows, inventory.Entry{
				Kind:         entity.MovementPurchase,
				ProductID:    l.ProductID,
				WarehouseID:  p.WarehouseID,
				Quantity:     l.Quantity,
				UnitCost:     l.UnitCost,
				Reference:    fmt.Sprintf("COMPRA #%s DOC: %s", p.ID, p.DocumentNumber),
				ActorID:      actorID,
				DocumentType: entity.DocumentPurchase,
				DocumentID:   p.ID,
			})
			if err != nil {
				return err
			}
			movs = append(movs, mov)

			for _, serial := range l.Serials {
				if err := repos.Serials.Create(ctx, &entity.SerialUnit{
					ID:          uuid.New().String(),
					ProductID:   l.ProductID,
					Serial:      serial,
					WarehouseID: p.WarehouseID,
					Status:      entity.SerialInStock,
					PurchaseID:  p.ID,
					CreatedAt:   now,
					UpdatedAt:   now,
				}); err != nil {
					return err
				}
			}
		}
		for productID, cost := range costs {
			if err := repos.Products.UpdateCostRef(ctx, productID, cost); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Observe(movs)
	uc.log.Info().
		Str("purchase_id", p.ID).
		Str("document", p.DocumentNumber).
		Str("total", p.Total.String()).
		Str("actor_id", actorID).
		Msg("compra registrada")
	out := dto.PurchaseFromEntity(p)
	return &out, nil
}

// buildLines valida productos y series y arma las líneas. Devuelve los productos por ID.
func (uc *UseCase) buildLines(ctx context.Context, repos repository.TxRepos, p *entity.Purchase, items []dto.PurchaseItemRequest) (map[string]*entity.Product, error) {
	products := map[string]*entity.Product{}
	seen := map[string]bool{}
	for i, it := range items {
		prod, ok := products[it.ProductID]
		if !ok {
			var err error
			prod, err = repos.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return nil, err
			}
			if prod == nil || !prod.Active {
				return nil, fmt.Errorf("ítem %d: producto %s: %w", i+1, it.ProductID, domain.ErrNotFound)
			}
			products[prod.ID] = prod
		}
		serials := make([]string, 0, len(it.Serials))
		for _, s := range it.Serials {
			serials = append(serials, strings.TrimSpace(s))
		}
		if prod.Serialized {
			if !it.Quantity.Equal(decimal.NewFromInt(int64(len(serials)))) {
				return nil, fmt.Errorf("ítem %d: el producto %s exige %s series, llegaron %d: %w",
					i+1, prod.SKU, it.Quantity.String(), len(serials), domain.ErrInvalidInput)
			}
			for _, s := range serials {
				key := prod.ID + "/" + s
				if s == "" || seen[key] {
					return nil, fmt.Errorf("ítem %d: serie %q vacía o repetida: %w", i+1, s, domain.ErrInvalidInput)
				}
				seen[key] = true
				dup, err := repos.Serials.ExistsSerial(ctx, prod.ID, s)
				if err != nil {
					return nil, err
				}
				if dup {
					return nil, domain.NewDuplicateError("serie", s)
				}
			}
		} else if len(serials) > 0 {
			return nil, fmt.Errorf("ítem %d: el producto %s no es serializado: %w", i+1, prod.SKU, domain.ErrInvalidInput)
		}
		p.Lines = append(p.Lines, entity.PurchaseLine{
			ID:         uuid.New().String(),
			PurchaseID: p.ID,
			ProductID:  prod.ID,
			Quantity:   it.Quantity,
			UnitCost:   entity.Money(it.UnitCost),
			Serials:    serials,
		})
	}
	return products, nil
}

// Void anula una compra registrada: revierte cada movimiento PURCHASE con un REVERSAL,
// anula sus series y deja la nota de auditoría. Falla con StockError si lo que se revierte
// ya no está disponible (vendido o reservado).
func (uc *UseCase) Void(ctx context.Context, actorID, purchaseID string, in dto.VoidPurchaseRequest) (resp *dto.PurchaseResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("purchase.void", err, time.Since(start)) }()

	reason := strings.TrimSpace(in.Reason)
	if actorID == "" || purchaseID == "" || reason == "" {
		return nil, domain.ErrInvalidInput
	}
	var (
		p    *entity.Purchase
		movs []*entity.InventoryMovement
	)
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		p, err = repos.Purchases.GetForUpdate(ctx, purchaseID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("compra %s: %w", purchaseID, domain.ErrNotFound)
		}
		if p.Status == entity.PurchaseVoided {
			return &domain.IntegrityError{Entity: "compra", Key: p.ID, Reason: "ya está anulada", Kind: domain.ErrConflict}
		}

		original, err := repos.Movements.ListByDocument(ctx, entity.DocumentPurchase, p.ID)
		if err != nil {
			return err
		}
		keys := make([]entity.StockKey, 0, len(original))
		for _, m := range original {
			if m.Kind == entity.MovementPurchase {
				keys = append(keys, entity.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID()})
			}
		}
		rows, err := uc.ledger.Lock(ctx, repos.Stock, keys, false)
		if err != nil {
			return err
		}
		for _, m := range original {
			if m.Kind != entity.MovementPurchase {
				continue
			}
			mov, err := uc.ledger.Debit(ctx, repos, rows, inventory.Entry{
				Kind:         entity.MovementReversal,
				ProductID:    m.ProductID,
				WarehouseID:  m.WarehouseID(),
				Quantity:     m.Quantity.Abs(),
				UnitCost:     m.UnitCost,
				Reference:    fmt.Sprintf("ANULACION COMPRA #%s DOC: %s", p.ID, p.DocumentNumber),
				ActorID:      actorID,
				DocumentType: entity.DocumentPurchase,
				DocumentID:   p.ID,
			})
			if err != nil {
				return err
			}
			movs = append(movs, mov)
		}

		now := uc.now()
		units, err := repos.Serials.ListByPurchaseForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, u := range units {
			if u.Status != entity.SerialInStock {
				return &domain.StockError{
					ProductID: u.ProductID, WarehouseID: u.WarehouseID,
					Requested: decimal.NewFromInt(1), Available: decimal.Zero,
				}
			}
			u.Status = entity.SerialVoided
			u.UpdatedAt = now
			if err := repos.Serials.Update(ctx, u); err != nil {
				return err
			}
		}

		note := fmt.Sprintf("ANULADA (%s): %s", now.Format("2006-01-02 15:04"), reason)
		if p.Notes == "" {
			p.Notes = note
		} else {
			p.Notes = p.Notes + " | " + note
		}
		p.Status = entity.PurchaseVoided
		p.VoidedAt = &now
		return repos.Purchases.MarkVoided(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Observe(movs)
	uc.log.Info().
		Str("purchase_id", p.ID).
		Int("reversals", len(movs)).
		Str("actor_id", actorID).
		Msg("compra anulada")
	out := dto.PurchaseFromEntity(p)
	return &out, nil
}

// Get devuelve una compra por ID.
func (uc *UseCase) Get(ctx context.Context, purchaseID string) (*dto.PurchaseResponse, error) {
	p, err := uc.purchaseRepo.GetByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.PurchaseFromEntity(p)
	return &out, nil
}

// List lista compras de la más reciente a la más antigua, máximo ListLimit.
func (uc *UseCase) List(ctx context.Context, q dto.PurchaseListQuery) ([]dto.PurchaseResponse, error) {
	f, err := toFilter(q)
	if err != nil {
		return nil, err
	}
	f.Limit = ListLimit
	list, err := uc.purchaseRepo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PurchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.PurchaseFromEntity(p))
	}
	return out, nil
}

// Dashboard resume las compras registradas (no anuladas) del rango.
func (uc *UseCase) Dashboard(ctx context.Context, q dto.PurchaseListQuery) (*dto.PurchaseDashboardResponse, error) {
	f, err := toFilter(q)
	if err != nil {
		return nil, err
	}
	d, err := uc.purchaseRepo.Dashboard(ctx, f)
	if err != nil {
		return nil, err
	}
	out := dto.DashboardFromEntity(d)
	return &out, nil
}

func toFilter(q dto.PurchaseListQuery) (entity.PurchaseFilter, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return entity.PurchaseFilter{}, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	return entity.PurchaseFilter{
		SupplierID:  q.SupplierID,
		WarehouseID: q.WarehouseID,
		Status:      q.Status,
		From:        q.From,
		To:          q.To,
	}, nil
}
