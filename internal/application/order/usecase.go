package order

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
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/logger"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

// ListLimit tope de pedidos por consulta.
const ListLimit = 100

// UseCase flujo de pedidos: OPEN -> RESERVED -> INVOICED, OPEN/RESERVED -> CANCELLED.
// Cada operación bloquea primero la cabecera del pedido y después las filas de stock en
// orden canónico.
type UseCase struct {
	txRunner     TxRunner
	orderRepo    repository.OrderRepository
	ledger       *inventory.Ledger
	reservations *inventory.Reservations
	metrics      *metrics.LedgerMetrics
	log          *logger.Logger
	now          func() time.Time
}

// NewUseCase construye el caso de uso. orderRepo es el repositorio de pool para lecturas.
func NewUseCase(
	txRunner TxRunner,
	orderRepo repository.OrderRepository,
	ledger *inventory.Ledger,
	reservations *inventory.Reservations,
	m *metrics.LedgerMetrics,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:     txRunner,
		orderRepo:    orderRepo,
		ledger:       ledger,
		reservations: reservations,
		metrics:      m,
		log:          log.Component("order"),
		now:          time.Now,
	}
}

// SetClock reemplaza el reloj (pruebas de vencimiento).
func (uc *UseCase) SetClock(now func() time.Time) { uc.now = now }

// Create valida cliente, bodega, productos y existencia (sin retener) e inserta el pedido OPEN.
// Con Reserve=true además lo reserva en la misma transacción.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateOrderRequest) (resp *dto.OrderResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.create", err, time.Since(start)) }()

	if actorID == "" || in.CustomerID == "" || in.WarehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := uc.now()
	o := &entity.Order{
		ID:          uuid.New().String(),
		CustomerID:  in.CustomerID,
		WarehouseID: in.WarehouseID,
		ActorID:     actorID,
		Status:      entity.OrderOpen,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		c, err := repos.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if c == nil || !c.Active {
			return fmt.Errorf("cliente %s: %w", in.CustomerID, domain.ErrNotFound)
		}
		wh, err := repos.Warehouses.GetByID(ctx, in.WarehouseID)
		if err != nil {
			return err
		}
		if wh == nil || !wh.Active {
			return fmt.Errorf("bodega %s: %w", in.WarehouseID, domain.ErrNotFound)
		}
		lines, err := buildLines(ctx, repos, o.ID, in.Items)
		if err != nil {
			return err
		}
		o.Lines = lines
		o.Recompute()
		if !in.Reserve {
			if err := checkAvailability(ctx, repos, o.WarehouseID, o.Lines); err != nil {
				return err
			}
		}
		if err := repos.Orders.Create(ctx, o); err != nil {
			return err
		}
		if in.Reserve {
			return uc.reserve(ctx, repos, o, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("status", o.Status).Str("total", o.Total.String()).Str("actor_id", actorID).Msg("pedido creado")
	out := dto.OrderFromEntity(o)
	return &out, nil
}

// ReplaceItems reemplaza las líneas de un pedido OPEN y recalcula el total.
func (uc *UseCase) ReplaceItems(ctx context.Context, actorID, orderID string, in dto.ReplaceItemsRequest) (resp *dto.OrderResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.replace_items", err, time.Since(start)) }()

	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	var o *entity.Order
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		o, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if o.Status != entity.OrderOpen {
			return domain.NewOrderStateError(o.ID, o.Status, "solo se pueden modificar pedidos abiertos")
		}
		lines, err := buildLines(ctx, repos, o.ID, in.Items)
		if err != nil {
			return err
		}
		if err := checkAvailability(ctx, repos, o.WarehouseID, lines); err != nil {
			return err
		}
		o.Lines = lines
		o.Recompute()
		o.UpdatedAt = uc.now()
		return repos.Orders.ReplaceLines(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("total", o.Total.String()).Str("actor_id", actorID).Msg("ítems del pedido reemplazados")
	out := dto.OrderFromEntity(o)
	return &out, nil
}

// Reserve pasa un pedido OPEN a RESERVED reteniendo su stock.
func (uc *UseCase) Reserve(ctx context.Context, actorID, orderID string) (resp *dto.OrderResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.reserve", err, time.Since(start)) }()

	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	var o *entity.Order
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		o, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if !o.CanTransition(entity.OrderReserved) {
			return domain.NewOrderStateError(o.ID, o.Status, "no se puede reservar")
		}
		return uc.reserve(ctx, repos, o, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("actor_id", actorID).Msg("pedido reservado")
	out := dto.OrderFromEntity(o)
	return &out, nil
}

func (uc *UseCase) reserve(ctx context.Context, repos repository.TxRepos, o *entity.Order, now time.Time) error {
	if len(o.Lines) == 0 {
		return &domain.OrderError{OrderID: o.ID, Reason: "el pedido no tiene ítems", Kind: domain.ErrInvalidInput}
	}
	rows, err := uc.ledger.Lock(ctx, repos.Stock, o.StockKeys(), false)
	if err != nil {
		return err
	}
	if _, err := uc.reservations.ReserveOrder(ctx, repos, rows, o, now); err != nil {
		return err
	}
	o.Status = entity.OrderReserved
	o.UpdatedAt = now
	return repos.Orders.UpdateStatus(ctx, o)
}

// Confirm factura el pedido: consume reservas (RESERVED) o debita directo (OPEN), registra
// movimientos SALE, crea la venta y deja el pedido INVOICED. Todo o nada.
func (uc *UseCase) Confirm(ctx context.Context, actorID, orderID string, in dto.ConfirmOrderRequest) (resp *dto.ConfirmOrderResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.confirm", err, time.Since(start)) }()

	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	paymentType := in.PaymentType
	if paymentType == "" {
		paymentType = entity.SalePaymentCash
	}
	if paymentType != entity.SalePaymentCash && paymentType != entity.SalePaymentCredit {
		return nil, fmt.Errorf("tipo de pago %q: %w", paymentType, domain.ErrInvalidInput)
	}

	var (
		o    *entity.Order
		sale *entity.Sale
		movs []*entity.InventoryMovement
	)
	err = uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		o, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if !o.CanTransition(entity.OrderInvoiced) {
			return domain.NewOrderStateError(o.ID, o.Status, "no se puede facturar")
		}
		if len(o.Lines) == 0 {
			return &domain.OrderError{OrderID: o.ID, Reason: "el pedido no tiene ítems", Kind: domain.ErrInvalidInput}
		}
		costs, err := costRefs(ctx, repos, o)
		if err != nil {
			return err
		}
		rows, err := uc.ledger.Lock(ctx, repos.Stock, o.StockKeys(), false)
		if err != nil {
			return err
		}

		now := uc.now()
		saleID := uuid.New().String()
		base := inventory.Entry{
			Kind:         entity.MovementSale,
			Reference:    "VENTA " + saleID,
			ActorID:      actorID,
			DocumentType: entity.DocumentSale,
			DocumentID:   saleID,
		}
		if o.Status == entity.OrderReserved {
			movs, err = uc.reservations.ConsumeOrder(ctx, repos, rows, o.ID, base, costs, now)
			if err != nil {
				return err
			}
		} else {
			for _, l := range o.Lines {
				e := base
				e.ProductID = l.ProductID
				e.WarehouseID = o.WarehouseID
				e.Quantity = l.Quantity
				e.UnitCost = costs[l.ProductID]
				mov, err := uc.ledger.Debit(ctx, repos, rows, e)
				if err != nil {
					return err
				}
				movs = append(movs, mov)
				if len(l.SerialIDs) > 0 {
					if _, err := inventory.DispatchSerials(ctx, repos.Serials, l.SerialIDs, l.ProductID, o.WarehouseID, saleID, now); err != nil {
						return err
					}
				}
			}
		}

		sale = newSale(saleID, o, actorID, paymentType, now)
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}
		o.Status = entity.OrderInvoiced
		o.SaleID = saleID
		o.UpdatedAt = now
		return repos.Orders.UpdateStatus(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.ledger.Observe(movs)
	uc.log.Info().
		Str("order_id", o.ID).
		Str("sale_id", sale.ID).
		Str("total", sale.Total.String()).
		Int("movements", len(movs)).
		Str("actor_id", actorID).
		Msg("pedido facturado")
	return &dto.ConfirmOrderResponse{Order: dto.OrderFromEntity(o), Sale: dto.SaleFromEntity(sale)}, nil
}

// Cancel anula un pedido OPEN o RESERVED liberando sus reservas. Cancelar un pedido ya
// cancelado lo devuelve sin cambios; uno facturado falla con OrderError.
func (uc *UseCase) Cancel(ctx context.Context, actorID, orderID string, in dto.CancelOrderRequest) (resp *dto.OrderResponse, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.cancel", err, time.Since(start)) }()

	if actorID == "" || orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	o, released, err := uc.cancel(ctx, orderID, in.Reason, entity.ReservationReleased, false)
	if err != nil {
		return nil, err
	}
	if released >= 0 {
		uc.log.Info().Str("order_id", o.ID).Int("released", released).Str("actor_id", actorID).Msg("pedido cancelado")
	}
	out := dto.OrderFromEntity(o)
	return &out, nil
}

// Expire cancela un pedido RESERVED cuyas reservas vencieron, dejándolas EXPIRED.
// Devuelve false si el pedido ya no estaba reservado o sus reservas siguen vigentes.
func (uc *UseCase) Expire(ctx context.Context, orderID string) (expired bool, err error) {
	start := time.Now()
	defer func() { uc.metrics.ObserveWorkflow("order.expire", err, time.Since(start)) }()

	o, released, err := uc.cancel(ctx, orderID, "reserva vencida", entity.ReservationExpired, true)
	if err != nil {
		return false, err
	}
	if released < 0 {
		return false, nil
	}
	uc.log.Info().Str("order_id", o.ID).Int("released", released).Msg("reserva vencida, pedido cancelado")
	return true, nil
}

// cancel devuelve released=-1 cuando no hubo cambios.
func (uc *UseCase) cancel(ctx context.Context, orderID, reason, releaseStatus string, onlyExpired bool) (*entity.Order, int, error) {
	var (
		o        *entity.Order
		released = -1
	)
	err := uc.txRunner.Run(ctx, func(repos repository.TxRepos) error {
		var err error
		o, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if o.Status == entity.OrderCancelled {
			return nil
		}
		if onlyExpired && o.Status != entity.OrderReserved {
			return nil
		}
		if !o.CanTransition(entity.OrderCancelled) {
			return domain.NewOrderStateError(o.ID, o.Status, "un pedido facturado no se puede cancelar")
		}
		now := uc.now()
		n := 0
		if o.Status == entity.OrderReserved {
			rows, err := uc.ledger.Lock(ctx, repos.Stock, o.StockKeys(), false)
			if err != nil {
				return err
			}
			if onlyExpired {
				active, err := repos.Reservations.ListActiveByOrderForUpdate(ctx, o.ID)
				if err != nil {
					return err
				}
				if !anyExpired(active, now) {
					return nil
				}
			}
			n, err = uc.reservations.ReleaseOrder(ctx, repos, rows, o.ID, releaseStatus, now)
			if err != nil {
				return err
			}
		}
		o.Status = entity.OrderCancelled
		o.Notes = appendNote(o.Notes, "CANCELADO", reason, now)
		o.UpdatedAt = now
		if err := repos.Orders.UpdateStatus(ctx, o); err != nil {
			return err
		}
		released = n
		return nil
	})
	if err != nil {
		return nil, -1, err
	}
	return o, released, nil
}

// Get devuelve un pedido por ID.
func (uc *UseCase) Get(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	o, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewOrderNotFound(orderID)
	}
	out := dto.OrderFromEntity(o)
	return &out, nil
}

// List lista pedidos del más reciente al más antiguo, máximo ListLimit.
func (uc *UseCase) List(ctx context.Context, q dto.OrderListQuery) ([]dto.OrderResponse, error) {
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return nil, fmt.Errorf("rango de fechas: %w", domain.ErrInvalidInput)
	}
	list, err := uc.orderRepo.List(ctx, entity.OrderFilter{
		CustomerID: q.CustomerID,
		Status:     q.Status,
		From:       q.From,
		To:         q.To,
		Limit:      ListLimit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, dto.OrderFromEntity(o))
	}
	return out, nil
}

func lockOrder(ctx context.Context, repos repository.TxRepos, orderID string) (*entity.Order, error) {
	o, err := repos.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewOrderNotFound(orderID)
	}
	return o, nil
}

// costRefs toma el costo de referencia de cada producto para valorizar las salidas.
func costRefs(ctx context.Context, repos repository.TxRepos, o *entity.Order) (map[string]decimal.Decimal, error) {
	costs := make(map[string]decimal.Decimal, len(o.Lines))
	for _, l := range o.Lines {
		if _, ok := costs[l.ProductID]; ok {
			continue
		}
		p, err := repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("producto %s: %w", l.ProductID, domain.ErrNotFound)
		}
		costs[l.ProductID] = p.CostRef
	}
	return costs, nil
}

func newSale(id string, o *entity.Order, actorID, paymentType string, now time.Time) *entity.Sale {
	s := &entity.Sale{
		ID:          id,
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		WarehouseID: o.WarehouseID,
		ActorID:     actorID,
		PaymentType: paymentType,
		Status:      entity.SaleIssued,
		Total:       o.Total,
		CreatedAt:   now,
	}
	for _, l := range o.Lines {
		s.Lines = append(s.Lines, entity.SaleLine{
			ID:        uuid.New().String(),
			SaleID:    id,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return s
}

func anyExpired(list []*entity.Reservation, now time.Time) bool {
	for _, r := range list {
		if r.Expired(now) {
			return true
		}
	}
	return false
}

func appendNote(notes, label, reason string, at time.Time) string {
	note := fmt.Sprintf("%s (%s)", label, at.Format("2006-01-02 15:04"))
	if r := strings.TrimSpace(reason); r != "" {
		note += ": " + r
	}
	if notes == "" {
		return note
	}
	return notes + " | " + note
}
