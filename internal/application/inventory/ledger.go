package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
	"github.com/jhoicas/erp-ledger/pkg/metrics"
)

// Entry describe un cambio de existencia. Quantity es siempre la magnitud (positiva);
// el signo del movimiento lo decide la operación (Credit suma, Debit resta).
type Entry struct {
	Kind         string
	ProductID    string
	WarehouseID  string
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Reference    string
	ActorID      string
	DocumentType string
	DocumentID   string
}

func (e Entry) key() entity.StockKey {
	return entity.StockKey{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
}

// LockedRow fila de existencia bloqueada dentro de la transacción en curso.
type LockedRow struct {
	Stock  *entity.Stock
	Exists bool
}

// LockedStock filas bloqueadas por una operación, indexadas por clave.
type LockedStock map[entity.StockKey]*LockedRow

// Ledger es el libro de existencias: cada cambio de on_hand se guarda junto con
// exactamente un movimiento en la misma transacción.
type Ledger struct {
	metrics *metrics.LedgerMetrics
	now     func() time.Time
}

// NewLedger construye el libro. m puede ser nil.
func NewLedger(m *metrics.LedgerMetrics) *Ledger {
	return &Ledger{metrics: m, now: time.Now}
}

// SortKeys ordena y deduplica claves en el orden canónico de bloqueo.
func SortKeys(keys []entity.StockKey) []entity.StockKey {
	seen := make(map[entity.StockKey]struct{}, len(keys))
	out := make([]entity.StockKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Lock bloquea (SELECT FOR UPDATE) todas las filas en orden canónico: producto y luego bodega.
// Con ensure=true las filas faltantes se crean en cero antes de bloquear (entradas).
func (l *Ledger) Lock(ctx context.Context, repo repository.StockRepository, keys []entity.StockKey, ensure bool) (LockedStock, error) {
	rows := make(LockedStock, len(keys))
	for _, k := range SortKeys(keys) {
		if ensure {
			s, err := repo.EnsureForUpdate(ctx, k.ProductID, k.WarehouseID)
			if err != nil {
				return nil, err
			}
			rows[k] = &LockedRow{Stock: s, Exists: true}
			continue
		}
		s, exists, err := repo.GetForUpdate(ctx, k.ProductID, k.WarehouseID)
		if err != nil {
			return nil, err
		}
		rows[k] = &LockedRow{Stock: s, Exists: exists}
	}
	return rows, nil
}

// Balance devuelve el on_hand actual del par (cero si no existe).
func (l *Ledger) Balance(ctx context.Context, repo repository.StockRepository, productID, warehouseID string) (decimal.Decimal, error) {
	s, _, err := repo.Get(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.OnHand, nil
}

// Credit suma la cantidad al on_hand y registra el movimiento de entrada.
func (l *Ledger) Credit(ctx context.Context, repos repository.TxRepos, rows LockedStock, e Entry) (*entity.InventoryMovement, error) {
	row, err := rows.get(e.key())
	if err != nil {
		return nil, err
	}
	qty := entity.Qty(e.Quantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if !row.Exists {
		// crédito sobre una fila que solo se leyó: se crea al guardar
		row.Exists = true
	}
	row.Stock.OnHand = entity.Qty(row.Stock.OnHand.Add(qty))
	return l.apply(ctx, repos, row, e, qty)
}

// Debit resta la cantidad del on_hand. Falla con StockError si supera lo disponible
// (on_hand menos lo reservado por otros pedidos) o si la fila no existe.
func (l *Ledger) Debit(ctx context.Context, repos repository.TxRepos, rows LockedStock, e Entry) (*entity.InventoryMovement, error) {
	row, err := rows.get(e.key())
	if err != nil {
		return nil, err
	}
	qty := entity.Qty(e.Quantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if err := checkAvailable(row, qty); err != nil {
		return nil, err
	}
	row.Stock.OnHand = entity.Qty(row.Stock.OnHand.Sub(qty))
	return l.apply(ctx, repos, row, e, qty.Neg())
}

// ConsumeHeld convierte cantidad retenida en salida: baja on_hand y reserved a la vez.
func (l *Ledger) ConsumeHeld(ctx context.Context, repos repository.TxRepos, rows LockedStock, e Entry) (*entity.InventoryMovement, error) {
	row, err := rows.get(e.key())
	if err != nil {
		return nil, err
	}
	qty := entity.Qty(e.Quantity)
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if !row.Exists || row.Stock.Reserved.LessThan(qty) || row.Stock.OnHand.LessThan(qty) {
		return nil, &domain.StockError{
			ProductID: e.ProductID, WarehouseID: e.WarehouseID,
			Requested: qty, Available: row.Stock.Reserved, Absent: !row.Exists,
		}
	}
	row.Stock.Reserved = entity.Qty(row.Stock.Reserved.Sub(qty))
	row.Stock.OnHand = entity.Qty(row.Stock.OnHand.Sub(qty))
	return l.apply(ctx, repos, row, e, qty.Neg())
}

// Hold retiene cantidad disponible (reserved += qty). No genera movimiento: on_hand no cambia.
func (l *Ledger) Hold(ctx context.Context, repo repository.StockRepository, rows LockedStock, key entity.StockKey, qty decimal.Decimal) error {
	row, err := rows.get(key)
	if err != nil {
		return err
	}
	qty = entity.Qty(qty)
	if err := checkAvailable(row, qty); err != nil {
		return err
	}
	row.Stock.Reserved = entity.Qty(row.Stock.Reserved.Add(qty))
	row.Stock.UpdatedAt = l.now()
	return repo.Save(ctx, row.Stock)
}

// Unhold devuelve cantidad retenida a disponible.
func (l *Ledger) Unhold(ctx context.Context, repo repository.StockRepository, rows LockedStock, key entity.StockKey, qty decimal.Decimal) error {
	row, err := rows.get(key)
	if err != nil {
		return err
	}
	if !row.Exists {
		return nil
	}
	reserved := row.Stock.Reserved.Sub(entity.Qty(qty))
	if reserved.IsNegative() {
		reserved = decimal.Zero
	}
	row.Stock.Reserved = entity.Qty(reserved)
	row.Stock.UpdatedAt = l.now()
	return repo.Save(ctx, row.Stock)
}

// Observe publica métricas de movimientos ya confirmados.
func (l *Ledger) Observe(movs []*entity.InventoryMovement) {
	for _, m := range movs {
		f, _ := m.Quantity.Abs().Float64()
		l.metrics.ObserveMovement(m.Kind, f)
	}
}

func (l *Ledger) apply(ctx context.Context, repos repository.TxRepos, row *LockedRow, e Entry, signed decimal.Decimal) (*entity.InventoryMovement, error) {
	now := l.now()
	row.Stock.UpdatedAt = now
	if err := repos.Stock.Save(ctx, row.Stock); err != nil {
		return nil, err
	}
	mov := &entity.InventoryMovement{
		ID:           uuid.New().String(),
		Kind:         e.Kind,
		ProductID:    e.ProductID,
		Quantity:     signed,
		UnitCost:     e.UnitCost,
		BalanceAfter: row.Stock.OnHand,
		Reference:    e.Reference,
		DocumentType: e.DocumentType,
		DocumentID:   e.DocumentID,
		ActorID:      e.ActorID,
		CreatedAt:    now,
	}
	if signed.IsPositive() {
		mov.DestWarehouseID = e.WarehouseID
	} else {
		mov.SourceWarehouseID = e.WarehouseID
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func checkAvailable(row *LockedRow, qty decimal.Decimal) error {
	if !row.Exists {
		return &domain.StockError{
			ProductID: row.Stock.ProductID, WarehouseID: row.Stock.WarehouseID,
			Requested: qty, Available: decimal.Zero, Absent: true,
		}
	}
	if qty.GreaterThan(row.Stock.Available()) {
		return &domain.StockError{
			ProductID: row.Stock.ProductID, WarehouseID: row.Stock.WarehouseID,
			Requested: qty, Available: row.Stock.Available(),
		}
	}
	return nil
}

func (r LockedStock) get(k entity.StockKey) (*LockedRow, error) {
	row, ok := r[k]
	if !ok {
		return nil, fmt.Errorf("fila de stock %s/%s no bloqueada", k.ProductID, k.WarehouseID)
	}
	return row, nil
}
