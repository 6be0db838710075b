package order

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/erp-ledger/internal/application/dto"
	"github.com/jhoicas/erp-ledger/internal/domain"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
	"github.com/jhoicas/erp-ledger/internal/domain/repository"
)

// buildLines valida los ítems contra el catálogo y arma las líneas del pedido.
// Los productos serializados exigen tantas series como unidades.
func buildLines(ctx context.Context, repos repository.TxRepos, orderID string, items []dto.OrderItemRequest) ([]entity.OrderLine, error) {
	if len(items) == 0 {
		return nil, &domain.OrderError{OrderID: orderID, Reason: "el pedido no tiene ítems", Kind: domain.ErrInvalidInput}
	}
	lines := make([]entity.OrderLine, 0, len(items))
	for i, it := range items {
		it.Quantity = entity.Qty(it.Quantity)
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("ítem %d: cantidad debe ser positiva: %w", i+1, domain.ErrInvalidInput)
		}
		p, err := repos.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil || !p.Active {
			return nil, fmt.Errorf("ítem %d: producto %s: %w", i+1, it.ProductID, domain.ErrNotFound)
		}
		price := p.Price
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				return nil, fmt.Errorf("ítem %d: precio negativo: %w", i+1, domain.ErrInvalidInput)
			}
			price = *it.UnitPrice
		}
		if p.Serialized {
			if !it.Quantity.Equal(decimal.NewFromInt(int64(len(it.SerialIDs)))) {
				return nil, fmt.Errorf("ítem %d: el producto %s exige %s series, llegaron %d: %w",
					i+1, p.SKU, it.Quantity.String(), len(it.SerialIDs), domain.ErrInvalidInput)
			}
		} else if len(it.SerialIDs) > 0 {
			return nil, fmt.Errorf("ítem %d: el producto %s no es serializado: %w", i+1, p.SKU, domain.ErrInvalidInput)
		}
		lines = append(lines, entity.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  it.Quantity,
			UnitPrice: entity.Money(price),
			SerialIDs: append([]string(nil), it.SerialIDs...),
		})
	}
	return lines, nil
}

// checkAvailability es el chequeo informativo de creación y edición: no retiene nada.
// Suma por producto para que dos líneas del mismo producto no pasen por separado.
func checkAvailability(ctx context.Context, repos repository.TxRepos, warehouseID string, lines []entity.OrderLine) error {
	needed := map[string]decimal.Decimal{}
	var order []string
	serialProduct := map[string]string{}
	var serials []string
	for _, l := range lines {
		if _, ok := needed[l.ProductID]; !ok {
			order = append(order, l.ProductID)
		}
		needed[l.ProductID] = needed[l.ProductID].Add(l.Quantity)
		for _, id := range l.SerialIDs {
			if _, dup := serialProduct[id]; dup {
				return fmt.Errorf("serie %s repetida: %w", id, domain.ErrInvalidInput)
			}
			serialProduct[id] = l.ProductID
			serials = append(serials, id)
		}
	}
	sort.Strings(serials)
	for _, id := range serials {
		productID := serialProduct[id]
		u, err := repos.Serials.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if u == nil || u.ProductID != productID {
			return fmt.Errorf("serie %s: %w", id, domain.ErrNotFound)
		}
		if u.Status != entity.SerialInStock || u.WarehouseID != warehouseID {
			return &domain.StockError{ProductID: productID, WarehouseID: warehouseID, Requested: decimal.NewFromInt(1), Available: decimal.Zero}
		}
	}
	for _, productID := range order {
		s, exists, err := repos.Stock.Get(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		qty := needed[productID]
		if !exists {
			return &domain.StockError{ProductID: productID, WarehouseID: warehouseID, Requested: qty, Available: decimal.Zero, Absent: true}
		}
		if qty.GreaterThan(s.Available()) {
			return &domain.StockError{ProductID: productID, WarehouseID: warehouseID, Requested: qty, Available: s.Available()}
		}
	}
	return nil
}
