package dto

import (
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

// OrderFromEntity arma la respuesta de un pedido.
func OrderFromEntity(o *entity.Order) OrderResponse {
	items := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, OrderLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
			SerialIDs: l.SerialIDs,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		WarehouseID: o.WarehouseID,
		ActorID:     o.ActorID,
		Status:      o.Status,
		Total:       o.Total,
		SaleID:      o.SaleID,
		Notes:       o.Notes,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// SaleFromEntity arma la respuesta de una venta.
func SaleFromEntity(s *entity.Sale) SaleResponse {
	items := make([]SaleLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, SaleLineResponse{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return SaleResponse{
		ID:          s.ID,
		OrderID:     s.OrderID,
		CustomerID:  s.CustomerID,
		WarehouseID: s.WarehouseID,
		PaymentType: s.PaymentType,
		Status:      s.Status,
		Total:       s.Total,
		Items:       items,
		CreatedAt:   s.CreatedAt,
	}
}

// PurchaseFromEntity arma la respuesta de una compra.
func PurchaseFromEntity(p *entity.Purchase) PurchaseResponse {
	items := make([]PurchaseLineResponse, 0, len(p.Lines))
	for _, l := range p.Lines {
		items = append(items, PurchaseLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			Subtotal:  l.Subtotal,
			Serials:   l.Serials,
		})
	}
	return PurchaseResponse{
		ID:             p.ID,
		SupplierID:     p.SupplierID,
		WarehouseID:    p.WarehouseID,
		DocumentNumber: p.DocumentNumber,
		Status:         p.Status,
		Total:          p.Total,
		Notes:          p.Notes,
		ActorID:        p.ActorID,
		Items:          items,
		CreatedAt:      p.CreatedAt,
		VoidedAt:       p.VoidedAt,
	}
}

// DashboardFromEntity arma la respuesta del tablero de compras.
func DashboardFromEntity(d *entity.PurchaseDashboard) PurchaseDashboardResponse {
	conv := func(in []entity.PurchaseAggregate) []PurchaseAggregateResponse {
		out := make([]PurchaseAggregateResponse, 0, len(in))
		for _, a := range in {
			out = append(out, PurchaseAggregateResponse{ID: a.ID, Name: a.Name, Amount: a.Amount, Quantity: a.Quantity, Count: a.Count})
		}
		return out
	}
	return PurchaseDashboardResponse{
		TotalAmount:   d.TotalAmount,
		PurchaseCount: d.PurchaseCount,
		BySupplier:    conv(d.BySupplier),
		ByWarehouse:   conv(d.ByWarehouse),
		TopProducts:   conv(d.TopProducts),
	}
}

// PaymentFromEntity arma la respuesta de un pago.
func PaymentFromEntity(p *entity.Payment) PaymentResponse {
	apps := make([]ApplicationResponse, 0, len(p.Applications))
	for _, a := range p.Applications {
		apps = append(apps, ApplicationResponse{
			ID:            a.ID,
			TargetType:    a.TargetType,
			SaleID:        a.SaleID,
			InstallmentID: a.InstallmentID,
			Amount:        a.Amount,
			Type:          a.Type,
		})
	}
	return PaymentResponse{
		ID:             p.ID,
		CustomerID:     p.CustomerID,
		Method:         p.Method,
		Reference:      p.Reference,
		Total:          p.Total,
		ActorID:        p.ActorID,
		InitialDeposit: p.InitialDeposit,
		CashBoxID:      p.CashBoxID,
		Applications:   apps,
		CreatedAt:      p.CreatedAt,
	}
}

// InstallmentFromEntity arma la respuesta de una cuota.
func InstallmentFromEntity(i *entity.Installment) InstallmentResponse {
	return InstallmentResponse{
		ID:        i.ID,
		Number:    i.Number,
		DueDate:   i.DueDate,
		Principal: i.Principal,
		Interest:  i.Interest,
		Total:     i.Total,
		Balance:   i.Balance,
		Status:    i.Status,
	}
}

// StockFromEntity arma la respuesta de una existencia.
func StockFromEntity(s *entity.Stock) StockResponse {
	r := StockResponse{
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		OnHand:      s.OnHand,
		Reserved:    s.Reserved,
		Available:   s.Available(),
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		r.UpdatedAt = &t
	}
	return r
}

// MovementFromEntity arma una fila del kardex.
func MovementFromEntity(m *entity.InventoryMovement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		Kind:              m.Kind,
		ProductID:         m.ProductID,
		SourceWarehouseID: m.SourceWarehouseID,
		DestWarehouseID:   m.DestWarehouseID,
		Quantity:          m.Quantity,
		UnitCost:          m.UnitCost,
		BalanceAfter:      m.BalanceAfter,
		Reference:         m.Reference,
		DocumentType:      m.DocumentType,
		DocumentID:        m.DocumentID,
		ActorID:           m.ActorID,
		CreatedAt:         m.CreatedAt,
	}
}

// CatalogItemFromEntity arma la respuesta de un registro de catálogo.
func CatalogItemFromEntity(it entity.CatalogItem) CatalogItemResponse {
	return CatalogItemResponse{ID: it.ID, Code: it.Code, Name: it.Name, Active: it.Active, Extra: it.Extra}
}
