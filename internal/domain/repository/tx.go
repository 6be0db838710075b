package repository

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Stock        StockRepository
	Movements    InventoryMovementRepository
	Reservations ReservationRepository
	Serials      SerialUnitRepository
	Orders       OrderRepository
	Sales        SaleRepository
	Purchases    PurchaseRepository
	Payments     PaymentRepository
	Installments InstallmentRepository
	Cash         CashRepository
	Products     ProductRepository
	Warehouses   WarehouseRepository
	Customers    CustomerRepository
	Suppliers    SupplierRepository
}
