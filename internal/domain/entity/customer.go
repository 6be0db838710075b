package entity

import "time"

// Customer representa un cliente.
type Customer struct {
	ID        string
	Name      string
	TaxID     string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// Supplier representa un proveedor.
type Supplier struct {
	ID        string
	Name      string
	TaxID     string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
}
