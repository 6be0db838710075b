package entity

import "fmt"

// CatalogKind enumera los catálogos de referencia de solo lectura.
type CatalogKind int

const (
	CatalogCustomers CatalogKind = iota + 1
	CatalogProducts
	CatalogWarehouses
	CatalogSuppliers
)

var catalogNames = map[CatalogKind]string{
	CatalogCustomers:  "customers",
	CatalogProducts:   "products",
	CatalogWarehouses: "warehouses",
	CatalogSuppliers:  "suppliers",
}

func (k CatalogKind) String() string {
	if s, ok := catalogNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CatalogKind(%d)", int(k))
}

// ParseCatalogKind convierte el nombre de ruta en un CatalogKind.
func ParseCatalogKind(s string) (CatalogKind, bool) {
	for k, name := range catalogNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// CatalogFilter filtros de listado de catálogo.
type CatalogFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// CatalogItem vista común de un registro de catálogo.
type CatalogItem struct {
	ID     string
	Code   string // SKU o NIT según el catálogo
	Name   string
	Active bool
	Extra  map[string]string
}
