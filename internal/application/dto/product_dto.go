package dto

// CatalogQuery filtros de GET /api/catalog/:kind.
type CatalogQuery struct {
	Search     string `query:"q" validate:"max=100"`
	ActiveOnly bool   `query:"active"`
	PageRequest
}

// CatalogItemResponse registro de catálogo en forma común.
type CatalogItemResponse struct {
	ID     string            `json:"id"`
	Code   string            `json:"code,omitempty"`
	Name   string            `json:"name"`
	Active bool              `json:"active"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// CatalogListResponse página de catálogo.
type CatalogListResponse struct {
	Kind  string                `json:"kind"`
	Items []CatalogItemResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
