package dto

import "github.com/shopspring/decimal"

// ProductoFilter lists products with optional name/category filters.
// BajoStock restricts to products at or below their threshold.
type ProductoFilter struct {
	Nombre      string `form:"nombre"`
	CategoriaID string `form:"categoria_id"`
	BajoStock   bool   `form:"bajo_stock"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// CrearProductoRequest seeds a catalog entry. Initial stock enters through
// the ledger afterwards, not here.
type CrearProductoRequest struct {
	CodigoBarras string          `json:"codigo_barras" validate:"required"`
	Nombre       string          `json:"nombre" validate:"required"`
	Descripcion  *string         `json:"descripcion,omitempty"`
	CategoriaID  *string         `json:"categoria_id,omitempty" validate:"omitempty,uuid"`
	PrecioVenta  decimal.Decimal `json:"precio_venta" validate:"required,gt=0"`
	StockMinimo  int             `json:"stock_minimo" validate:"min=0"`
}

// ProductoResponse exposes stock counters plus derived availability.
type ProductoResponse struct {
	ID              string          `json:"id"`
	CodigoBarras    string          `json:"codigo_barras"`
	Nombre          string          `json:"nombre"`
	Descripcion     *string         `json:"descripcion,omitempty"`
	CategoriaID     *string         `json:"categoria_id,omitempty"`
	PrecioVenta     decimal.Decimal `json:"precio_venta"`
	Stock           int             `json:"stock"`
	StockReservado  int             `json:"stock_reservado"`
	StockDisponible int             `json:"stock_disponible"`
	StockMinimo     int             `json:"stock_minimo"`
	Activo          bool            `json:"activo"`
}

// ProductoListResponse is the paginated product listing.
type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
