package dto

// AjustarStockRequest is the body of PATCH /v1/productos/:id/stock.
// Delta is signed: positive = entrada, negative = salida.
type AjustarStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Tipo   string `json:"tipo" validate:"required,oneof=entrada salida ajuste venta devolucion"`
	Motivo string `json:"motivo" validate:"required"`
}

// AjusteItem is one line of a bulk adjustment.
type AjusteItem struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Delta      int    `json:"delta" validate:"required"`
}

// AjusteMasivoRequest adjusts many products in a single transaction.
type AjusteMasivoRequest struct {
	Items  []AjusteItem `json:"items" validate:"required,min=1,dive"`
	Tipo   string       `json:"tipo" validate:"required,oneof=entrada salida ajuste devolucion"`
	Motivo string       `json:"motivo" validate:"required"`
}

// ReservarStockRequest / LiberarStockRequest mutate only reserved stock.
type ReservarStockRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad" validate:"required,gt=0"`
	Motivo     string `json:"motivo" validate:"required"`
}

type LiberarStockRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad" validate:"required,gt=0"`
	Motivo     string `json:"motivo" validate:"required"`
}

// AjusteStockResponse reports the before/after of a ledger mutation.
type AjusteStockResponse struct {
	ProductoID     string `json:"producto_id"`
	StockAnterior  int    `json:"stock_anterior"`
	StockNuevo     int    `json:"stock_nuevo"`
	StockReservado int    `json:"stock_reservado"`
}

// AjusteMasivoResponse lists the per-product results of a bulk adjustment.
type AjusteMasivoResponse struct {
	Resultados []AjusteStockResponse `json:"resultados"`
}

// MovimientoResponse is one audit-trail entry.
type MovimientoResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Producto      string  `json:"producto,omitempty"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	RealizadoPor  string  `json:"realizado_por"`
	ReferenciaID  *string `json:"referencia_id,omitempty"`
	ReferenciaTipo *string `json:"referencia_tipo,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

// MovimientoListResponse is the paginated movement listing.
type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
