package dto

import "github.com/shopspring/decimal"

// CrearReservaRequest creates a claim on stock. PedidoID links the reservation
// to an order, which extends the expiry window from 48h to 7 days.
type CrearReservaRequest struct {
	ProductoID  string  `json:"producto_id" validate:"required,uuid"`
	Cantidad    int     `json:"cantidad" validate:"required,gt=0"`
	PedidoID    *string `json:"pedido_id,omitempty" validate:"omitempty,uuid"`
	FechaRetiro *string `json:"fecha_retiro,omitempty"` // RFC 3339
}

// ReservaResponse is the full reservation view.
type ReservaResponse struct {
	ID                string          `json:"id"`
	UsuarioID         string          `json:"usuario_id"`
	ProductoID        string          `json:"producto_id"`
	Producto          string          `json:"producto,omitempty"`
	PedidoID          *string         `json:"pedido_id,omitempty"`
	Cantidad          int             `json:"cantidad"`
	Estado            string          `json:"estado"`
	PrecioTotal       decimal.Decimal `json:"precio_total"`
	DescuentoAplicado decimal.Decimal `json:"descuento_aplicado"`
	PromocionID       *string         `json:"promocion_id,omitempty"`
	FechaReserva      string          `json:"fecha_reserva"`
	FechaExpira       string          `json:"fecha_expira"`
	FechaRetiro       *string         `json:"fecha_retiro,omitempty"`
}

// ReservaListResponse is the paginated reservation listing.
type ReservaListResponse struct {
	Data  []ReservaResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
