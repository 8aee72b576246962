package dto

import "github.com/shopspring/decimal"

// CrearPromocionRequest registers a discount. Exactly one of ProductoID /
// CategoriaID should be set; the resolver never matches a promotion scoped to
// neither.
type CrearPromocionRequest struct {
	Nombre            string           `json:"nombre" validate:"required"`
	TipoDescuento     string           `json:"tipo_descuento" validate:"required,oneof=percentage fixed_amount"`
	ValorDescuento    decimal.Decimal  `json:"valor_descuento" validate:"required,gt=0"`
	ProductoID        *string          `json:"producto_id,omitempty" validate:"omitempty,uuid"`
	CategoriaID       *string          `json:"categoria_id,omitempty" validate:"omitempty,uuid"`
	FechaInicio       string           `json:"fecha_inicio" validate:"required"` // RFC 3339
	FechaFin          string           `json:"fecha_fin" validate:"required"`
	MontoMinimoCompra decimal.Decimal  `json:"monto_minimo_compra"`
	DescuentoMaximo   *decimal.Decimal `json:"descuento_maximo,omitempty"`
	LimiteUso         *int             `json:"limite_uso,omitempty" validate:"omitempty,gt=0"`
}

// PromocionResponse is the full promotion view.
type PromocionResponse struct {
	ID                string           `json:"id"`
	Nombre            string           `json:"nombre"`
	TipoDescuento     string           `json:"tipo_descuento"`
	ValorDescuento    decimal.Decimal  `json:"valor_descuento"`
	ProductoID        *string          `json:"producto_id,omitempty"`
	CategoriaID       *string          `json:"categoria_id,omitempty"`
	FechaInicio       string           `json:"fecha_inicio"`
	FechaFin          string           `json:"fecha_fin"`
	MontoMinimoCompra decimal.Decimal  `json:"monto_minimo_compra"`
	DescuentoMaximo   *decimal.Decimal `json:"descuento_maximo,omitempty"`
	LimiteUso         *int             `json:"limite_uso,omitempty"`
	UsoActual         int              `json:"uso_actual"`
	Activo            bool             `json:"activo"`
}

// ResolucionResponse is the outcome of the best-promotion resolution for a
// product/quantity pair. PromocionAplicada is null when nothing is eligible.
type ResolucionResponse struct {
	Subtotal          decimal.Decimal    `json:"subtotal"`
	Descuento         decimal.Decimal    `json:"descuento"`
	PrecioFinal       decimal.Decimal    `json:"precio_final"`
	PromocionAplicada *PromocionResponse `json:"promocion_aplicada"`
}
