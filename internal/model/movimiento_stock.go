package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement types. "reserva" and "cancelacion_reserva" record holds on stock:
// they carry the held quantity but StockAnterior == StockNuevo, because
// physical stock is untouched until the reservation completes.
const (
	MovEntrada            = "entrada"
	MovSalida             = "salida"
	MovAjuste             = "ajuste"
	MovVenta              = "venta"
	MovDevolucion         = "devolucion"
	MovReserva            = "reserva"
	MovCancelacionReserva = "cancelacion_reserva"
)

// MovimientoStock is an immutable ledger entry. Entries are append-only and
// never modified or deleted; corrections create compensating entries. For a
// given product, the running sum of (StockNuevo - StockAnterior) must
// reconcile with its current stock.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo          string    `gorm:"type:varchar(30);not null"`
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	RealizadoPor  uuid.UUID `gorm:"type:uuid;not null"`
	// ReferenciaID/ReferenciaTipo link back to the Reserva or Pedido that
	// caused the movement, when one exists.
	ReferenciaID   *uuid.UUID `gorm:"type:uuid"`
	ReferenciaTipo *string    `gorm:"type:varchar(20)"` // "reserva" | "pedido"
	CreatedAt      time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
