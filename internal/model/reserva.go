package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Reservation states. Completada is terminal; cancelada and expirada are
// terminal too. All transitions go through service.ReservaService — rows are
// never deleted, only terminalized.
const (
	ReservaPendiente  = "pendiente"
	ReservaConfirmada = "confirmada"
	ReservaCompletada = "completada"
	ReservaCancelada  = "cancelada"
	ReservaExpirada   = "expirada"
)

// Expiry windows, fixed at creation time.
const (
	VentanaReservaDirecta = 48 * time.Hour
	VentanaReservaPedido  = 7 * 24 * time.Hour
)

// Reserva is one customer's claim on one product. PrecioTotal is snapshotted
// at creation (with the best applicable promotion already discounted) and is
// never re-priced: a later price change does not alter the quoted total.
type Reserva struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;index"`
	PedidoID   *uuid.UUID `gorm:"type:uuid;index"`
	Cantidad   int       `gorm:"not null"`
	Estado     string    `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	// EmailContacto is snapshotted from the creator's token; every state-change
	// notification for this reservation is delivered there.
	EmailContacto string `gorm:"type:varchar(255)"`

	PrecioTotal decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// PromocionID records the promotion applied at creation, if any; its
	// usage counter is incremented when the reservation completes.
	PromocionID       *uuid.UUID      `gorm:"type:uuid"`
	DescuentoAplicado decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	FechaReserva time.Time  `gorm:"not null"`
	FechaRetiro  *time.Time
	FechaExpira  time.Time `gorm:"not null;index"`

	ConfirmadaPor *uuid.UUID `gorm:"type:uuid"`
	ConfirmadaAt  *time.Time
	CompletadaAt  *time.Time
	CanceladaAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// EstaVencida reports whether the reservation is past its expiry window.
func (r *Reserva) EstaVencida(now time.Time) bool { return now.After(r.FechaExpira) }

// EsTerminal reports whether the reservation can no longer transition.
func (r *Reserva) EsTerminal() bool {
	switch r.Estado {
	case ReservaCompletada, ReservaCancelada, ReservaExpirada:
		return true
	}
	return false
}

func (Reserva) TableName() string { return "reservas" }
