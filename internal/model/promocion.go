package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DescuentoPorcentaje = "percentage"
	DescuentoFijo       = "fixed_amount"
)

// Promocion is read-only at resolution time; only UsoActual moves, and only
// via an explicit RegistrarUso call tied to a completed reservation.
// ProductoID and CategoriaID are mutually exclusive scopes in practice; both
// nullable (a promotion with neither never matches).
type Promocion struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre        string          `gorm:"not null"`
	TipoDescuento string          `gorm:"type:varchar(20);not null"`
	ValorDescuento decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	ProductoID  *uuid.UUID `gorm:"type:uuid;index"`
	CategoriaID *uuid.UUID `gorm:"type:uuid;index"`

	FechaInicio time.Time `gorm:"not null"`
	FechaFin    time.Time `gorm:"not null"`

	MontoMinimoCompra decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	DescuentoMaximo   *decimal.Decimal `gorm:"type:decimal(12,2)"`

	LimiteUso *int `gorm:""`
	UsoActual int  `gorm:"not null;default:0"`

	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Vigente reports whether now falls inside [FechaInicio, FechaFin] and the
// promotion is active.
func (p *Promocion) Vigente(now time.Time) bool {
	return p.Activo && !now.Before(p.FechaInicio) && !now.After(p.FechaFin)
}

// LimiteAlcanzado reports whether the usage cap has been exhausted.
func (p *Promocion) LimiteAlcanzado() bool {
	return p.LimiteUso != nil && p.UsoActual >= *p.LimiteUso
}

func (Promocion) TableName() string { return "promociones" }
