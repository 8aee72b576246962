package model

import (
	"time"

	"github.com/google/uuid"
)

// Alert severity tiers, derived from stock as a percentage of the threshold.
const (
	SeveridadBaja    = "baja"
	SeveridadMedia   = "media"
	SeveridadAlta    = "alta"
	SeveridadCritica = "critica"
)

// AlertaStock flags a product at or below its low-stock threshold.
// At most one active alert exists per product: while stock stays below the
// threshold the row is updated in place, and it is deactivated once stock
// recovers. Acknowledging does not deactivate.
type AlertaStock struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Umbral      int       `gorm:"not null"`
	StockActual int       `gorm:"not null"`
	Severidad   string    `gorm:"type:varchar(10);not null"`
	Activa      bool      `gorm:"not null;default:true;index"`

	ReconocidaPor *uuid.UUID `gorm:"type:uuid"`
	ReconocidaAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// CalcularSeveridad maps stock/threshold*100 to a severity tier.
// A zero threshold is treated as critical (any stock at or below 0 qualifies).
func CalcularSeveridad(stock, umbral int) string {
	if umbral <= 0 {
		return SeveridadCritica
	}
	pct := stock * 100 / umbral
	switch {
	case pct <= 25:
		return SeveridadCritica
	case pct <= 50:
		return SeveridadAlta
	case pct <= 75:
		return SeveridadMedia
	default:
		return SeveridadBaja
	}
}

func (AlertaStock) TableName() string { return "alertas_stock" }
