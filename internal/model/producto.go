package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto holds the physical and reserved stock counters.
// Stock fields are mutated exclusively by the ledger (service.InventarioService)
// inside a row-locked transaction — never by handlers or other services.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CodigoBarras string    `gorm:"uniqueIndex;not null"`
	Nombre       string    `gorm:"index;not null"`
	Descripcion  *string
	CategoriaID  *uuid.UUID      `gorm:"type:uuid;index"`
	PrecioVenta  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Stock is physical units on hand; StockReservado is units held by
	// non-terminal reservations. Invariant: 0 <= StockReservado <= Stock.
	Stock          int  `gorm:"not null;default:0"`
	StockReservado int  `gorm:"not null;default:0"`
	StockMinimo    int  `gorm:"not null;default:5"`
	Activo         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}

// StockDisponible is the quantity offerable to new reservations.
func (p *Producto) StockDisponible() int { return p.Stock - p.StockReservado }

func (Producto) TableName() string { return "productos" }
