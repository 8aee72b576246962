package repository

import (
	"context"
	"time"

	"reservapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertaStockRepository manages low-stock alerts. The Tx variants run inside
// the ledger's mutation transaction so alert state commits atomically with
// the stock change that triggered it.
type AlertaStockRepository interface {
	FindActivaByProductoTx(tx *gorm.DB, productoID uuid.UUID) (*model.AlertaStock, error)
	CreateTx(tx *gorm.DB, a *model.AlertaStock) error
	UpdateTx(tx *gorm.DB, a *model.AlertaStock) error
	DesactivarByProductoTx(tx *gorm.DB, productoID uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*model.AlertaStock, error)
	ListActivas(ctx context.Context) ([]model.AlertaStock, error)
	Reconocer(ctx context.Context, id, usuarioID uuid.UUID, at time.Time) error
}

type alertaStockRepo struct{ db *gorm.DB }

func NewAlertaStockRepository(db *gorm.DB) AlertaStockRepository {
	return &alertaStockRepo{db: db}
}

func (r *alertaStockRepo) FindActivaByProductoTx(tx *gorm.DB, productoID uuid.UUID) (*model.AlertaStock, error) {
	var a model.AlertaStock
	err := tx.Where("producto_id = ? AND activa = true", productoID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertaStockRepo) CreateTx(tx *gorm.DB, a *model.AlertaStock) error {
	return tx.Create(a).Error
}

func (r *alertaStockRepo) UpdateTx(tx *gorm.DB, a *model.AlertaStock) error {
	return tx.Save(a).Error
}

func (r *alertaStockRepo) DesactivarByProductoTx(tx *gorm.DB, productoID uuid.UUID) error {
	return tx.Model(&model.AlertaStock{}).
		Where("producto_id = ? AND activa = true", productoID).
		Update("activa", false).Error
}

func (r *alertaStockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AlertaStock, error) {
	var a model.AlertaStock
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *alertaStockRepo) ListActivas(ctx context.Context) ([]model.AlertaStock, error) {
	var alertas []model.AlertaStock
	err := r.db.WithContext(ctx).
		Preload("Producto").
		Where("activa = true").
		Order("severidad, created_at DESC").
		Find(&alertas).Error
	return alertas, err
}

func (r *alertaStockRepo) Reconocer(ctx context.Context, id, usuarioID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.AlertaStock{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reconocida_por": usuarioID,
			"reconocida_at":  at,
		}).Error
}
