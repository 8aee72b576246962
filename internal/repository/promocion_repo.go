package repository

import (
	"context"
	"time"

	"reservapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PromocionRepository is the data access contract for promotions.
// ListVigentes is the resolver's candidate query; usage increments happen
// through IncrementarUso with a guard against exceeding the limit.
type PromocionRepository interface {
	Create(ctx context.Context, p *model.Promocion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error)
	// ListVigentes returns active promotions whose window contains now, scoped
	// either to the product itself or to its category.
	ListVigentes(ctx context.Context, productoID uuid.UUID, categoriaID *uuid.UUID, now time.Time) ([]model.Promocion, error)
	List(ctx context.Context) ([]model.Promocion, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	IncrementarUso(ctx context.Context, id uuid.UUID) error
}

type promocionRepo struct{ db *gorm.DB }

func NewPromocionRepository(db *gorm.DB) PromocionRepository { return &promocionRepo{db: db} }

func (r *promocionRepo) Create(ctx context.Context, p *model.Promocion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *promocionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error) {
	var p model.Promocion
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promocionRepo) ListVigentes(ctx context.Context, productoID uuid.UUID, categoriaID *uuid.UUID, now time.Time) ([]model.Promocion, error) {
	q := r.db.WithContext(ctx).Model(&model.Promocion{}).
		Where("activo = true AND fecha_inicio <= ? AND fecha_fin >= ?", now, now)

	if categoriaID != nil {
		q = q.Where("producto_id = ? OR categoria_id = ?", productoID, *categoriaID)
	} else {
		q = q.Where("producto_id = ?", productoID)
	}

	var promos []model.Promocion
	err := q.Find(&promos).Error
	return promos, err
}

func (r *promocionRepo) List(ctx context.Context) ([]model.Promocion, error) {
	var promos []model.Promocion
	err := r.db.WithContext(ctx).Order("fecha_inicio DESC").Find(&promos).Error
	return promos, err
}

func (r *promocionRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Promocion{}).
		Where("id = ?", id).Update("activo", false).Error
}

// IncrementarUso bumps uso_actual atomically; the WHERE guard keeps the
// counter from passing limite_uso under concurrent completions.
func (r *promocionRepo) IncrementarUso(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Promocion{}).
		Where("id = ? AND (limite_uso IS NULL OR uso_actual < limite_uso)", id).
		Update("uso_actual", gorm.Expr("uso_actual + 1")).Error
}
