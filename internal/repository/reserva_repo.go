package repository

import (
	"context"
	"time"

	"reservapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReservaFilter defines filters for listing reservations.
type ReservaFilter struct {
	UsuarioID *uuid.UUID
	Estado    string
	Page      int
	Limit     int
}

// ReservaRepository is the data access contract for reservations.
// State changes always run inside a transaction that also holds the product
// row lock, so FindByIDForUpdateTx locks the reservation row the same way.
type ReservaRepository interface {
	CreateTx(tx *gorm.DB, res *model.Reserva) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Reserva, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Reserva, error)
	UpdateTx(tx *gorm.DB, res *model.Reserva) error
	List(ctx context.Context, filter ReservaFilter) ([]model.Reserva, int64, error)
	// ListPendientesVencidas returns Pending reservations whose expiry is in
	// the past, oldest first, for the sweep task.
	ListPendientesVencidas(ctx context.Context, now time.Time, limit int) ([]model.Reserva, error)

	DB() *gorm.DB
}

type reservaRepo struct{ db *gorm.DB }

func NewReservaRepository(db *gorm.DB) ReservaRepository { return &reservaRepo{db: db} }

func (r *reservaRepo) CreateTx(tx *gorm.DB, res *model.Reserva) error {
	return tx.Create(res).Error
}

func (r *reservaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Reserva, error) {
	var res model.Reserva
	err := r.db.WithContext(ctx).Preload("Producto").First(&res, id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservaRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Reserva, error) {
	var res model.Reserva
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&res, id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservaRepo) UpdateTx(tx *gorm.DB, res *model.Reserva) error {
	return tx.Save(res).Error
}

func (r *reservaRepo) List(ctx context.Context, filter ReservaFilter) ([]model.Reserva, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Reserva{}).Preload("Producto")
	if filter.UsuarioID != nil {
		q = q.Where("usuario_id = ?", *filter.UsuarioID)
	}
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var reservas []model.Reserva
	err := q.Order("fecha_reserva DESC").Offset((page - 1) * limit).Limit(limit).Find(&reservas).Error
	return reservas, total, err
}

func (r *reservaRepo) ListPendientesVencidas(ctx context.Context, now time.Time, limit int) ([]model.Reserva, error) {
	var reservas []model.Reserva
	err := r.db.WithContext(ctx).
		Where("estado = ? AND fecha_expira < ?", model.ReservaPendiente, now).
		Order("fecha_expira ASC").
		Limit(limit).
		Find(&reservas).Error
	return reservas, err
}

func (r *reservaRepo) DB() *gorm.DB { return r.db }
