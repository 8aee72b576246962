package service

import (
	"context"
	"errors"
	"time"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertaService derives low-stock alerts from ledger mutations. EvaluarTx
// runs inside the ledger's transaction so alert state commits atomically with
// the stock change that triggered it.
type AlertaService interface {
	EvaluarTx(tx *gorm.DB, productoID uuid.UUID, stock, umbral int) error
	ListarActivas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	Reconocer(ctx context.Context, alertaID, usuarioID uuid.UUID) error
}

type alertaService struct {
	repo repository.AlertaStockRepository
}

func NewAlertaService(repo repository.AlertaStockRepository) AlertaService {
	return &alertaService{repo: repo}
}

// EvaluarTx keeps the one-active-alert-per-product rule: at or below the
// threshold it creates the alert or refreshes it in place; above the
// threshold it deactivates whatever was active.
func (s *alertaService) EvaluarTx(tx *gorm.DB, productoID uuid.UUID, stock, umbral int) error {
	if stock > umbral {
		return s.repo.DesactivarByProductoTx(tx, productoID)
	}

	activa, err := s.repo.FindActivaByProductoTx(tx, productoID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		nueva := &model.AlertaStock{
			ProductoID:  productoID,
			Umbral:      umbral,
			StockActual: stock,
			Severidad:   model.CalcularSeveridad(stock, umbral),
			Activa:      true,
		}
		return s.repo.CreateTx(tx, nueva)
	}

	activa.StockActual = stock
	activa.Umbral = umbral
	activa.Severidad = model.CalcularSeveridad(stock, umbral)
	return s.repo.UpdateTx(tx, activa)
}

func (s *alertaService) ListarActivas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	alertas, err := s.repo.ListActivas(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.AlertaStockResponse, 0, len(alertas))
	for _, a := range alertas {
		resp = append(resp, *alertaToResponse(&a))
	}
	return resp, nil
}

// Reconocer marks who looked at the alert; the alert stays active until stock
// recovers above the threshold.
func (s *alertaService) Reconocer(ctx context.Context, alertaID, usuarioID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, alertaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAlertaNoEncontrada
		}
		return err
	}
	return s.repo.Reconocer(ctx, alertaID, usuarioID, time.Now())
}

func alertaToResponse(a *model.AlertaStock) *dto.AlertaStockResponse {
	nombre := ""
	if a.Producto != nil {
		nombre = a.Producto.Nombre
	}
	var recPor, recAt *string
	if a.ReconocidaPor != nil {
		v := a.ReconocidaPor.String()
		recPor = &v
	}
	if a.ReconocidaAt != nil {
		v := a.ReconocidaAt.UTC().Format(time.RFC3339)
		recAt = &v
	}
	return &dto.AlertaStockResponse{
		ID:            a.ID.String(),
		ProductoID:    a.ProductoID.String(),
		Producto:      nombre,
		Umbral:        a.Umbral,
		StockActual:   a.StockActual,
		Severidad:     a.Severidad,
		ReconocidaPor: recPor,
		ReconocidaAt:  recAt,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
