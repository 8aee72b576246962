package service

import (
	"context"
	"errors"
	"time"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var cien = decimal.NewFromInt(100)

// Resolucion is the outcome of picking the best applicable discount for a
// product/quantity pair. Promocion is nil when nothing is eligible.
type Resolucion struct {
	Subtotal    decimal.Decimal
	Descuento   decimal.Decimal
	PrecioFinal decimal.Decimal
	Promocion   *model.Promocion
}

func (r *Resolucion) ToResponse() *dto.ResolucionResponse {
	resp := &dto.ResolucionResponse{
		Subtotal:    r.Subtotal,
		Descuento:   r.Descuento,
		PrecioFinal: r.PrecioFinal,
	}
	if r.Promocion != nil {
		resp.PromocionAplicada = promocionToResponse(r.Promocion)
	}
	return resp
}

// PromocionService evaluates and manages promotions. Resolution itself never
// mutates; usage counting is a separate explicit step tied to a completed
// reservation.
type PromocionService interface {
	Resolver(ctx context.Context, productoID uuid.UUID, cantidad int) (*Resolucion, error)
	RegistrarUso(ctx context.Context, promocionID uuid.UUID) error

	Crear(ctx context.Context, req dto.CrearPromocionRequest) (*dto.PromocionResponse, error)
	Listar(ctx context.Context) ([]dto.PromocionResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type promocionService struct {
	promos    repository.PromocionRepository
	productos repository.ProductoRepository
}

func NewPromocionService(promos repository.PromocionRepository, productos repository.ProductoRepository) PromocionService {
	return &promocionService{promos: promos, productos: productos}
}

// ── Resolver ─────────────────────────────────────────────────────────────────

// Resolver picks, among the active promotions scoped to the product or its
// category, the one yielding the largest computed discount — percentage vs
// fixed are compared after computation, never by raw value. Ineligible
// candidates (usage limit reached, subtotal under the minimum) are simply
// skipped.
func (s *promocionService) Resolver(ctx context.Context, productoID uuid.UUID, cantidad int) (*Resolucion, error) {
	p, err := s.productos.FindByID(ctx, productoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}

	subtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(cantidad)))

	candidatas, err := s.promos.ListVigentes(ctx, p.ID, p.CategoriaID, time.Now())
	if err != nil {
		return nil, err
	}

	res := &Resolucion{Subtotal: subtotal, Descuento: decimal.Zero, PrecioFinal: subtotal}
	for i := range candidatas {
		promo := &candidatas[i]
		if promo.LimiteAlcanzado() {
			continue
		}
		if subtotal.LessThan(promo.MontoMinimoCompra) {
			continue
		}

		descuento := calcularDescuento(promo, subtotal)
		if descuento.GreaterThan(res.Descuento) {
			res.Descuento = descuento
			res.Promocion = promo
		}
	}

	res.PrecioFinal = subtotal.Sub(res.Descuento)
	if res.PrecioFinal.IsNegative() {
		res.PrecioFinal = decimal.Zero
	}
	return res, nil
}

func calcularDescuento(p *model.Promocion, subtotal decimal.Decimal) decimal.Decimal {
	var descuento decimal.Decimal
	switch p.TipoDescuento {
	case model.DescuentoPorcentaje:
		descuento = subtotal.Mul(p.ValorDescuento).Div(cien)
	case model.DescuentoFijo:
		descuento = p.ValorDescuento
	default:
		return decimal.Zero
	}
	if p.DescuentoMaximo != nil && descuento.GreaterThan(*p.DescuentoMaximo) {
		descuento = *p.DescuentoMaximo
	}
	return descuento
}

// RegistrarUso bumps the usage counter for a promotion applied to a completed
// purchase.
func (s *promocionService) RegistrarUso(ctx context.Context, promocionID uuid.UUID) error {
	return s.promos.IncrementarUso(ctx, promocionID)
}

// ── Gestión ──────────────────────────────────────────────────────────────────

func (s *promocionService) Crear(ctx context.Context, req dto.CrearPromocionRequest) (*dto.PromocionResponse, error) {
	inicio, err := time.Parse(time.RFC3339, req.FechaInicio)
	if err != nil {
		return nil, errors.New("fecha_inicio inválida")
	}
	fin, err := time.Parse(time.RFC3339, req.FechaFin)
	if err != nil {
		return nil, errors.New("fecha_fin inválida")
	}
	if fin.Before(inicio) {
		return nil, errors.New("fecha_fin anterior a fecha_inicio")
	}
	if req.ProductoID != nil && req.CategoriaID != nil {
		return nil, errors.New("la promoción no puede tener producto y categoría a la vez")
	}

	promo := &model.Promocion{
		Nombre:            req.Nombre,
		TipoDescuento:     req.TipoDescuento,
		ValorDescuento:    req.ValorDescuento,
		FechaInicio:       inicio,
		FechaFin:          fin,
		MontoMinimoCompra: req.MontoMinimoCompra,
		DescuentoMaximo:   req.DescuentoMaximo,
		LimiteUso:         req.LimiteUso,
		Activo:            true,
	}
	if req.ProductoID != nil {
		pid, err := uuid.Parse(*req.ProductoID)
		if err != nil {
			return nil, errors.New("producto_id inválido")
		}
		promo.ProductoID = &pid
	}
	if req.CategoriaID != nil {
		cid, err := uuid.Parse(*req.CategoriaID)
		if err != nil {
			return nil, errors.New("categoria_id inválido")
		}
		promo.CategoriaID = &cid
	}

	if err := s.promos.Create(ctx, promo); err != nil {
		return nil, err
	}
	log.Info().Str("promocion_id", promo.ID.String()).Str("tipo", promo.TipoDescuento).Msg("promoción creada")
	return promocionToResponse(promo), nil
}

func (s *promocionService) Listar(ctx context.Context) ([]dto.PromocionResponse, error) {
	promos, err := s.promos.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PromocionResponse, 0, len(promos))
	for i := range promos {
		resp = append(resp, *promocionToResponse(&promos[i]))
	}
	return resp, nil
}

func (s *promocionService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.promos.Desactivar(ctx, id)
}

func promocionToResponse(p *model.Promocion) *dto.PromocionResponse {
	var prodID, catID *string
	if p.ProductoID != nil {
		v := p.ProductoID.String()
		prodID = &v
	}
	if p.CategoriaID != nil {
		v := p.CategoriaID.String()
		catID = &v
	}
	return &dto.PromocionResponse{
		ID:                p.ID.String(),
		Nombre:            p.Nombre,
		TipoDescuento:     p.TipoDescuento,
		ValorDescuento:    p.ValorDescuento,
		ProductoID:        prodID,
		CategoriaID:       catID,
		FechaInicio:       p.FechaInicio.Format(time.RFC3339),
		FechaFin:          p.FechaFin.Format(time.RFC3339),
		MontoMinimoCompra: p.MontoMinimoCompra,
		DescuentoMaximo:   p.DescuentoMaximo,
		LimiteUso:         p.LimiteUso,
		UsoActual:         p.UsoActual,
		Activo:            p.Activo,
	}
}
