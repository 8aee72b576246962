package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoParams carries everything a ledger mutation needs to record its
// audit entry. Delta is signed for adjustments; for reserve/release it holds
// the (positive) quantity being held or freed.
type MovimientoParams struct {
	ProductoID     uuid.UUID
	Delta          int
	Tipo           string
	Motivo         string
	RealizadoPor   uuid.UUID
	ReferenciaID   *uuid.UUID
	ReferenciaTipo *string
}

// InventarioService is the stock ledger: the single point of truth for every
// quantity change. Each public operation is one atomic transaction holding a
// row lock on the product — concurrent mutations on the same product
// serialize, different products proceed in parallel.
//
// The *Tx methods are the same operations without the enclosing transaction,
// for callers (the reservation state machine) that compose several ledger
// steps into one commit.
type InventarioService interface {
	AjustarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error)
	AjusteMasivo(ctx context.Context, items []MovimientoParams) (*dto.AjusteMasivoResponse, error)
	ReservarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error)
	LiberarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error)
	ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoListResponse, error)

	AjustarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error)
	ReservarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error)
	// LiberarTx frees held stock, clamped at zero. A movement entry is written
	// only when params.Tipo is set (cancellation/expiry); the completion path
	// records its own "salida" through AjustarTx instead.
	LiberarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	alertas     AlertaService
}

func NewInventarioService(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	alertas AlertaService,
) InventarioService {
	return &inventarioService{productos: productos, movimientos: movimientos, alertas: alertas}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── AjustarStock ─────────────────────────────────────────────────────────────

func (s *inventarioService) AjustarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error) {
	var resp *dto.AjusteStockResponse
	err := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		p, err := s.AjustarTx(tx, params)
		if err != nil {
			return err
		}
		resp = ajusteToResponse(p, p.Stock-params.Delta)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// AjustarTx is the atomic unit of stock mutation: lock row, guard the
// non-negative invariant, write stock, append the movement, re-evaluate the
// low-stock alert. Any failure rolls the whole unit back.
func (s *inventarioService) AjustarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error) {
	p, err := s.productos.FindByIDForUpdateTx(tx, params.ProductoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}

	anterior := p.Stock
	nuevo := anterior + params.Delta
	if nuevo < 0 {
		return nil, ErrStockNegativo
	}

	// A downward correction can undercut existing holds; clamp the hold so
	// 0 <= stock_reservado <= stock keeps holding after commit. The hold
	// shrinks before the stock does — the CHECK constraint is evaluated per
	// statement, not per transaction.
	if p.StockReservado > nuevo {
		if err := s.productos.UpdateStockReservadoTx(tx, p.ID, nuevo); err != nil {
			return nil, err
		}
		p.StockReservado = nuevo
	}

	if err := s.productos.UpdateStockTx(tx, p.ID, nuevo); err != nil {
		return nil, err
	}
	p.Stock = nuevo

	mov := &model.MovimientoStock{
		ProductoID:     p.ID,
		Tipo:           params.Tipo,
		Cantidad:       params.Delta,
		StockAnterior:  anterior,
		StockNuevo:     nuevo,
		Motivo:         params.Motivo,
		RealizadoPor:   params.RealizadoPor,
		ReferenciaID:   params.ReferenciaID,
		ReferenciaTipo: params.ReferenciaTipo,
	}
	if err := s.movimientos.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	if err := s.alertas.EvaluarTx(tx, p.ID, nuevo, p.StockMinimo); err != nil {
		return nil, err
	}

	return p, nil
}

// ── AjusteMasivo ─────────────────────────────────────────────────────────────

// AjusteMasivo adjusts many products in one transaction. Rows are locked in
// sorted id order so two concurrent bulk adjustments cannot deadlock.
func (s *inventarioService) AjusteMasivo(ctx context.Context, items []MovimientoParams) (*dto.AjusteMasivoResponse, error) {
	ordered := make([]MovimientoParams, len(items))
	copy(ordered, items)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ProductoID.String() < ordered[j].ProductoID.String()
	})

	resp := &dto.AjusteMasivoResponse{}
	err := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		for _, item := range ordered {
			p, err := s.AjustarTx(tx, item)
			if err != nil {
				return err
			}
			resp.Resultados = append(resp.Resultados, *ajusteToResponse(p, p.Stock-item.Delta))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ── ReservarStock / LiberarStock ─────────────────────────────────────────────

func (s *inventarioService) ReservarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error) {
	var resp *dto.AjusteStockResponse
	err := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		p, err := s.ReservarTx(tx, params)
		if err != nil {
			return err
		}
		resp = ajusteToResponse(p, p.Stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ReservarTx holds params.Delta units against the product. The availability
// check and the hold update happen under the same row lock, which is what
// closes the concurrent-oversell race.
func (s *inventarioService) ReservarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error) {
	p, err := s.productos.FindByIDForUpdateTx(tx, params.ProductoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}

	if params.Delta > p.StockDisponible() {
		return nil, ErrStockInsuficiente
	}

	nuevoReservado := p.StockReservado + params.Delta
	if err := s.productos.UpdateStockReservadoTx(tx, p.ID, nuevoReservado); err != nil {
		return nil, err
	}
	p.StockReservado = nuevoReservado

	// Physical stock is untouched by a hold: the entry shows the held
	// quantity with stock_anterior == stock_nuevo.
	mov := &model.MovimientoStock{
		ProductoID:     p.ID,
		Tipo:           model.MovReserva,
		Cantidad:       params.Delta,
		StockAnterior:  p.Stock,
		StockNuevo:     p.Stock,
		Motivo:         params.Motivo,
		RealizadoPor:   params.RealizadoPor,
		ReferenciaID:   params.ReferenciaID,
		ReferenciaTipo: params.ReferenciaTipo,
	}
	if err := s.movimientos.CreateTx(tx, mov); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *inventarioService) LiberarStock(ctx context.Context, params MovimientoParams) (*dto.AjusteStockResponse, error) {
	if params.Tipo == "" {
		params.Tipo = model.MovCancelacionReserva
	}
	var resp *dto.AjusteStockResponse
	err := runTx(ctx, s.productos.DB(), func(tx *gorm.DB) error {
		p, err := s.LiberarTx(tx, params)
		if err != nil {
			return err
		}
		resp = ajusteToResponse(p, p.Stock)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *inventarioService) LiberarTx(tx *gorm.DB, params MovimientoParams) (*model.Producto, error) {
	p, err := s.productos.FindByIDForUpdateTx(tx, params.ProductoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, err
	}

	// Clamped at zero: releasing twice for the same reservation must never
	// drive the hold negative (legacy reservations can outlive corrections).
	nuevoReservado := p.StockReservado - params.Delta
	if nuevoReservado < 0 {
		nuevoReservado = 0
	}
	if err := s.productos.UpdateStockReservadoTx(tx, p.ID, nuevoReservado); err != nil {
		return nil, err
	}
	p.StockReservado = nuevoReservado

	if params.Tipo != "" {
		mov := &model.MovimientoStock{
			ProductoID:     p.ID,
			Tipo:           params.Tipo,
			Cantidad:       params.Delta,
			StockAnterior:  p.Stock,
			StockNuevo:     p.Stock,
			Motivo:         params.Motivo,
			RealizadoPor:   params.RealizadoPor,
			ReferenciaID:   params.ReferenciaID,
			ReferenciaTipo: params.ReferenciaTipo,
		}
		if err := s.movimientos.CreateTx(tx, mov); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// ── Listado de movimientos ───────────────────────────────────────────────────

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoListResponse, error) {
	movimientos, total, err := s.movimientos.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 500 {
		limit = 100
	}

	items := make([]dto.MovimientoResponse, 0, len(movimientos))
	for _, m := range movimientos {
		items = append(items, *movimientoToResponse(&m))
	}
	return &dto.MovimientoListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoResponse {
	nombre := ""
	if m.Producto != nil {
		nombre = m.Producto.Nombre
	}
	var refID *string
	if m.ReferenciaID != nil {
		v := m.ReferenciaID.String()
		refID = &v
	}
	return &dto.MovimientoResponse{
		ID:             m.ID.String(),
		ProductoID:     m.ProductoID.String(),
		Producto:       nombre,
		Tipo:           m.Tipo,
		Cantidad:       m.Cantidad,
		StockAnterior:  m.StockAnterior,
		StockNuevo:     m.StockNuevo,
		Motivo:         m.Motivo,
		RealizadoPor:   m.RealizadoPor.String(),
		ReferenciaID:   refID,
		ReferenciaTipo: m.ReferenciaTipo,
		CreatedAt:      m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ajusteToResponse(p *model.Producto, stockAnterior int) *dto.AjusteStockResponse {
	return &dto.AjusteStockResponse{
		ProductoID:     p.ID.String(),
		StockAnterior:  stockAnterior,
		StockNuevo:     p.Stock,
		StockReservado: p.StockReservado,
	}
}
