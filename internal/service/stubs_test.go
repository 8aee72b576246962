package service

import (
	"context"
	"sync"
	"time"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory ProductoRepository stub ────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Producto
	for _, p := range r.productos {
		if p.Activo {
			result = append(result, *p)
		}
	}
	return result, int64(len(result)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductoRepo) UpdateStockTx(_ *gorm.DB, id uuid.UUID, stock int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock = stock
	return nil
}

func (r *stubProductoRepo) UpdateStockReservadoTx(_ *gorm.DB, id uuid.UUID, stockReservado int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockReservado = stockReservado
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

// ── In-memory MovimientoStockRepository stub ─────────────────────────────────

type stubMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []*model.MovimientoStock
}

func newStubMovimientoRepo() *stubMovimientoRepo { return &stubMovimientoRepo{} }

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.MovimientoStock
	for _, m := range r.movimientos {
		if filter.ProductoID != nil && m.ProductoID != *filter.ProductoID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		result = append(result, *m)
	}
	return result, int64(len(result)), nil
}

func (r *stubMovimientoRepo) SumDeltasByProducto(_ context.Context, productoID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, m := range r.movimientos {
		if m.ProductoID == productoID {
			sum += int64(m.StockNuevo - m.StockAnterior)
		}
	}
	return sum, nil
}

// porProducto returns the movements of one product in insertion order.
func (r *stubMovimientoRepo) porProducto(id uuid.UUID) []*model.MovimientoStock {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.MovimientoStock
	for _, m := range r.movimientos {
		if m.ProductoID == id {
			result = append(result, m)
		}
	}
	return result
}

// ── In-memory AlertaStockRepository stub ─────────────────────────────────────

type stubAlertaRepo struct {
	mu      sync.Mutex
	alertas map[uuid.UUID]*model.AlertaStock
}

func newStubAlertaRepo() *stubAlertaRepo {
	return &stubAlertaRepo{alertas: make(map[uuid.UUID]*model.AlertaStock)}
}

func (r *stubAlertaRepo) FindActivaByProductoTx(_ *gorm.DB, productoID uuid.UUID) (*model.AlertaStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alertas {
		if a.ProductoID == productoID && a.Activa {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubAlertaRepo) CreateTx(_ *gorm.DB, a *model.AlertaStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.alertas[a.ID] = a
	return nil
}

func (r *stubAlertaRepo) UpdateTx(_ *gorm.DB, a *model.AlertaStock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alertas[a.ID] = a
	return nil
}

func (r *stubAlertaRepo) DesactivarByProductoTx(_ *gorm.DB, productoID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alertas {
		if a.ProductoID == productoID && a.Activa {
			a.Activa = false
		}
	}
	return nil
}

func (r *stubAlertaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AlertaStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alertas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubAlertaRepo) ListActivas(_ context.Context) ([]model.AlertaStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.AlertaStock
	for _, a := range r.alertas {
		if a.Activa {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *stubAlertaRepo) Reconocer(_ context.Context, id, usuarioID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.alertas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	a.ReconocidaPor = &usuarioID
	a.ReconocidaAt = &at
	return nil
}

// activaDe returns the active alert of a product, or nil.
func (r *stubAlertaRepo) activaDe(productoID uuid.UUID) *model.AlertaStock {
	a, err := r.FindActivaByProductoTx(nil, productoID)
	if err != nil {
		return nil
	}
	return a
}

// ── In-memory ReservaRepository stub ─────────────────────────────────────────

type stubReservaRepo struct {
	mu       sync.Mutex
	reservas map[uuid.UUID]*model.Reserva
}

func newStubReservaRepo() *stubReservaRepo {
	return &stubReservaRepo{reservas: make(map[uuid.UUID]*model.Reserva)}
}

func (r *stubReservaRepo) CreateTx(_ *gorm.DB, res *model.Reserva) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.reservas[res.ID] = res
	return nil
}

func (r *stubReservaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Reserva, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *res
	return &clone, nil
}

func (r *stubReservaRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Reserva, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubReservaRepo) UpdateTx(_ *gorm.DB, res *model.Reserva) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservas[res.ID] = res
	return nil
}

func (r *stubReservaRepo) List(_ context.Context, filter repository.ReservaFilter) ([]model.Reserva, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Reserva
	for _, res := range r.reservas {
		if filter.UsuarioID != nil && res.UsuarioID != *filter.UsuarioID {
			continue
		}
		if filter.Estado != "" && res.Estado != filter.Estado {
			continue
		}
		result = append(result, *res)
	}
	return result, int64(len(result)), nil
}

func (r *stubReservaRepo) ListPendientesVencidas(_ context.Context, now time.Time, limit int) ([]model.Reserva, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Reserva
	for _, res := range r.reservas {
		if res.Estado == model.ReservaPendiente && res.EstaVencida(now) {
			result = append(result, *res)
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (r *stubReservaRepo) DB() *gorm.DB { return nil }

// ── In-memory PromocionRepository stub ───────────────────────────────────────

type stubPromocionRepo struct {
	mu     sync.Mutex
	promos map[uuid.UUID]*model.Promocion
}

func newStubPromocionRepo() *stubPromocionRepo {
	return &stubPromocionRepo{promos: make(map[uuid.UUID]*model.Promocion)}
}

func (r *stubPromocionRepo) Create(_ context.Context, p *model.Promocion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promos[p.ID] = p
	return nil
}

func (r *stubPromocionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promocion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPromocionRepo) ListVigentes(_ context.Context, productoID uuid.UUID, categoriaID *uuid.UUID, now time.Time) ([]model.Promocion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Promocion
	for _, p := range r.promos {
		if !p.Activo || now.Before(p.FechaInicio) || now.After(p.FechaFin) {
			continue
		}
		matchProducto := p.ProductoID != nil && *p.ProductoID == productoID
		matchCategoria := categoriaID != nil && p.CategoriaID != nil && *p.CategoriaID == *categoriaID
		if matchProducto || matchCategoria {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *stubPromocionRepo) List(_ context.Context) ([]model.Promocion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []model.Promocion
	for _, p := range r.promos {
		result = append(result, *p)
	}
	return result, nil
}

func (r *stubPromocionRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

func (r *stubPromocionRepo) IncrementarUso(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.promos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if p.LimiteUso == nil || p.UsoActual < *p.LimiteUso {
		p.UsoActual++
	}
	return nil
}

// ── Notificador stub ─────────────────────────────────────────────────────────

type stubNotificador struct {
	mu       sync.Mutex
	payloads []map[string]interface{}
}

func newStubNotificador() *stubNotificador { return &stubNotificador{} }

func (n *stubNotificador) EnqueueNotificacion(_ context.Context, payload interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if m, ok := payload.(map[string]interface{}); ok {
		n.payloads = append(n.payloads, m)
	}
	return nil
}

func (n *stubNotificador) eventos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, p := range n.payloads {
		if ev, ok := p["evento"].(string); ok {
			out = append(out, ev)
		}
	}
	return out
}
