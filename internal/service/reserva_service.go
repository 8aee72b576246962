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
	"gorm.io/gorm"
)

const refTipoReserva = "reserva"

// ReservaService is the reservation state machine:
//
//	pendiente  --Confirmar-->  confirmada
//	pendiente  --expiry-->     expirada      (lazy on read + periodic sweep)
//	pendiente  --Cancelar-->   cancelada
//	confirmada --Completar-->  completada
//	confirmada --Cancelar-->   cancelada
//	confirmada --expiry-->     expirada      (rare)
//	pendiente  --Completar-->  completada    (legacy direct completion, kept)
//
// completada/cancelada/expirada are terminal. Every transition validates the
// current status first and performs no mutation when invalid. All quantity
// changes go through the ledger inside the same transaction as the status
// change.
// Notificador enqueues fire-and-forget notification jobs. Satisfied by
// *worker.Dispatcher.
type Notificador interface {
	EnqueueNotificacion(ctx context.Context, payload interface{}) error
}

type ReservaService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, email string, req dto.CrearReservaRequest) (*dto.ReservaResponse, error)
	Confirmar(ctx context.Context, id, confirmadaPor uuid.UUID) (*dto.ReservaResponse, error)
	Completar(ctx context.Context, id, realizadoPor uuid.UUID) (*dto.ReservaResponse, error)
	Cancelar(ctx context.Context, id, realizadoPor uuid.UUID) (*dto.ReservaResponse, error)
	// Obtener applies lazy expiry: a pending reservation read past its window
	// is expired (and its hold released) before being returned.
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ReservaResponse, error)
	Listar(ctx context.Context, filter repository.ReservaFilter) (*dto.ReservaListResponse, error)
	ExpirarSiVencida(ctx context.Context, id uuid.UUID) (bool, error)
	// BarridoExpiracion expires stale pending reservations in batch; returns
	// how many were expired. Invoked by the background sweep.
	BarridoExpiracion(ctx context.Context, limit int) (int, error)
}

type reservaService struct {
	reservas   repository.ReservaRepository
	productos  repository.ProductoRepository
	inventario InventarioService
	promos     PromocionService
	dispatcher Notificador
}

func NewReservaService(
	reservas repository.ReservaRepository,
	productos repository.ProductoRepository,
	inventario InventarioService,
	promos PromocionService,
	dispatcher Notificador,
) ReservaService {
	return &reservaService{
		reservas:   reservas,
		productos:  productos,
		inventario: inventario,
		promos:     promos,
		dispatcher: dispatcher,
	}
}

// ── Crear ────────────────────────────────────────────────────────────────────

func (s *reservaService) Crear(ctx context.Context, usuarioID uuid.UUID, email string, req dto.CrearReservaRequest) (*dto.ReservaResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, errors.New("producto_id inválido")
	}

	var pedidoID *uuid.UUID
	ventana := model.VentanaReservaDirecta
	if req.PedidoID != nil {
		pid, err := uuid.Parse(*req.PedidoID)
		if err != nil {
			return nil, errors.New("pedido_id inválido")
		}
		pedidoID = &pid
		ventana = model.VentanaReservaPedido
	}

	var fechaRetiro *time.Time
	if req.FechaRetiro != nil {
		t, err := time.Parse(time.RFC3339, *req.FechaRetiro)
		if err != nil {
			return nil, errors.New("fecha_retiro inválida")
		}
		fechaRetiro = &t
	}

	// Price resolution is a pre-flight read: the snapshot quotes the best
	// discount available right now, and is never recomputed afterwards.
	resolucion, err := s.promos.Resolver(ctx, productoID, req.Cantidad)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reserva := &model.Reserva{
		ID:                uuid.New(),
		UsuarioID:         usuarioID,
		EmailContacto:     email,
		ProductoID:        productoID,
		PedidoID:          pedidoID,
		Cantidad:          req.Cantidad,
		Estado:            model.ReservaPendiente,
		PrecioTotal:       resolucion.PrecioFinal,
		DescuentoAplicado: resolucion.Descuento,
		FechaReserva:      now,
		FechaRetiro:       fechaRetiro,
		FechaExpira:       now.Add(ventana),
	}
	if resolucion.Promocion != nil {
		promoID := resolucion.Promocion.ID
		reserva.PromocionID = &promoID
	}

	refTipo := refTipoReserva
	txErr := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		if err := s.reservas.CreateTx(tx, reserva); err != nil {
			return err
		}
		// The availability check and the hold run under the product row lock,
		// in the same transaction as the reservation row.
		refID := reserva.ID
		_, err := s.inventario.ReservarTx(tx, MovimientoParams{
			ProductoID:     productoID,
			Delta:          req.Cantidad,
			Motivo:         "Reserva creada",
			RealizadoPor:   usuarioID,
			ReferenciaID:   &refID,
			ReferenciaTipo: &refTipo,
		})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notificar(ctx, reserva, "reserva_creada")
	return s.toResponse(ctx, reserva), nil
}

// ── Confirmar ────────────────────────────────────────────────────────────────

func (s *reservaService) Confirmar(ctx context.Context, id, confirmadaPor uuid.UUID) (*dto.ReservaResponse, error) {
	var reserva *model.Reserva
	expirada := false

	txErr := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		res, err := s.lockReserva(tx, id)
		if err != nil {
			return err
		}
		reserva = res

		if res.Estado != model.ReservaPendiente {
			return &TransicionInvalidaError{Desde: res.Estado, Hacia: model.ReservaConfirmada}
		}

		now := time.Now()
		if res.EstaVencida(now) {
			// Past the window the confirmation turns into an expiry: the
			// mutation commits, and the caller sees ErrReservaExpirada.
			expirada = true
			return s.expirarTx(tx, res, confirmadaPor)
		}

		res.Estado = model.ReservaConfirmada
		res.ConfirmadaPor = &confirmadaPor
		res.ConfirmadaAt = &now
		return s.reservas.UpdateTx(tx, res)
	})
	if txErr != nil {
		return nil, txErr
	}
	if expirada {
		s.notificar(ctx, reserva, "reserva_expirada")
		return nil, ErrReservaExpirada
	}

	s.notificar(ctx, reserva, "reserva_confirmada")
	return s.toResponse(ctx, reserva), nil
}

// ── Completar ────────────────────────────────────────────────────────────────

// Completar is the only transition that reduces physical stock: a "salida"
// adjustment plus the release of the hold, in one transaction.
func (s *reservaService) Completar(ctx context.Context, id, realizadoPor uuid.UUID) (*dto.ReservaResponse, error) {
	var reserva *model.Reserva

	txErr := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		res, err := s.lockReserva(tx, id)
		if err != nil {
			return err
		}
		reserva = res

		if res.Estado != model.ReservaConfirmada && res.Estado != model.ReservaPendiente {
			return &TransicionInvalidaError{Desde: res.Estado, Hacia: model.ReservaCompletada}
		}

		// The hold comes off before the salida lands. Subtracting stock while
		// this reservation still holds would trip the downward-correction
		// clamp and wipe the holds of every other reservation on the product.
		if _, err := s.inventario.LiberarTx(tx, MovimientoParams{
			ProductoID:   res.ProductoID,
			Delta:        res.Cantidad,
			RealizadoPor: realizadoPor,
		}); err != nil {
			return err
		}
		refID := res.ID
		refTipo := refTipoReserva
		if _, err := s.inventario.AjustarTx(tx, MovimientoParams{
			ProductoID:     res.ProductoID,
			Delta:          -res.Cantidad,
			Tipo:           model.MovSalida,
			Motivo:         "Reserva completada",
			RealizadoPor:   realizadoPor,
			ReferenciaID:   &refID,
			ReferenciaTipo: &refTipo,
		}); err != nil {
			return err
		}

		now := time.Now()
		res.Estado = model.ReservaCompletada
		res.CompletadaAt = &now
		return s.reservas.UpdateTx(tx, res)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Usage counting is tied to the irreversible purchase. A failed increment
	// never rolls the completion back.
	if reserva.PromocionID != nil {
		if err := s.promos.RegistrarUso(ctx, *reserva.PromocionID); err != nil {
			log.Error().Err(err).
				Str("reserva_id", reserva.ID.String()).
				Str("promocion_id", reserva.PromocionID.String()).
				Msg("no se pudo registrar el uso de la promoción")
		}
	}

	s.notificar(ctx, reserva, "reserva_completada")
	return s.toResponse(ctx, reserva), nil
}

// ── Cancelar ─────────────────────────────────────────────────────────────────

func (s *reservaService) Cancelar(ctx context.Context, id, realizadoPor uuid.UUID) (*dto.ReservaResponse, error) {
	var reserva *model.Reserva

	txErr := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		res, err := s.lockReserva(tx, id)
		if err != nil {
			return err
		}
		reserva = res

		if res.Estado != model.ReservaPendiente && res.Estado != model.ReservaConfirmada {
			return &TransicionInvalidaError{Desde: res.Estado, Hacia: model.ReservaCancelada}
		}

		refID := res.ID
		refTipo := refTipoReserva
		if _, err := s.inventario.LiberarTx(tx, MovimientoParams{
			ProductoID:     res.ProductoID,
			Delta:          res.Cantidad,
			Tipo:           model.MovCancelacionReserva,
			Motivo:         "Reserva cancelada",
			RealizadoPor:   realizadoPor,
			ReferenciaID:   &refID,
			ReferenciaTipo: &refTipo,
		}); err != nil {
			return err
		}

		now := time.Now()
		res.Estado = model.ReservaCancelada
		res.CanceladaAt = &now
		return s.reservas.UpdateTx(tx, res)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.notificar(ctx, reserva, "reserva_cancelada")
	return s.toResponse(ctx, reserva), nil
}

// ── Expiración ───────────────────────────────────────────────────────────────

// ExpirarSiVencida expires the reservation when it is pending and past its
// window; returns whether it transitioned.
func (s *reservaService) ExpirarSiVencida(ctx context.Context, id uuid.UUID) (bool, error) {
	expirada := false
	txErr := runTx(ctx, s.reservas.DB(), func(tx *gorm.DB) error {
		res, err := s.lockReserva(tx, id)
		if err != nil {
			return err
		}
		if res.Estado != model.ReservaPendiente || !res.EstaVencida(time.Now()) {
			return nil
		}
		expirada = true
		return s.expirarTx(tx, res, res.UsuarioID)
	})
	if txErr != nil {
		return false, txErr
	}
	return expirada, nil
}

func (s *reservaService) BarridoExpiracion(ctx context.Context, limit int) (int, error) {
	vencidas, err := s.reservas.ListPendientesVencidas(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	expiradas := 0
	for i := range vencidas {
		ok, err := s.ExpirarSiVencida(ctx, vencidas[i].ID)
		if err != nil {
			log.Error().Err(err).Str("reserva_id", vencidas[i].ID.String()).Msg("barrido: fallo al expirar reserva")
			continue
		}
		if ok {
			expiradas++
		}
	}
	return expiradas, nil
}

// expirarTx marks the reservation expired and releases its hold; runs inside
// the caller's transaction.
func (s *reservaService) expirarTx(tx *gorm.DB, res *model.Reserva, realizadoPor uuid.UUID) error {
	refID := res.ID
	refTipo := refTipoReserva
	if _, err := s.inventario.LiberarTx(tx, MovimientoParams{
		ProductoID:     res.ProductoID,
		Delta:          res.Cantidad,
		Tipo:           model.MovCancelacionReserva,
		Motivo:         "Reserva expirada",
		RealizadoPor:   realizadoPor,
		ReferenciaID:   &refID,
		ReferenciaTipo: &refTipo,
	}); err != nil {
		return err
	}
	res.Estado = model.ReservaExpirada
	return s.reservas.UpdateTx(tx, res)
}

// ── Lecturas ─────────────────────────────────────────────────────────────────

func (s *reservaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ReservaResponse, error) {
	res, err := s.reservas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservaNoEncontrada
		}
		return nil, err
	}

	if res.Estado == model.ReservaPendiente && res.EstaVencida(time.Now()) {
		if _, err := s.ExpirarSiVencida(ctx, id); err != nil {
			return nil, err
		}
		res, err = s.reservas.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	return s.toResponse(ctx, res), nil
}

func (s *reservaService) Listar(ctx context.Context, filter repository.ReservaFilter) (*dto.ReservaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	reservas, total, err := s.reservas.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ReservaResponse, 0, len(reservas))
	for i := range reservas {
		items = append(items, *s.toResponse(ctx, &reservas[i]))
	}
	return &dto.ReservaListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *reservaService) lockReserva(tx *gorm.DB, id uuid.UUID) (*model.Reserva, error) {
	res, err := s.reservas.FindByIDForUpdateTx(tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservaNoEncontrada
		}
		return nil, err
	}
	return res, nil
}

// notificar enqueues a fire-and-forget state-change notification. Failures
// are logged and never affect the already-committed transition.
func (s *reservaService) notificar(ctx context.Context, res *model.Reserva, evento string) {
	if s.dispatcher == nil || res == nil {
		return
	}
	payload := map[string]interface{}{
		"evento":     evento,
		"reserva_id": res.ID.String(),
		"usuario_id": res.UsuarioID.String(),
		"estado":     res.Estado,
		"email":      res.EmailContacto,
	}
	if err := s.dispatcher.EnqueueNotificacion(ctx, payload); err != nil {
		log.Warn().Err(err).Str("reserva_id", res.ID.String()).Str("evento", evento).
			Msg("no se pudo encolar la notificación")
	}
}

func (s *reservaService) toResponse(ctx context.Context, res *model.Reserva) *dto.ReservaResponse {
	nombre := ""
	if res.Producto != nil {
		nombre = res.Producto.Nombre
	} else if p, err := s.productos.FindByID(ctx, res.ProductoID); err == nil && p != nil {
		nombre = p.Nombre
	}

	resp := &dto.ReservaResponse{
		ID:                res.ID.String(),
		UsuarioID:         res.UsuarioID.String(),
		ProductoID:        res.ProductoID.String(),
		Producto:          nombre,
		Cantidad:          res.Cantidad,
		Estado:            res.Estado,
		PrecioTotal:       res.PrecioTotal,
		DescuentoAplicado: res.DescuentoAplicado,
		FechaReserva:      res.FechaReserva.Format(time.RFC3339),
		FechaExpira:       res.FechaExpira.Format(time.RFC3339),
	}
	if res.PedidoID != nil {
		v := res.PedidoID.String()
		resp.PedidoID = &v
	}
	if res.PromocionID != nil {
		v := res.PromocionID.String()
		resp.PromocionID = &v
	}
	if res.FechaRetiro != nil {
		v := res.FechaRetiro.Format(time.RFC3339)
		resp.FechaRetiro = &v
	}
	return resp
}
