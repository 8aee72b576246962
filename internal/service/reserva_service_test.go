package service

import (
	"context"
	"testing"
	"time"

	"reservapos/internal/dto"
	"reservapos/internal/model"
	"reservapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reservaFixture struct {
	svc        ReservaService
	inventario InventarioService
	reservas   *stubReservaRepo
	productos  *stubProductoRepo
	promos     *stubPromocionRepo
	movs       *stubMovimientoRepo
	notif      *stubNotificador
}

func setupReservas(t *testing.T) *reservaFixture {
	t.Helper()
	prodRepo := newStubProductoRepo()
	movRepo := newStubMovimientoRepo()
	alertaRepo := newStubAlertaRepo()
	reservaRepo := newStubReservaRepo()
	promoRepo := newStubPromocionRepo()
	notif := newStubNotificador()

	inventarioSvc := NewInventarioService(prodRepo, movRepo, NewAlertaService(alertaRepo))
	promoSvc := NewPromocionService(promoRepo, prodRepo)
	svc := NewReservaService(reservaRepo, prodRepo, inventarioSvc, promoSvc, notif)

	return &reservaFixture{
		svc:        svc,
		inventario: inventarioSvc,
		reservas:   reservaRepo,
		productos:  prodRepo,
		promos:     promoRepo,
		movs:       movRepo,
		notif:      notif,
	}
}

func (f *reservaFixture) producto(t *testing.T, stock, minimo int, precio int64) *model.Producto {
	t.Helper()
	p := nuevoProducto(stock, 0, minimo)
	p.PrecioVenta = decimal.NewFromInt(precio)
	require.NoError(t, f.productos.Create(context.Background(), p))
	return p
}

func (f *reservaFixture) crearReserva(t *testing.T, productoID uuid.UUID, cantidad int) *dto.ReservaResponse {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), uuid.New(), "cliente@test.com", dto.CrearReservaRequest{
		ProductoID: productoID.String(),
		Cantidad:   cantidad,
	})
	require.NoError(t, err)
	return resp
}

// vencer rewinds a pending reservation's expiry into the past.
func (f *reservaFixture) vencer(t *testing.T, reservaID string, hace time.Duration) {
	t.Helper()
	id, err := uuid.Parse(reservaID)
	require.NoError(t, err)
	res, err := f.reservas.FindByID(context.Background(), id)
	require.NoError(t, err)
	res.FechaExpira = time.Now().Add(-hace)
	require.NoError(t, f.reservas.UpdateTx(nil, res))
}

func (f *reservaFixture) stockDe(t *testing.T, id uuid.UUID) (int, int) {
	t.Helper()
	p, err := f.productos.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock, p.StockReservado
}

// Ciclo completo: reservar 6 de 10, un segundo pedido de 5 no entra, y tras
// confirmar y completar quedan 4 en stock sin retenciones.
func TestReserva_CicloCompleto(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 4500)

	resp := f.crearReserva(t, p.ID, 6)
	assert.Equal(t, model.ReservaPendiente, resp.Estado)
	assert.True(t, resp.PrecioTotal.Equal(decimal.NewFromInt(27000)))

	stock, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 10, stock)
	assert.Equal(t, 6, reservado)

	// Solo quedan 4 disponibles.
	_, err := f.svc.Crear(ctx, uuid.New(), "cliente@test.com", dto.CrearReservaRequest{
		ProductoID: p.ID.String(),
		Cantidad:   5,
	})
	assert.ErrorIs(t, err, ErrStockInsuficiente)

	id := uuid.MustParse(resp.ID)
	staff := uuid.New()

	confirmada, err := f.svc.Confirmar(ctx, id, staff)
	require.NoError(t, err)
	assert.Equal(t, model.ReservaConfirmada, confirmada.Estado)

	completada, err := f.svc.Completar(ctx, id, staff)
	require.NoError(t, err)
	assert.Equal(t, model.ReservaCompletada, completada.Estado)

	stock, reservado = f.stockDe(t, p.ID)
	assert.Equal(t, 4, stock)
	assert.Equal(t, 0, reservado)

	// La salida queda en el log con referencia a la reserva.
	var salidas int
	for _, m := range f.movs.porProducto(p.ID) {
		if m.Tipo == model.MovSalida {
			salidas++
			require.NotNil(t, m.ReferenciaID)
			assert.Equal(t, id, *m.ReferenciaID)
		}
	}
	assert.Equal(t, 1, salidas)
}

func TestReserva_CompletarDesdePendiente(t *testing.T) {
	f := setupReservas(t)
	p := f.producto(t, 10, 2, 1000)
	resp := f.crearReserva(t, p.ID, 3)

	// Retiro inmediato sin paso por confirmada.
	completada, err := f.svc.Completar(context.Background(), uuid.MustParse(resp.ID), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.ReservaCompletada, completada.Estado)

	stock, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 7, stock)
	assert.Equal(t, 0, reservado)
}

// Completar una reserva no puede pisar las retenciones de las demás: con 10
// en stock y dos reservas (6 y 2), completar la primera deja stock 4 con la
// segunda retención intacta.
func TestReserva_CompletarConservaOtrasRetenciones(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 1000)

	a := f.crearReserva(t, p.ID, 6)
	f.crearReserva(t, p.ID, 2)

	stock, reservado := f.stockDe(t, p.ID)
	require.Equal(t, 10, stock)
	require.Equal(t, 8, reservado)

	_, err := f.svc.Completar(ctx, uuid.MustParse(a.ID), uuid.New())
	require.NoError(t, err)

	stock, reservado = f.stockDe(t, p.ID)
	assert.Equal(t, 4, stock)
	assert.Equal(t, 2, reservado)

	// Disponible real: 2. Una tercera reserva de 3 no puede entrar.
	_, err = f.svc.Crear(ctx, uuid.New(), "cliente@test.com", dto.CrearReservaRequest{
		ProductoID: p.ID.String(),
		Cantidad:   3,
	})
	assert.ErrorIs(t, err, ErrStockInsuficiente)

	f.crearReserva(t, p.ID, 2)
}

// Cada transición encola una notificación con el email de contacto tomado
// del token al crear; el worker descarta los payloads sin destinatario, así
// que un payload sin email es una notificación que nunca sale.
func TestReserva_NotificacionesLlevanEmailDeContacto(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 1000)

	resp := f.crearReserva(t, p.ID, 2)
	id := uuid.MustParse(resp.ID)

	guardada, err := f.reservas.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "cliente@test.com", guardada.EmailContacto)

	staff := uuid.New()
	_, err = f.svc.Confirmar(ctx, id, staff)
	require.NoError(t, err)
	_, err = f.svc.Completar(ctx, id, staff)
	require.NoError(t, err)

	assert.Equal(t, []string{"reserva_creada", "reserva_confirmada", "reserva_completada"}, f.notif.eventos())
	for _, payload := range f.notif.payloads {
		assert.Equal(t, "cliente@test.com", payload["email"])
	}
}

func TestReserva_CancelarLiberaRetencion(t *testing.T) {
	f := setupReservas(t)
	p := f.producto(t, 10, 2, 1000)
	resp := f.crearReserva(t, p.ID, 4)

	cancelada, err := f.svc.Cancelar(context.Background(), uuid.MustParse(resp.ID), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.ReservaCancelada, cancelada.Estado)

	stock, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 10, stock) // el stock físico nunca se tocó
	assert.Equal(t, 0, reservado)

	var cancelaciones int
	for _, m := range f.movs.porProducto(p.ID) {
		if m.Tipo == model.MovCancelacionReserva {
			cancelaciones++
		}
	}
	assert.Equal(t, 1, cancelaciones)
}

func TestReserva_TransicionesInvalidas(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 20, 2, 1000)
	staff := uuid.New()

	resp := f.crearReserva(t, p.ID, 2)
	id := uuid.MustParse(resp.ID)
	_, err := f.svc.Cancelar(ctx, id, staff)
	require.NoError(t, err)

	// Terminal: ni confirmar, ni completar, ni re-cancelar.
	var transicion *TransicionInvalidaError
	_, err = f.svc.Confirmar(ctx, id, staff)
	require.ErrorAs(t, err, &transicion)
	assert.Equal(t, model.ReservaCancelada, transicion.Desde)

	_, err = f.svc.Completar(ctx, id, staff)
	assert.ErrorAs(t, err, &transicion)

	_, err = f.svc.Cancelar(ctx, id, staff)
	assert.ErrorAs(t, err, &transicion)

	// Confirmada dos veces tampoco.
	resp2 := f.crearReserva(t, p.ID, 2)
	id2 := uuid.MustParse(resp2.ID)
	_, err = f.svc.Confirmar(ctx, id2, staff)
	require.NoError(t, err)
	_, err = f.svc.Confirmar(ctx, id2, staff)
	assert.ErrorAs(t, err, &transicion)
}

func TestReserva_ConfirmarVencidaExpira(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 1000)

	resp := f.crearReserva(t, p.ID, 6)
	f.vencer(t, resp.ID, time.Hour) // una hora pasada la ventana de 48h

	id := uuid.MustParse(resp.ID)
	_, err := f.svc.Confirmar(ctx, id, uuid.New())
	assert.ErrorIs(t, err, ErrReservaExpirada)

	// La expiración quedó persistida y la retención liberada.
	res, err := f.reservas.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservaExpirada, res.Estado)

	stock, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 10, stock)
	assert.Equal(t, 0, reservado)
}

func TestReserva_ObtenerAplicaExpiracionPerezosa(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 1000)

	resp := f.crearReserva(t, p.ID, 3)
	f.vencer(t, resp.ID, time.Minute)

	id := uuid.MustParse(resp.ID)
	leida, err := f.svc.Obtener(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservaExpirada, leida.Estado)

	_, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 0, reservado)

	// Releer no vuelve a liberar nada: la transición es de una sola vía.
	releida, err := f.svc.Obtener(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ReservaExpirada, releida.Estado)
	_, reservado = f.stockDe(t, p.ID)
	assert.Equal(t, 0, reservado)
}

func TestReserva_VentanaExtendidaConPedido(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 1000)

	pedidoID := uuid.NewString()
	resp, err := f.svc.Crear(ctx, uuid.New(), "cliente@test.com", dto.CrearReservaRequest{
		ProductoID: p.ID.String(),
		Cantidad:   1,
		PedidoID:   &pedidoID,
	})
	require.NoError(t, err)

	expira, err := time.Parse(time.RFC3339, resp.FechaExpira)
	require.NoError(t, err)
	restante := time.Until(expira)
	assert.Greater(t, restante, 6*24*time.Hour)
	assert.LessOrEqual(t, restante, 7*24*time.Hour)
}

func TestReserva_BarridoExpiraPendientesVencidas(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 20, 2, 1000)

	vencida1 := f.crearReserva(t, p.ID, 2)
	vencida2 := f.crearReserva(t, p.ID, 3)
	vigente := f.crearReserva(t, p.ID, 4)
	f.vencer(t, vencida1.ID, time.Hour)
	f.vencer(t, vencida2.ID, 2*time.Hour)

	n, err := f.svc.BarridoExpiracion(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, reservado := f.stockDe(t, p.ID)
	assert.Equal(t, 4, reservado) // solo la vigente sigue reteniendo

	intacta, err := f.svc.Obtener(ctx, uuid.MustParse(vigente.ID))
	require.NoError(t, err)
	assert.Equal(t, model.ReservaPendiente, intacta.Estado)

	// Un segundo barrido no encuentra nada.
	n, err = f.svc.BarridoExpiracion(ctx, 50)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReserva_AplicaPromocionYRegistraUsoAlCompletar(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 10000)

	promo := promoVigente("10 por ciento", model.DescuentoPorcentaje, decimal.NewFromInt(10))
	promo.ProductoID = &p.ID
	require.NoError(t, f.promos.Create(ctx, promo))

	resp := f.crearReserva(t, p.ID, 2)
	assert.True(t, resp.DescuentoAplicado.Equal(decimal.NewFromInt(2000)))
	assert.True(t, resp.PrecioTotal.Equal(decimal.NewFromInt(18000)))

	_, err := f.svc.Completar(ctx, uuid.MustParse(resp.ID), uuid.New())
	require.NoError(t, err)

	actual, err := f.promos.FindByID(ctx, promo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, actual.UsoActual)
}

// El precio se congela al crear: un cambio de precio posterior no re-cotiza.
func TestReserva_PrecioSnapshotInmutable(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 10, 2, 5000)

	resp := f.crearReserva(t, p.ID, 2)
	require.True(t, resp.PrecioTotal.Equal(decimal.NewFromInt(10000)))

	p.PrecioVenta = decimal.NewFromInt(9000)
	require.NoError(t, f.productos.Update(ctx, p))

	leida, err := f.svc.Obtener(ctx, uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.True(t, leida.PrecioTotal.Equal(decimal.NewFromInt(10000)))
}

func TestReserva_ListarFiltraPorEstado(t *testing.T) {
	f := setupReservas(t)
	ctx := context.Background()
	p := f.producto(t, 20, 2, 1000)

	r1 := f.crearReserva(t, p.ID, 1)
	f.crearReserva(t, p.ID, 1)
	_, err := f.svc.Cancelar(ctx, uuid.MustParse(r1.ID), uuid.New())
	require.NoError(t, err)

	pendientes, err := f.svc.Listar(ctx, repository.ReservaFilter{Estado: model.ReservaPendiente})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pendientes.Total)

	canceladas, err := f.svc.Listar(ctx, repository.ReservaFilter{Estado: model.ReservaCancelada})
	require.NoError(t, err)
	assert.EqualValues(t, 1, canceladas.Total)
}

func TestReserva_NoEncontrada(t *testing.T) {
	f := setupReservas(t)
	_, err := f.svc.Obtener(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrReservaNoEncontrada)

	_, err = f.svc.Confirmar(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrReservaNoEncontrada)
}
