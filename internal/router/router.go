package router

import (
	"time"

	"reservapos/internal/config"
	"reservapos/internal/handler"
	"reservapos/internal/middleware"
	"reservapos/internal/repository"
	"reservapos/internal/service"
	"reservapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services groups the wired service layer so main can hand the reservation
// service to the expiry sweep without re-building the graph.
type Services struct {
	Productos  service.ProductoService
	Inventario service.InventarioService
	Alertas    service.AlertaService
	Reservas   service.ReservaService
	Promos     service.PromocionService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) (*gin.Engine, *Services) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	productoRepo := repository.NewProductoRepository(db)
	movimientoRepo := repository.NewMovimientoStockRepository(db)
	reservaRepo := repository.NewReservaRepository(db)
	alertaRepo := repository.NewAlertaStockRepository(db)
	promocionRepo := repository.NewPromocionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	alertaSvc := service.NewAlertaService(alertaRepo)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoRepo, alertaSvc)
	productoSvc := service.NewProductoService(productoRepo)
	promocionSvc := service.NewPromocionService(promocionRepo, productoRepo)
	reservaSvc := service.NewReservaService(reservaRepo, productoRepo, inventarioSvc, promocionSvc, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productosH := handler.NewProductosHandler(productoSvc)
	inventarioH := handler.NewInventarioHandler(inventarioSvc)
	alertasH := handler.NewAlertasHandler(alertaSvc)
	reservasH := handler.NewReservasHandler(reservaSvc)
	promocionesH := handler.NewPromocionesHandler(promocionSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Reservations — any authenticated user operates on their own claims;
		// confirmation and completion are staff actions
		v1.POST("/reservas", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), reservasH.Crear)
		v1.GET("/reservas", middleware.RequireRole("vendedor", "supervisor", "administrador"), reservasH.Listar)
		v1.GET("/reservas/:id", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), reservasH.Obtener)
		v1.POST("/reservas/:id/confirmar", middleware.RequireRole("vendedor", "supervisor", "administrador"), reservasH.Confirmar)
		v1.POST("/reservas/:id/completar", middleware.RequireRole("vendedor", "supervisor", "administrador"), reservasH.Completar)
		v1.POST("/reservas/:id/cancelar", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), reservasH.Cancelar)

		// Catalog reads — all authenticated roles
		v1.GET("/productos", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), productosH.Listar)
		v1.GET("/productos/:id", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), productosH.ObtenerPorID)
		v1.POST("/productos", middleware.RequireRole("administrador"), productosH.Crear)

		// Ledger mutations — supervisor or administrador
		v1.PATCH("/productos/:id/stock", middleware.RequireRole("supervisor", "administrador"), inventarioH.AjustarStock)
		stock := v1.Group("/stock", middleware.RequireRole("supervisor", "administrador"))
		{
			stock.POST("/ajuste-masivo", inventarioH.AjusteMasivo)
			stock.POST("/reservar", inventarioH.ReservarStock)
			stock.POST("/liberar", inventarioH.LiberarStock)
		}

		inv := v1.Group("/inventario", middleware.RequireRole("supervisor", "administrador"))
		{
			inv.GET("/movimientos", inventarioH.ListarMovimientos)
			inv.GET("/alertas", alertasH.ListarActivas)
			inv.POST("/alertas/:id/reconocer", alertasH.Reconocer)
		}

		// Promotions — resolution open to every role, management restricted
		v1.GET("/promociones/resolver", middleware.RequireRole("cliente", "vendedor", "supervisor", "administrador"), promocionesH.Resolver)
		v1.GET("/promociones", middleware.RequireRole("vendedor", "supervisor", "administrador"), promocionesH.Listar)
		promos := v1.Group("/promociones", middleware.RequireRole("administrador"))
		{
			promos.POST("", promocionesH.Crear)
			promos.DELETE("/:id", promocionesH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	svcs := &Services{
		Productos:  productoSvc,
		Inventario: inventarioSvc,
		Alertas:    alertaSvc,
		Reservas:   reservaSvc,
		Promos:     promocionSvc,
	}
	return r, svcs
}
