package handler

import (
	"net/http"
	"strconv"

	"reservapos/internal/apierror"
	"reservapos/internal/dto"
	"reservapos/internal/repository"
	"reservapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// AjustarStock handles PATCH /v1/productos/:id/stock.
func (h *InventarioHandler) AjustarStock(c *gin.Context) {
	productoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AjustarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.AjustarStock(c.Request.Context(), service.MovimientoParams{
		ProductoID:   productoID,
		Delta:        req.Delta,
		Tipo:         req.Tipo,
		Motivo:       req.Motivo,
		RealizadoPor: usuarioID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AjusteMasivo handles POST /v1/stock/ajuste-masivo. All items commit or none.
func (h *InventarioHandler) AjusteMasivo(c *gin.Context) {
	var req dto.AjusteMasivoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	items := make([]service.MovimientoParams, 0, len(req.Items))
	for _, item := range req.Items {
		productoID, err := uuid.Parse(item.ProductoID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido: "+item.ProductoID))
			return
		}
		items = append(items, service.MovimientoParams{
			ProductoID:   productoID,
			Delta:        item.Delta,
			Tipo:         req.Tipo,
			Motivo:       req.Motivo,
			RealizadoPor: usuarioID,
		})
	}
	resp, err := h.svc.AjusteMasivo(c.Request.Context(), items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReservarStock handles POST /v1/stock/reservar: a raw hold on available
// stock, without the reservation state machine on top.
func (h *InventarioHandler) ReservarStock(c *gin.Context) {
	var req dto.ReservarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
		return
	}
	resp, err := h.svc.ReservarStock(c.Request.Context(), service.MovimientoParams{
		ProductoID:   productoID,
		Delta:        req.Cantidad,
		Motivo:       req.Motivo,
		RealizadoPor: usuarioID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LiberarStock handles POST /v1/stock/liberar.
func (h *InventarioHandler) LiberarStock(c *gin.Context) {
	var req dto.LiberarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
		return
	}
	resp, err := h.svc.LiberarStock(c.Request.Context(), service.MovimientoParams{
		ProductoID:   productoID,
		Delta:        req.Cantidad,
		Motivo:       req.Motivo,
		RealizadoPor: usuarioID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarMovimientos handles GET /v1/inventario/movimientos.
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	filter := repository.MovimientoStockFilter{
		Tipo: c.Query("tipo"),
	}
	if raw := c.Query("producto_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
			return
		}
		filter.ProductoID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar movimientos"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

type AlertasHandler struct{ svc service.AlertaService }

func NewAlertasHandler(svc service.AlertaService) *AlertasHandler {
	return &AlertasHandler{svc: svc}
}

// ListarActivas handles GET /v1/inventario/alertas.
func (h *AlertasHandler) ListarActivas(c *gin.Context) {
	alertas, err := h.svc.ListarActivas(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al obtener alertas"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alertas})
}

// Reconocer handles POST /v1/inventario/alertas/:id/reconocer. The alert
// stays active; acknowledgement only records who has seen it.
func (h *AlertasHandler) Reconocer(c *gin.Context) {
	alertaID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.svc.Reconocer(c.Request.Context(), alertaID, usuarioID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
