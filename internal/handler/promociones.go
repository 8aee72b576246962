package handler

import (
	"net/http"
	"strconv"

	"reservapos/internal/apierror"
	"reservapos/internal/dto"
	"reservapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PromocionesHandler struct{ svc service.PromocionService }

func NewPromocionesHandler(svc service.PromocionService) *PromocionesHandler {
	return &PromocionesHandler{svc: svc}
}

// Resolver handles GET /v1/promociones/resolver?producto_id=&cantidad=.
// Read-only: resolving never consumes usage quota.
func (h *PromocionesHandler) Resolver(c *gin.Context) {
	productoID, err := uuid.Parse(c.Query("producto_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("producto_id invalido"))
		return
	}
	cantidad, err := strconv.Atoi(c.DefaultQuery("cantidad", "1"))
	if err != nil || cantidad <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("cantidad debe ser un entero positivo"))
		return
	}
	res, err := h.svc.Resolver(c.Request.Context(), productoID, cantidad)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res.ToResponse())
}

// Crear handles POST /v1/promociones.
func (h *PromocionesHandler) Crear(c *gin.Context) {
	var req dto.CrearPromocionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar handles GET /v1/promociones.
func (h *PromocionesHandler) Listar(c *gin.Context) {
	promos, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar promociones"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": promos})
}

// Desactivar handles DELETE /v1/promociones/:id. Soft delete: the promotion
// stops matching but stays for audit.
func (h *PromocionesHandler) Desactivar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
