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

type ReservasHandler struct{ svc service.ReservaService }

func NewReservasHandler(svc service.ReservaService) *ReservasHandler {
	return &ReservasHandler{svc: svc}
}

// Crear handles POST /v1/reservas.
func (h *ReservasHandler) Crear(c *gin.Context) {
	var req dto.CrearReservaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, currentUserEmail(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Confirmar handles POST /v1/reservas/:id/confirmar. A stale pending
// reservation is expired here instead of confirmed.
func (h *ReservasHandler) Confirmar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Confirmar(c.Request.Context(), id, usuarioID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Completar handles POST /v1/reservas/:id/completar.
func (h *ReservasHandler) Completar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Completar(c.Request.Context(), id, usuarioID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancelar handles POST /v1/reservas/:id/cancelar.
func (h *ReservasHandler) Cancelar(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	usuarioID, ok := currentUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Cancelar(c.Request.Context(), id, usuarioID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener handles GET /v1/reservas/:id.
func (h *ReservasHandler) Obtener(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar handles GET /v1/reservas.
func (h *ReservasHandler) Listar(c *gin.Context) {
	filter := repository.ReservaFilter{
		Estado: c.Query("estado"),
	}
	if raw := c.Query("usuario_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("usuario_id invalido"))
			return
		}
		filter.UsuarioID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Error al listar reservas"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
