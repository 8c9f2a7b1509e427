package handler

import (
	"net/http"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/apierror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/middleware"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationsHandler struct{ svc service.ReservationService }

func NewReservationsHandler(svc service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{svc: svc}
}

// Create godoc
// @Summary      Reservar cancha
// @Description  Crea una reserva para el horario indicado. Rechaza horarios que se superpongan con otra reserva activa de la misma cancha.
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateReservationRequest true "Datos de la reserva"
// @Success      201  {object} dto.ReservationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reservations [post]
func (h *ReservationsHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ApplyPayment godoc
// @Summary      Registrar pago de reserva
// @Description  Acredita un adelanto o el pago final. No se acepta credito; con is_final los pagos deben cubrir exactamente el saldo.
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                        true "UUID de la reserva"
// @Param        body body dto.ReservationPaymentRequest true "Pagos"
// @Success      200  {object} dto.ReservationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reservations/{id}/payments [post]
func (h *ReservationsHandler) ApplyPayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ReservationPaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyPayment(c.Request.Context(), middleware.GetTenant(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary      Cancelar reserva
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                       true "UUID de la reserva"
// @Param        body body dto.CancelReservationRequest true "Motivo"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/reservations/{id} [delete]
func (h *ReservationsHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CancelReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), middleware.GetTenant(c), id, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get godoc
// @Summary      Detalle de reserva
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la reserva"
// @Success      200 {object} dto.ReservationResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/reservations/{id} [get]
func (h *ReservationsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListByDate godoc
// @Summary      Reservas del dia
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Success      200  {array} dto.ReservationResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reservations [get]
func (h *ReservationsHandler) ListByDate(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("Fecha invalida, formato esperado YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	resp, err := h.svc.ListByDate(c.Request.Context(), middleware.GetTenant(c), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPrices godoc
// @Summary      Tarifas por cancha y deporte
// @Tags         reservas
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.FieldPriceResponse
// @Router       /v1/reservations/prices [get]
func (h *ReservationsHandler) ListPrices(c *gin.Context) {
	resp, err := h.svc.ListPrices(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SavePrice godoc
// @Summary      Definir tarifa horaria
// @Tags         reservas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SaveFieldPriceRequest true "Tarifa"
// @Success      200  {object} dto.FieldPriceResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/reservations/prices [put]
func (h *ReservationsHandler) SavePrice(c *gin.Context) {
	var req dto.SaveFieldPriceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SavePrice(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
