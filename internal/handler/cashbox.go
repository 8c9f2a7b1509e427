package handler

import (
	"net/http"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/apierror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/middleware"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashboxHandler struct{ svc service.CashboxService }

func NewCashboxHandler(svc service.CashboxService) *CashboxHandler {
	return &CashboxHandler{svc: svc}
}

// Open godoc
// @Summary      Abrir caja
// @Description  Abre la sesion de caja de la sucursal con el monto inicial declarado. Solo puede haber una sesion abierta por sucursal.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenCashboxRequest true "Monto de apertura"
// @Success      201  {object} dto.SessionReportResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cashbox/open [post]
func (h *CashboxHandler) Open(c *gin.Context) {
	var req dto.OpenCashboxRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary      Cerrar caja (arqueo ciego)
// @Description  Recibe el conteo del cajero, calcula la diferencia contra lo esperado y cierra la sesion. Diferencias criticas (>5%) requieren notas del supervisor.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseCashboxRequest true "Conteo declarado"
// @Success      200  {object} dto.CloseCashboxResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/cashbox/close [post]
func (h *CashboxHandler) Close(c *gin.Context) {
	var req dto.CloseCashboxRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterMovement godoc
// @Summary      Registrar ingreso o egreso manual
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CashMovementRequest true "Movimiento"
// @Success      201
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cashbox/movements [post]
func (h *CashboxHandler) RegisterMovement(c *gin.Context) {
	var req dto.CashMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RegisterMovement(c.Request.Context(), middleware.GetTenant(c), req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// VoidLog godoc
// @Summary      Anular un movimiento de caja
// @Description  Marca el movimiento como anulado y registra la contrapartida de auditoria. Solo movimientos de la sesion abierta.
// @Tags         caja
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "UUID del movimiento"
// @Param        body body dto.VoidLogRequest true "Motivo"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cashbox/movements/{id} [delete]
func (h *CashboxHandler) VoidLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.VoidLogRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.VoidLog(c.Request.Context(), middleware.GetTenant(c), id, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetOpenSession godoc
// @Summary      Sesion abierta de la sucursal
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.SessionReportResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/cashbox/current [get]
func (h *CashboxHandler) GetOpenSession(c *gin.Context) {
	resp, err := h.svc.GetOpenSession(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport godoc
// @Summary      Reporte de una sesion
// @Description  Totales por metodo de pago, movimientos y diferencia de cierre de la sesion indicada.
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la sesion"
// @Success      200 {object} dto.SessionReportResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/cashbox/sessions/{id} [get]
func (h *CashboxHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetReport(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSessions godoc
// @Summary      Historial de sesiones de caja
// @Tags         caja
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Pagina (default 1)"
// @Param        limit query int false "Registros por pagina (default 20)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/cashbox/sessions [get]
func (h *CashboxHandler) ListSessions(c *gin.Context) {
	var q struct {
		Page  int `form:"page,default=1"   validate:"min=1"`
		Limit int `form:"limit,default=20" validate:"min=1,max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}
	data, total, err := h.svc.ListSessions(c.Request.Context(), middleware.GetTenant(c), q.Page, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": q.Page, "limit": q.Limit})
}
