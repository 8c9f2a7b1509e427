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

type CreditHandler struct{ svc service.CreditService }

func NewCreditHandler(svc service.CreditService) *CreditHandler { return &CreditHandler{svc: svc} }

// CreateClient godoc
// @Summary      Registrar cliente
// @Tags         creditos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateClientRequest true "Datos del cliente"
// @Success      201  {object} dto.ClientResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/clients [post]
func (h *CreditHandler) CreateClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateClient(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListClients godoc
// @Summary      Listar clientes
// @Tags         creditos
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Pagina (default 1)"
// @Param        limit query int false "Registros por pagina (default 50)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/clients [get]
func (h *CreditHandler) ListClients(c *gin.Context) {
	var q struct {
		Page  int `form:"page,default=1"   validate:"min=1"`
		Limit int `form:"limit,default=50" validate:"min=1,max=200"`
	}
	if !bindQuery(c, &q) {
		return
	}
	data, total, err := h.svc.ListClients(c.Request.Context(), middleware.GetTenant(c), q.Page, q.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": q.Page, "limit": q.Limit})
}

// GetClientStatus godoc
// @Summary      Estado de cuenta del cliente
// @Description  Retorna el cliente con su deuda vigente y las cuotas pendientes ordenadas por vencimiento.
// @Tags         creditos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cliente"
// @Success      200 {object} dto.ClientStatusResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/clients/{id}/status [get]
func (h *CreditHandler) GetClientStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetClientStatus(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PayInstallment godoc
// @Summary      Pagar cuota
// @Description  Acredita un pago contra una cuota. El pago entra a la caja abierta y reduce la deuda del cliente. Rechaza pagos que excedan el saldo de la cuota.
// @Tags         creditos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "UUID de la cuota"
// @Param        body body dto.PayInstallmentRequest true "Monto y metodo"
// @Success      200  {object} dto.InstallmentResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/installments/{id}/pay [post]
func (h *CreditHandler) PayInstallment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.PayInstallmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ApplyInstallmentPayment(c.Request.Context(), middleware.GetTenant(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListInstallmentsBySale godoc
// @Summary      Cuotas de una venta
// @Tags         creditos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {array} dto.InstallmentResponse
// @Router       /v1/sales/{id}/installments [get]
func (h *CreditHandler) ListInstallmentsBySale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ListInstallmentsBySale(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
