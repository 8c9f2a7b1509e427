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

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// SettleSale godoc
// @Summary      Liquidar una venta
// @Description  Liquida una venta ACID: resuelve productos por barcode, descuenta stock, registra movimientos de caja, crea el plan de cuotas para la parte a credito y despacha el comprobante asincrono.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SettleSaleRequest true "Detalle de la venta"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales [post]
func (h *SalesHandler) SettleSale(c *gin.Context) {
	var req dto.SettleSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SettleSale(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// VoidSale godoc
// @Summary      Anular venta
// @Description  Anula una venta: restaura stock, anula los movimientos de caja con contrapartida de auditoria y revierte la deuda de credito no pagada.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "UUID de la venta"
// @Param        body body dto.VoidSaleRequest true "Motivo de anulacion"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/sales/{id} [delete]
func (h *SalesHandler) VoidSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.VoidSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.VoidSale(c.Request.Context(), middleware.GetTenant(c), id, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSale godoc
// @Summary      Detalle de una venta
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) GetSale(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSales godoc
// @Summary      Listar ventas
// @Description  Retorna lista paginada de ventas filtrada por fecha, estado y cliente.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        date      query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Param        status    query string false "completed | cancelled | all"
// @Param        client_id query string false "UUID del cliente"
// @Param        page      query int    false "Pagina (default 1)"
// @Param        limit     query int    false "Registros por pagina (default 50)"
// @Success      200 {object} dto.SaleListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) ListSales(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), middleware.GetTenant(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
