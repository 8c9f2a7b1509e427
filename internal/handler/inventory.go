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

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// CreateProduct godoc
// @Summary      Crear producto
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductRequest true "Datos del producto"
// @Success      201  {object} dto.ProductResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), middleware.GetTenant(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetProduct godoc
// @Summary      Detalle de producto
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      200 {object} dto.ProductResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), middleware.GetTenant(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListProducts godoc
// @Summary      Listar productos
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        barcode     query string false "Filtro por codigo de barras"
// @Param        description query string false "Busqueda parcial por descripcion"
// @Param        category    query string false "Filtro por categoria"
// @Param        active      query string false "false | all (default: solo activos)"
// @Param        page        query int    false "Pagina (default 1)"
// @Param        limit       query int    false "Registros por pagina (default 50)"
// @Success      200 {object} dto.ProductListResponse
// @Router       /v1/products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), middleware.GetTenant(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProduct godoc
// @Summary      Actualizar producto
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID del producto"
// @Param        body body dto.UpdateProductRequest true "Campos a actualizar"
// @Success      200  {object} dto.ProductResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/products/{id} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), middleware.GetTenant(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeactivateProduct godoc
// @Summary      Desactivar producto (baja logica)
// @Tags         inventario
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/products/{id} [delete]
func (h *InventoryHandler) DeactivateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.DeactivateProduct(c.Request.Context(), middleware.GetTenant(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock godoc
// @Summary      Ajustar stock
// @Description  Registra una entrada de mercaderia o una correccion de inventario con su movimiento de auditoria.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "UUID del producto"
// @Param        body body dto.AdjustStockRequest true "Delta y motivo"
// @Success      200  {object} dto.StockMovementResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/products/{id}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AdjustStock(c.Request.Context(), middleware.GetTenant(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      Historial de movimientos de stock
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        product_id query string false "UUID del producto"
// @Param        reason     query string false "sale | void | purchase | adjustment"
// @Param        page       query int    false "Pagina (default 1)"
// @Param        limit      query int    false "Registros por pagina (default 100)"
// @Success      200 {object} dto.StockMovementListResponse
// @Router       /v1/stock-movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), middleware.GetTenant(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListLowStock godoc
// @Summary      Productos con stock bajo minimo
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.ProductResponse
// @Router       /v1/products/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	resp, err := h.svc.ListLowStock(c.Request.Context(), middleware.GetTenant(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
