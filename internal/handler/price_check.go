package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/apierror"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/middleware"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const priceCacheTTL = 4 * time.Hour

// PriceCheckHandler serves the barcode price lookup used by the checker
// terminals. Read-only, no side effects on inventory or cashbox.
type PriceCheckHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewPriceCheckHandler(repo repository.ProductRepository, rdb *redis.Client) *PriceCheckHandler {
	return &PriceCheckHandler{repo: repo, rdb: rdb}
}

// GetPriceByBarcode godoc
// @Summary      Consulta de precio por codigo de barras
// @Tags         precio
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "Codigo de barras"
// @Success      200 {object} dto.PriceCheckResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/price/{barcode} [get]
func (h *PriceCheckHandler) GetPriceByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	ctx := c.Request.Context()
	tc := middleware.GetTenant(c)
	cacheKey := service.PriceCacheKey(tc.CompanyID, barcode)

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.PriceCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	product, err := h.repo.FindByBarcode(ctx, tc, barcode)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
		return
	}

	resp := dto.PriceCheckResponse{
		Barcode:     barcode,
		Description: product.Description,
		SalePrice:   product.SalePrice,
		Stock:       product.Stock,
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, priceCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
