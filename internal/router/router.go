package router

import (
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/config"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/handler"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/middleware"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/service"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	cashboxRepo := repository.NewCashboxRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	clientRepo := repository.NewClientRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	reservationRepo := repository.NewReservationRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo, rdb)
	cashboxSvc := service.NewCashboxService(cashboxRepo)
	creditSvc := service.NewCreditService(installmentRepo, clientRepo, cashboxRepo)
	saleSvc := service.NewSaleService(saleRepo, inventorySvc, creditSvc, cashboxRepo, productRepo, installmentRepo, dispatcher)
	reservationSvc := service.NewReservationService(reservationRepo, cashboxRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	cashboxH := handler.NewCashboxHandler(cashboxSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	creditH := handler.NewCreditHandler(creditSvc)
	reservationsH := handler.NewReservationsHandler(reservationSvc)
	priceH := handler.NewPriceCheckHandler(productRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes. TenantScope resolves the company/branch of the token
	// once; everything below operates inside that scope.
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), middleware.TenantScope())
	{
		anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisorUp := middleware.RequireRole("supervisor", "admin")
		adminOnly := middleware.RequireRole("admin")

		// Price check — read-only, any staff terminal
		v1.GET("/price/:barcode", anyStaff, priceH.GetPriceByBarcode)

		// Sales
		v1.POST("/sales", anyStaff, salesH.SettleSale)
		v1.GET("/sales", anyStaff, salesH.ListSales)
		v1.GET("/sales/:id", anyStaff, salesH.GetSale)
		v1.GET("/sales/:id/installments", anyStaff, creditH.ListInstallmentsBySale)
		v1.DELETE("/sales/:id", supervisorUp, salesH.VoidSale)

		// Cashbox
		cashbox := v1.Group("/cashbox")
		{
			cashbox.POST("/open", anyStaff, cashboxH.Open)
			cashbox.POST("/close", anyStaff, cashboxH.Close)
			cashbox.GET("/current", anyStaff, cashboxH.GetOpenSession)
			cashbox.POST("/movements", anyStaff, cashboxH.RegisterMovement)
			cashbox.DELETE("/movements/:id", supervisorUp, cashboxH.VoidLog)
			cashbox.GET("/sessions", supervisorUp, cashboxH.ListSessions)
			cashbox.GET("/sessions/:id", anyStaff, cashboxH.GetReport)
		}

		// Products — any staff can read (catalog sync), admin writes
		v1.GET("/products", anyStaff, inventoryH.ListProducts)
		v1.GET("/products/low-stock", supervisorUp, inventoryH.ListLowStock)
		v1.GET("/products/:id", anyStaff, inventoryH.GetProduct)
		v1.POST("/products/:id/stock", supervisorUp, inventoryH.AdjustStock)
		products := v1.Group("/products", adminOnly)
		{
			products.POST("", inventoryH.CreateProduct)
			products.PUT("/:id", inventoryH.UpdateProduct)
			products.DELETE("/:id", inventoryH.DeactivateProduct)
		}
		v1.GET("/stock-movements", supervisorUp, inventoryH.ListMovements)

		// Clients and credit
		v1.POST("/clients", anyStaff, creditH.CreateClient)
		v1.GET("/clients", anyStaff, creditH.ListClients)
		v1.GET("/clients/:id/status", anyStaff, creditH.GetClientStatus)
		v1.POST("/installments/:id/pay", anyStaff, creditH.PayInstallment)

		// Field reservations
		reservations := v1.Group("/reservations")
		{
			reservations.POST("", anyStaff, reservationsH.Create)
			reservations.GET("", anyStaff, reservationsH.ListByDate)
			reservations.GET("/prices", anyStaff, reservationsH.ListPrices)
			reservations.PUT("/prices", adminOnly, reservationsH.SavePrice)
			reservations.GET("/:id", anyStaff, reservationsH.Get)
			reservations.POST("/:id/payments", anyStaff, reservationsH.ApplyPayment)
			reservations.DELETE("/:id", supervisorUp, reservationsH.Cancel)
		}

		// Users — admin only
		users := v1.Group("/users", adminOnly)
		{
			users.POST("", authH.CreateUser)
			users.GET("", authH.ListUsers)
			users.PUT("/:id", authH.UpdateUser)
			users.DELETE("/:id", authH.DeactivateUser)
			users.POST("/:id/reactivate", authH.ReactivateUser)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
