package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/config"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/infra"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/router"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/service"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Start goroutine worker pool for async tasks (receipt PDF, email).
	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	saleRepo := repository.NewSaleRepository(db)
	productRepo := repository.NewProductRepository(db)
	clientRepo := repository.NewClientRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	cashboxRepo := repository.NewCashboxRepository(db)

	receiptW := worker.NewReceiptWorker(saleRepo, dispatcher, cfg.ReceiptStoragePath, cfg.BusinessName)
	emailW := worker.NewEmailWorker(mailer, smtpCB, rdb)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, map[string]worker.Handler{
		worker.QueueReceipts: receiptW.Process,
		worker.QueueEmail:    emailW.Process,
	})

	// Background maintenance: overdue installments, low-stock alerts, DLQ
	// redrive.
	creditSvc := service.NewCreditService(installmentRepo, clientRepo, cashboxRepo)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo, rdb)
	worker.StartMaintenance(ctx, worker.MaintenanceConfig{
		Credit:      creditSvc,
		Inventory:   inventorySvc,
		ProductRepo: productRepo,
		Dispatcher:  dispatcher,
		CB:          smtpCB,
		RDB:         rdb,
		AlertEmail:  cfg.AlertEmail,
	})

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("settlement engine listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
