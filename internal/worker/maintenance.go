package worker

// maintenance.go
// Background goroutine with two periodic duties:
//   - flip past-due installments to overdue
//   - scan for products under their minimum stock and alert the configured
//     recipient, at most once per product per day
// It also re-drives a bounded batch of DLQ'd email jobs on each tick, giving
// transient SMTP outages a second chance without manual intervention.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/dto"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/infra"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	maintenanceTickInterval = 5 * time.Minute
	dlqRedriveBatch         = 10
	alertDedupTTL           = 24 * time.Hour
)

// OverdueMarker flips past-due installments. Satisfied by the credit service.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

// LowStockLister reports products under their minimum. Satisfied by the
// inventory service.
type LowStockLister interface {
	ListLowStock(ctx context.Context, tc tenant.Context) ([]dto.ProductResponse, error)
}

// MaintenanceConfig holds all dependencies for the maintenance goroutine.
type MaintenanceConfig struct {
	Credit      OverdueMarker
	Inventory   LowStockLister
	ProductRepo repository.ProductRepository
	Dispatcher  *Dispatcher
	CB          *infra.CircuitBreaker
	RDB         *redis.Client
	AlertEmail  string
}

// StartMaintenance launches the background goroutine. It respects the context
// for graceful shutdown.
func StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	go func() {
		ticker := time.NewTicker(maintenanceTickInterval)
		defer ticker.Stop()

		log.Info().Msg("maintenance: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("maintenance: shutting down")
				return
			case <-ticker.C:
				markOverdueInstallments(ctx, cfg)
				checkLowStock(ctx, cfg)
				redriveEmailDLQ(ctx, cfg)
			}
		}
	}()
}

func markOverdueInstallments(ctx context.Context, cfg MaintenanceConfig) {
	n, err := cfg.Credit.MarkOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("maintenance: mark overdue failed")
		return
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("maintenance: installments marked overdue")
	}
}

func checkLowStock(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.AlertEmail == "" {
		return
	}

	companies, err := cfg.ProductRepo.ListCompanyIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("maintenance: company scan failed")
		return
	}

	var products []dto.ProductResponse
	for _, companyID := range companies {
		low, err := cfg.Inventory.ListLowStock(ctx, tenant.Context{CompanyID: companyID})
		if err != nil {
			log.Error().Err(err).Str("company_id", companyID.String()).Msg("maintenance: low stock scan failed")
			continue
		}
		products = append(products, low...)
	}

	fresh := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		// One alert per product per day; SETNX is the dedup.
		key := "alert:lowstock:" + p.ID
		ok, err := cfg.RDB.SetNX(ctx, key, 1, alertDedupTTL).Result()
		if err != nil || !ok {
			continue
		}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return
	}

	var b strings.Builder
	b.WriteString("Productos por debajo del stock mínimo:\n\n")
	for _, p := range fresh {
		fmt.Fprintf(&b, "  %s — stock %d (mínimo %d)\n", p.Description, p.Stock, p.MinStock)
	}

	job := EmailJobPayload{
		ToEmail: cfg.AlertEmail,
		Subject: fmt.Sprintf("Alerta de stock bajo — %d producto(s)", len(fresh)),
		Body:    b.String(),
	}
	if err := cfg.Dispatcher.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Msg("maintenance: failed to enqueue stock alert")
		return
	}
	log.Info().Int("count", len(fresh)).Msg("maintenance: low stock alert enqueued")
}

// redriveEmailDLQ pops a bounded batch of dead emails back onto the queue.
// Skipped while the breaker is open — no point re-feeding a down relay.
func redriveEmailDLQ(ctx context.Context, cfg MaintenanceConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("maintenance: circuit breaker open, skipping DLQ redrive")
		return
	}

	dlqKey := DLQPrefix + QueueEmail
	for i := 0; i < dlqRedriveBatch; i++ {
		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if err != nil {
			return // empty or unavailable
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("maintenance: malformed DLQ entry dropped")
			continue
		}

		// Reset the attempt budget: the outage that killed it has passed.
		var payload EmailJobPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			continue
		}
		payload.Attempts = 0

		job, err := json.Marshal(Job{Type: entry.JobType, Payload: mustMarshal(payload)})
		if err != nil {
			continue
		}
		if err := cfg.RDB.LPush(ctx, entry.OriginalQueue, job).Err(); err != nil {
			log.Error().Err(err).Msg("maintenance: DLQ redrive push failed")
			return
		}
		log.Info().Str("to", payload.ToEmail).Msg("maintenance: DLQ email re-driven")
	}
}
