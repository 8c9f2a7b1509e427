package worker

// email_worker.go
// Processes email jobs from QueueEmail: delivers PDF receipts and stock alerts
// over SMTP. Sends go through the circuit breaker so a downed mail relay
// fast-fails instead of tying up the pool; exhausted retries land in the DLQ.

import (
	"context"
	"encoding/json"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const emailMaxAttempts = 3

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	PDFPath  string `json:"pdf_path,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
	rdb    *redis.Client
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, rdb *redis.Client) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, rdb: rdb}
}

// Process sends one email, attaching the PDF when present. A failed send is
// re-enqueued with an incremented attempt count until the budget runs out.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if sendErr == nil {
		log.Info().Str("to", payload.ToEmail).Msg("email_worker: sent")
		return
	}

	payload.Attempts++
	if payload.Attempts >= emailMaxAttempts {
		data, _ := json.Marshal(payload)
		SendToDLQ(ctx, w.rdb, QueueEmail, "email", data, sendErr.Error(), payload.Attempts)
		return
	}

	log.Warn().
		Err(sendErr).
		Str("to", payload.ToEmail).
		Int("attempt", payload.Attempts).
		Msg("email_worker: send failed, re-enqueueing")

	data, err := json.Marshal(Job{Type: "email", Payload: mustMarshal(payload)})
	if err != nil {
		return
	}
	_ = w.rdb.LPush(ctx, QueueEmail, data).Err()
}

func mustMarshal(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
