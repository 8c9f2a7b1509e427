package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipts: renders the internal PDF for a
// completed sale and, when the customer left an email, enqueues the delivery
// job. Receipt generation is best-effort and never blocks settlement.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TreborOscorima/Sistema-de-Ventas/internal/infra"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/repository"
	"github.com/TreborOscorima/Sistema-de-Ventas/internal/tenant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipts.
type ReceiptJobPayload struct {
	SaleID      string  `json:"sale_id"`
	CompanyID   string  `json:"company_id"`
	ClientEmail *string `json:"client_email,omitempty"`
}

type ReceiptWorker struct {
	saleRepo     repository.SaleRepository
	dispatcher   *Dispatcher
	storagePath  string
	businessName string
}

func NewReceiptWorker(saleRepo repository.SaleRepository, dispatcher *Dispatcher, storagePath, businessName string) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:     saleRepo,
		dispatcher:   dispatcher,
		storagePath:  storagePath,
		businessName: businessName,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the sale (with items and payments)
//  3. Render the PDF receipt
//  4. Enqueue the email job when a customer address was provided
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return
	}
	companyID, err := uuid.Parse(payload.CompanyID)
	if err != nil {
		log.Error().Str("company_id", payload.CompanyID).Msg("receipt_worker: invalid company_id")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, tenant.Context{CompanyID: companyID}, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.businessName, w.storagePath)
	if err != nil {
		log.Warn().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generation failed")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generated")

	if payload.ClientEmail == nil || *payload.ClientEmail == "" {
		return
	}

	emailJob := EmailJobPayload{
		ToEmail: *payload.ClientEmail,
		Subject: fmt.Sprintf("%s — Comprobante de Venta", w.businessName),
		Body:    fmt.Sprintf("Adjunto encontrarás tu comprobante de compra.\nTotal: $%s", sale.Total.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", *payload.ClientEmail).Msg("receipt_worker: failed to enqueue email")
	}
}
