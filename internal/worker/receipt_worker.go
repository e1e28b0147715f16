package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Jvjesus89/ERPapp/internal/infra"
	"github.com/Jvjesus89/ERPapp/internal/repository"
)

// ReceiptPayload identifies the sale whose receipt must be generated.
// CustomerEmail, when present, chains an email job after the PDF is written.
type ReceiptPayload struct {
	SaleID        uuid.UUID `json:"sale_id"`
	CompanyID     uuid.UUID `json:"company_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
}

// ReceiptWorker renders the sale receipt PDF and optionally hands the
// result to the email queue.
type ReceiptWorker struct {
	saleRepo    repository.SaleRepository
	dispatcher  *Dispatcher
	storagePath string
}

func NewReceiptWorker(saleRepo repository.SaleRepository, dispatcher *Dispatcher, storagePath string) *ReceiptWorker {
	return &ReceiptWorker{saleRepo: saleRepo, dispatcher: dispatcher, storagePath: storagePath}
}

func (w *ReceiptWorker) Process(ctx context.Context, payload json.RawMessage) {
	var p ReceiptPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Error().Err(err).Msg("receipt worker: bad payload")
		return
	}

	sale, err := w.saleRepo.FindByID(ctx, p.CompanyID, p.SaleID)
	if err != nil {
		log.Error().Str("sale_id", p.SaleID.String()).Err(err).Msg("receipt worker: sale not found")
		return
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.storagePath)
	if err != nil {
		log.Error().Str("sale_id", p.SaleID.String()).Err(err).Msg("receipt worker: pdf generation failed")
		return
	}
	log.Info().Str("sale_id", p.SaleID.String()).Str("path", pdfPath).Msg("receipt generated")

	if p.CustomerEmail == "" {
		return
	}
	emailJob := EmailPayload{
		To:      p.CustomerEmail,
		Subject: "Comprovante de Venda",
		Body:    "Segue em anexo o comprovante da sua compra. Obrigado pela preferência!",
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Error().Str("sale_id", p.SaleID.String()).Err(err).Msg("receipt worker: failed to enqueue email")
	}
}
