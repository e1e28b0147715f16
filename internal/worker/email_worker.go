package worker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/Jvjesus89/ERPapp/internal/infra"
)

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path,omitempty"`
}

type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(ctx context.Context, payload json.RawMessage) {
	var p EmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Error().Err(err).Msg("email worker: bad payload")
		return
	}
	if err := w.mailer.SendReceipt(p.To, p.Subject, p.Body, p.PDFPath); err != nil {
		log.Error().Str("to", p.To).Err(err).Msg("email worker: send failed")
		return
	}
	log.Info().Str("to", p.To).Msg("receipt email sent")
}
