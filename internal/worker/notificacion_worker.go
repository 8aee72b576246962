package worker

// notificacion_worker.go
// Processes reservation state-change notifications from QueueNotificaciones.
// Delivery is best-effort: the state change already committed, so a failed
// send is retried a few times and then parked in the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"

	"reservapos/internal/infra"

	"github.com/rs/zerolog/log"
)

// NotificacionJobPayload is the job envelope sent to QueueNotificaciones.
type NotificacionJobPayload struct {
	Evento    string `json:"evento"`
	ReservaID string `json:"reserva_id"`
	UsuarioID string `json:"usuario_id"`
	Estado    string `json:"estado"`
	Email     string `json:"email,omitempty"`
}

var asuntos = map[string]string{
	"reserva_creada":     "Tu reserva fue registrada",
	"reserva_confirmada": "Tu reserva fue confirmada",
	"reserva_completada": "Tu reserva fue entregada",
	"reserva_cancelada":  "Tu reserva fue cancelada",
	"reserva_expirada":   "Tu reserva expiró",
}

// NotificacionWorker sends reservation emails via SMTP, behind a circuit
// breaker so a downed mail server doesn't burn every retry budget at once.
type NotificacionWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

func NewNotificacionWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, cb: cb}
}

// Process delivers one notification. Returning an error signals the pool to
// retry (and eventually DLQ); a payload without a destination is dropped.
func (w *NotificacionWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload NotificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if payload.Email == "" {
		log.Debug().Str("reserva_id", payload.ReservaID).Msg("notificacion_worker: sin email — skipping")
		return nil
	}

	asunto, ok := asuntos[payload.Evento]
	if !ok {
		asunto = "Actualización de tu reserva"
	}
	cuerpo := fmt.Sprintf("Reserva %s: estado %s.", payload.ReservaID, payload.Estado)

	err := w.cb.Execute(func() error {
		return w.mailer.SendNotificacion(payload.Email, asunto, cuerpo)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.Email).Str("evento", payload.Evento).
			Msg("notificacion_worker: failed to send email")
		return err
	}

	log.Info().Str("to", payload.Email).Str("evento", payload.Evento).
		Msg("notificacion_worker: notificación enviada")
	return nil
}
