package events

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/pkg/logger"
)

var (
	_ ports.AuditEmitter = NoopEmitter{}
	_ ports.AuditEmitter = (*LogEmitter)(nil)
)

// NoopEmitter descarta los eventos.
type NoopEmitter struct{}

func (NoopEmitter) EmitAuditEvent(context.Context, ports.AuditEvent) error { return nil }

// LogEmitter escribe cada evento como una línea de log estructurada. Es el emisor por
// defecto cuando no hay brokers Kafka configurados.
type LogEmitter struct {
	log *logger.Logger
}

// NewLogEmitter construye el emisor sobre el logger de la app.
func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{log: log.Component("audit")}
}

func (e *LogEmitter) EmitAuditEvent(_ context.Context, ev ports.AuditEvent) error {
	dict := e.log.Info().
		Str("action", ev.Action).
		Str("subject", ev.Subject).
		Str("branch_id", ev.BranchID).
		Str("user_id", ev.UserID).
		Time("occurred_at", ev.OccurredAt)
	for k, v := range ev.Attributes {
		dict = dict.Str("attr."+k, v)
	}
	dict.Msg("evento de auditoría")
	return nil
}
