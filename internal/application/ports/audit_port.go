package ports

import (
	"context"
	"time"
)

// Acciones de auditoría emitidas por el núcleo.
const (
	AuditSaleCompleted    = "sale.completed"
	AuditSaleReturned     = "sale.returned"
	AuditSaleVoided       = "sale.voided"
	AuditStockAdjusted    = "stock.adjusted"
	AuditStockTransferred = "stock.transferred"
)

// AuditEvent describe una acción ya confirmada. Subject es el ID del documento afectado.
type AuditEvent struct {
	Action     string            `json:"action"`
	Subject    string            `json:"subject"`
	BranchID   string            `json:"branch_id"`
	UserID     string            `json:"user_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditEmitter define el puerto de salida para eventos de auditoría y notificación.
// Se invoca solo después del Commit: un fallo de emisión nunca revierte la operación,
// el caller lo registra y sigue.
type AuditEmitter interface {
	EmitAuditEvent(ctx context.Context, event AuditEvent) error
}
