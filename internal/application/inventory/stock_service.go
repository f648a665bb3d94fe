package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/jhoicas/pos-ledger/pkg/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// AdjustInput datos de un ajuste manual. Delta con signo: positivo suma, negativo resta.
type AdjustInput struct {
	BranchID    string
	UserID      string
	ProductID   string
	WarehouseID string
	Delta       decimal.Decimal
	Note        string
	UnitCost    *decimal.Decimal
	Reference   *entity.Reference // nil = ajuste con ID generado
}

// TransferInput datos de un traslado entre bodegas de la misma sucursal.
type TransferInput struct {
	BranchID        string
	UserID          string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Note            string
}

// StockLine es una línea de un documento (venta o devolución) que mueve stock.
// Line es el índice en el documento y se usa para reportar faltantes.
type StockLine struct {
	Line        int
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
}

// StockService concentra las operaciones que mueven stock. Cada operación toma los bloqueos
// de sus líneas en orden (producto, bodega), verifica disponibilidad plegando el ledger dentro
// de la misma transacción e inserta los movimientos.
type StockService struct {
	tx         TxRunner
	ledger     *LedgerStore
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	audit      ports.AuditEmitter
	log        *logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewStockService construye el servicio. m puede ser nil.
func NewStockService(
	tx TxRunner,
	ledger *LedgerStore,
	products repository.ProductRepository,
	warehouses repository.WarehouseRepository,
	audit ports.AuditEmitter,
	log *logger.Logger,
	m *metrics.Metrics,
) *StockService {
	return &StockService{
		tx:         tx,
		ledger:     ledger,
		products:   products,
		warehouses: warehouses,
		audit:      audit,
		log:        log.Component("stock"),
		metrics:    m,
		tracer:     tracing.Tracer("inventory"),
	}
}

// Adjust registra un ajuste manual. Un delta negativo que deje la bodega en negativo se
// rechaza con StockShortageError (ErrInsufficientStock y ErrInvalidAdjustment).
func (s *StockService) Adjust(ctx context.Context, in AdjustInput) (entry *entity.LedgerEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "stock.adjust", trace.WithAttributes(
		attribute.String("product_id", in.ProductID),
		attribute.String("warehouse_id", in.WarehouseID),
	))
	defer func() { s.finish(span, "adjust", err) }()

	if in.Delta.IsZero() {
		return nil, fmt.Errorf("%w: el delta no puede ser cero", domain.ErrInvalidAdjustment)
	}
	if domain.ExceedsScale(in.Delta) {
		return nil, domain.NewValidationError("qty", domain.ScaleReason)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	if in.UnitCost != nil && domain.ExceedsScale(*in.UnitCost) {
		return nil, domain.NewValidationError("unit_cost", domain.ScaleReason)
	}
	if err := s.checkScope(ctx, in.BranchID, in.ProductID, in.WarehouseID); err != nil {
		return nil, err
	}

	ref := entity.Reference{Type: entity.ReferenceAdjustment, ID: uuid.New().String()}
	if in.Reference != nil && in.Reference.Type != "" && in.Reference.ID != "" {
		ref = *in.Reference
	}
	direction := entity.DirectionIn
	if in.Delta.IsNegative() {
		direction = entity.DirectionOut
	}
	qty := in.Delta.Abs()

	err = s.tx.Run(ctx, func(tx *repository.Tx) error {
		if err := s.lockLines(ctx, tx, []StockLine{{ProductID: in.ProductID, WarehouseID: in.WarehouseID}}); err != nil {
			return err
		}
		if direction == entity.DirectionOut {
			if err := s.ensureAvailable(ctx, tx, StockLine{Line: -1, ProductID: in.ProductID, WarehouseID: in.WarehouseID, Quantity: qty}, true); err != nil {
				return err
			}
		}
		entry = &entity.LedgerEntry{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			BranchID:    in.BranchID,
			Direction:   direction,
			Quantity:    qty,
			Reference:   ref,
			Note:        in.Note,
			CreatedBy:   in.UserID,
		}
		if direction == entity.DirectionIn {
			entry.UnitCost = in.UnitCost
		}
		_, err := s.ledger.Append(ctx, tx, entry)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, ports.AuditEvent{
		Action:   ports.AuditStockAdjusted,
		Subject:  ref.ID,
		BranchID: in.BranchID,
		UserID:   in.UserID,
		Attributes: map[string]string{
			"product_id":   in.ProductID,
			"warehouse_id": in.WarehouseID,
			"delta":        in.Delta.String(),
		},
	})
	return entry, nil
}

// Transfer mueve cantidad entre dos bodegas: una salida en el origen y una entrada en el
// destino bajo la misma referencia, de forma atómica.
func (s *StockService) Transfer(ctx context.Context, in TransferInput) (out, inbound *entity.LedgerEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "stock.transfer", trace.WithAttributes(
		attribute.String("product_id", in.ProductID),
		attribute.String("from_warehouse_id", in.FromWarehouseID),
		attribute.String("to_warehouse_id", in.ToWarehouseID),
	))
	defer func() { s.finish(span, "transfer", err) }()

	if !in.Quantity.IsPositive() {
		return nil, nil, domain.NewValidationError("qty", "debe ser mayor que cero")
	}
	if domain.ExceedsScale(in.Quantity) {
		return nil, nil, domain.NewValidationError("qty", domain.ScaleReason)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, nil, domain.NewValidationError("to_warehouse_id", "debe ser distinta de la bodega origen")
	}
	if err := s.checkScope(ctx, in.BranchID, in.ProductID, in.FromWarehouseID); err != nil {
		return nil, nil, err
	}
	if err := s.checkScope(ctx, in.BranchID, in.ProductID, in.ToWarehouseID); err != nil {
		return nil, nil, err
	}

	ref := entity.Reference{Type: entity.ReferenceTransfer, ID: uuid.New().String()}
	err = s.tx.Run(ctx, func(tx *repository.Tx) error {
		lines := []StockLine{
			{Line: -1, ProductID: in.ProductID, WarehouseID: in.FromWarehouseID, Quantity: in.Quantity},
			{Line: -1, ProductID: in.ProductID, WarehouseID: in.ToWarehouseID, Quantity: in.Quantity},
		}
		if err := s.lockLines(ctx, tx, lines); err != nil {
			return err
		}
		if err := s.ensureAvailable(ctx, tx, lines[0], false); err != nil {
			return err
		}
		out = s.newEntry(in.BranchID, in.UserID, lines[0], entity.DirectionOut, ref, in.Note)
		if _, err := s.ledger.Append(ctx, tx, out); err != nil {
			return err
		}
		inbound = s.newEntry(in.BranchID, in.UserID, lines[1], entity.DirectionIn, ref, in.Note)
		_, err := s.ledger.Append(ctx, tx, inbound)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.emit(ctx, ports.AuditEvent{
		Action:   ports.AuditStockTransferred,
		Subject:  ref.ID,
		BranchID: in.BranchID,
		UserID:   in.UserID,
		Attributes: map[string]string{
			"product_id":        in.ProductID,
			"from_warehouse_id": in.FromWarehouseID,
			"to_warehouse_id":   in.ToWarehouseID,
			"qty":               in.Quantity.String(),
		},
	})
	return out, inbound, nil
}

// ConsumeForSale inserta las salidas de una venta dentro de la transacción del caller.
// Bloquea todas las líneas antes de verificar cualquiera; si una no alcanza devuelve el
// faltante de esa línea y la transacción completa debe abortarse.
// Devuelve los movimientos en el mismo orden de lines.
func (s *StockService) ConsumeForSale(ctx context.Context, tx *repository.Tx, branchID, userID string, ref entity.Reference, lines []StockLine) (entries []*entity.LedgerEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "stock.consume", trace.WithAttributes(
		attribute.String("reference_id", ref.ID),
		attribute.Int("lines", len(lines)),
	))
	defer func() { s.finish(span, "consume", err) }()

	if err := s.lockLines(ctx, tx, lines); err != nil {
		return nil, err
	}
	if err := s.ensureAllAvailable(ctx, tx, lines); err != nil {
		return nil, err
	}
	entries = make([]*entity.LedgerEntry, 0, len(lines))
	for _, l := range lines {
		e := s.newEntry(branchID, userID, l, entity.DirectionOut, ref, "")
		if _, err := s.ledger.Append(ctx, tx, e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RestoreForReturn inserta las entradas de una devolución o anulación dentro de la transacción del caller.
func (s *StockService) RestoreForReturn(ctx context.Context, tx *repository.Tx, branchID, userID string, ref entity.Reference, lines []StockLine) (entries []*entity.LedgerEntry, err error) {
	ctx, span := s.tracer.Start(ctx, "stock.restore", trace.WithAttributes(
		attribute.String("reference_id", ref.ID),
		attribute.Int("lines", len(lines)),
	))
	defer func() { s.finish(span, "restore", err) }()

	if err := s.lockLines(ctx, tx, lines); err != nil {
		return nil, err
	}
	entries = make([]*entity.LedgerEntry, 0, len(lines))
	for _, l := range lines {
		e := s.newEntry(branchID, userID, l, entity.DirectionIn, ref, "")
		if _, err := s.ledger.Append(ctx, tx, e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *StockService) newEntry(branchID, userID string, l StockLine, direction string, ref entity.Reference, note string) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ProductID:   l.ProductID,
		WarehouseID: l.WarehouseID,
		BranchID:    branchID,
		Direction:   direction,
		Quantity:    l.Quantity,
		Reference:   ref,
		Note:        note,
		CreatedBy:   userID,
	}
}

// lockLines bloquea cada par (producto, bodega) una sola vez y en orden lexicográfico,
// de modo que dos transacciones con líneas solapadas no se bloqueen mutuamente.
func (s *StockService) lockLines(ctx context.Context, tx *repository.Tx, lines []StockLine) error {
	type pair struct{ product, warehouse string }
	seen := make(map[pair]struct{}, len(lines))
	pairs := make([]pair, 0, len(lines))
	for _, l := range lines {
		p := pair{l.ProductID, l.WarehouseID}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].product != pairs[j].product {
			return pairs[i].product < pairs[j].product
		}
		return pairs[i].warehouse < pairs[j].warehouse
	})
	for _, p := range pairs {
		if err := tx.Locks.LockStockLine(ctx, p.product, p.warehouse); err != nil {
			return err
		}
	}
	return nil
}

// ensureAllAvailable agrega las cantidades pedidas por par antes de comparar, para que dos
// líneas del mismo producto y bodega no pasen la verificación por separado.
func (s *StockService) ensureAllAvailable(ctx context.Context, tx *repository.Tx, lines []StockLine) error {
	type pair struct{ product, warehouse string }
	requested := make(map[pair]decimal.Decimal, len(lines))
	for _, l := range lines {
		p := pair{l.ProductID, l.WarehouseID}
		requested[p] = requested[p].Add(l.Quantity)
	}
	checked := make(map[pair]bool, len(lines))
	for _, l := range lines {
		p := pair{l.ProductID, l.WarehouseID}
		if checked[p] {
			continue
		}
		checked[p] = true
		agg := l
		agg.Quantity = requested[p]
		if err := s.ensureAvailable(ctx, tx, agg, false); err != nil {
			return err
		}
	}
	return nil
}

// ensureAvailable pliega el ledger dentro de la transacción (nunca la caché).
func (s *StockService) ensureAvailable(ctx context.Context, tx *repository.Tx, l StockLine, adjustment bool) error {
	byWarehouse, err := tx.Ledger.Fold(ctx, l.ProductID, l.WarehouseID)
	if err != nil {
		return err
	}
	available := byWarehouse[l.WarehouseID]
	if available.LessThan(l.Quantity) {
		return &domain.StockShortageError{
			Line:        l.Line,
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			Requested:   l.Quantity,
			Available:   available,
			Adjustment:  adjustment,
		}
	}
	return nil
}

func (s *StockService) checkScope(ctx context.Context, branchID, productID, warehouseID string) error {
	if productID == "" {
		return domain.NewValidationError("product_id", "es requerido")
	}
	if warehouseID == "" {
		return domain.NewValidationError("warehouse_id", "es requerido")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.NewValidationError("product_id", "producto inexistente")
	}
	wh, err := s.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return err
	}
	if wh == nil {
		return domain.NewValidationError("warehouse_id", "bodega inexistente")
	}
	if product.BranchID != branchID || wh.BranchID != branchID {
		return domain.ErrBranchMismatch
	}
	return nil
}

// emit publica el evento después del Commit; un fallo solo se registra.
func (s *StockService) emit(ctx context.Context, ev ports.AuditEvent) {
	if s.audit == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := s.audit.EmitAuditEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("action", ev.Action).Str("subject", ev.Subject).Msg("no se pudo emitir evento de auditoría")
	}
}

func (s *StockService) finish(span trace.Span, op string, err error) {
	result := ResultLabel(err)
	s.metrics.IncStockOp(op, result)
	if errors.Is(err, domain.ErrStockLockTimeout) {
		s.metrics.IncLockTimeout()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	span.End()
}

// ResultLabel clasifica un error para etiquetas de métricas y logs.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrStockLockTimeout):
		return "lock_timeout"
	case errors.Is(err, domain.ErrBranchMismatch):
		return "branch_mismatch"
	case errors.Is(err, domain.ErrDuplicateIdempotencyKey):
		return "duplicate"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAdjustment):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "error"
	}
}
