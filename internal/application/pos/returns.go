package pos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	domainpos "github.com/jhoicas/pos-ledger/internal/domain/pos"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReturnLine pide devolver Quantity unidades de la línea Line de la venta original.
type ReturnLine struct {
	Line     int
	Quantity decimal.Decimal
}

// ReturnInput datos de una devolución. Sin líneas se devuelve todo lo pendiente.
type ReturnInput struct {
	BranchID string
	UserID   string
	SaleID   string
	Lines    []ReturnLine
	Note     string
}

// VoidInput datos de una anulación completa.
type VoidInput struct {
	BranchID string
	UserID   string
	SaleID   string
	Note     string
}

// Return registra una devolución parcial o total como un documento nuevo que reingresa el
// stock a la bodega de la venta. La venta original no se modifica.
func (e *Engine) Return(ctx context.Context, in ReturnInput) (doc *entity.Sale, err error) {
	ctx, span := e.tracer.Start(ctx, "pos.return", trace.WithAttributes(attribute.String("sale_id", in.SaleID)))
	defer func() { e.endSpan(span, err) }()

	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return nil, domain.NewLineValidationError(i, "qty", "debe ser mayor que cero")
		}
		if domain.ExceedsScale(l.Quantity) {
			return nil, domain.NewLineValidationError(i, "qty", domain.ScaleReason)
		}
	}

	err = e.tx.Run(ctx, func(tx *repository.Tx) error {
		orig, docs, err := e.lockOriginal(ctx, tx, in.BranchID, in.SaleID)
		if err != nil {
			return err
		}
		returned := returnedByLine(docs)
		requested, err := requestedByLine(orig, returned, in.Lines)
		if err != nil {
			return err
		}
		doc = e.newReversal(orig, in.UserID, in.Note, entity.SaleStatusReturned, requested, returned, docs)
		return e.persistReversal(ctx, tx, orig, doc)
	})
	if err != nil {
		return nil, err
	}
	e.emit(ctx, ports.AuditEvent{
		Action:     ports.AuditSaleReturned,
		Subject:    in.SaleID,
		BranchID:   in.BranchID,
		UserID:     in.UserID,
		Attributes: map[string]string{"return_id": doc.ID, "grand_total": doc.GrandTotal.StringFixed(2)},
	})
	return doc, nil
}

// Void revierte la venta completa. Se rechaza si ya tiene devoluciones o una anulación,
// o si su pago ya fue conciliado externamente.
func (e *Engine) Void(ctx context.Context, in VoidInput) (doc *entity.Sale, err error) {
	ctx, span := e.tracer.Start(ctx, "pos.void", trace.WithAttributes(attribute.String("sale_id", in.SaleID)))
	defer func() { e.endSpan(span, err) }()

	if e.reconciler != nil {
		reconciled, err := e.reconciler.IsReconciled(ctx, in.SaleID)
		if err != nil {
			return nil, err
		}
		if reconciled {
			return nil, fmt.Errorf("%w: el pago de la venta ya fue conciliado", domain.ErrInvalidState)
		}
	}

	err = e.tx.Run(ctx, func(tx *repository.Tx) error {
		orig, docs, err := e.lockOriginal(ctx, tx, in.BranchID, in.SaleID)
		if err != nil {
			return err
		}
		if len(docs) > 0 {
			return fmt.Errorf("%w: la venta tiene devoluciones registradas", domain.ErrInvalidState)
		}
		requested := make(map[int]decimal.Decimal, len(orig.Items))
		for _, it := range orig.Items {
			requested[it.Line] = it.Quantity
		}
		doc = e.newReversal(orig, in.UserID, in.Note, entity.SaleStatusVoided, requested, nil, nil)
		return e.persistReversal(ctx, tx, orig, doc)
	})
	if err != nil {
		return nil, err
	}
	e.emit(ctx, ports.AuditEvent{
		Action:     ports.AuditSaleVoided,
		Subject:    in.SaleID,
		BranchID:   in.BranchID,
		UserID:     in.UserID,
		Attributes: map[string]string{"void_id": doc.ID},
	})
	return doc, nil
}

// lockOriginal bloquea la venta original y devuelve sus documentos hijos.
func (e *Engine) lockOriginal(ctx context.Context, tx *repository.Tx, branchID, saleID string) (*entity.Sale, []*entity.Sale, error) {
	orig, err := tx.Sales.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}
	if orig == nil {
		return nil, nil, domain.ErrNotFound
	}
	if orig.BranchID != branchID {
		return nil, nil, domain.ErrBranchMismatch
	}
	if orig.Kind != entity.SaleKindSale || orig.Status != entity.SaleStatusCompleted {
		return nil, nil, fmt.Errorf("%w: solo se revierten ventas completadas", domain.ErrInvalidState)
	}
	docs, err := tx.Sales.ListByParent(ctx, saleID)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range docs {
		if d.Status == entity.SaleStatusVoided {
			return nil, nil, fmt.Errorf("%w: la venta ya fue anulada", domain.ErrInvalidState)
		}
	}
	return orig, docs, nil
}

func returnedByLine(docs []*entity.Sale) map[int]decimal.Decimal {
	out := make(map[int]decimal.Decimal)
	for _, d := range docs {
		for _, it := range d.Items {
			out[it.Line] = out[it.Line].Add(it.Quantity)
		}
	}
	return out
}

// requestedByLine agrega las líneas pedidas y verifica que no excedan lo pendiente.
func requestedByLine(orig *entity.Sale, returned map[int]decimal.Decimal, lines []ReturnLine) (map[int]decimal.Decimal, error) {
	sold := make(map[int]decimal.Decimal, len(orig.Items))
	for _, it := range orig.Items {
		sold[it.Line] = it.Quantity
	}
	requested := make(map[int]decimal.Decimal)
	if len(lines) == 0 {
		for line, qty := range sold {
			if pending := qty.Sub(returned[line]); pending.IsPositive() {
				requested[line] = pending
			}
		}
		if len(requested) == 0 {
			return nil, fmt.Errorf("%w: no hay unidades pendientes por devolver", domain.ErrInvalidState)
		}
		return requested, nil
	}
	for i, l := range lines {
		qty, ok := sold[l.Line]
		if !ok {
			return nil, domain.NewLineValidationError(i, "line", "la venta no tiene esa línea")
		}
		requested[l.Line] = requested[l.Line].Add(l.Quantity)
		if requested[l.Line].GreaterThan(qty.Sub(returned[l.Line])) {
			return nil, domain.NewLineValidationError(i, "qty", "excede la cantidad vendida pendiente de devolución")
		}
	}
	return requested, nil
}

// newReversal arma el documento de devolución/anulación. Los montos de cada línea son
// proporcionales a la cantidad; cuando se devuelve todo lo pendiente se usa el saldo exacto
// para que la suma de devoluciones coincida con la venta al centavo.
func (e *Engine) newReversal(orig *entity.Sale, userID, note, status string, requested, returned map[int]decimal.Decimal, docs []*entity.Sale) *entity.Sale {
	doc := &entity.Sale{
		ID:           uuid.New().String(),
		BranchID:     orig.BranchID,
		WarehouseID:  orig.WarehouseID,
		CustomerID:   orig.CustomerID,
		Kind:         entity.SaleKindReturn,
		ParentSaleID: orig.ID,
		Currency:     orig.Currency,
		Status:       status,
		Note:         note,
		CreatedAt:    e.now(),
		CreatedBy:    userID,
	}
	prior := priorAmounts(docs)
	var totals domainpos.Totals
	for _, it := range orig.Items {
		qty, ok := requested[it.Line]
		if !ok {
			continue
		}
		var amounts domainpos.LineAmounts
		if qty.Equal(it.Quantity.Sub(returned[it.Line])) {
			p := prior[it.Line]
			amounts.Subtotal = it.Subtotal.Sub(p.Subtotal)
			amounts.Discount = it.Discount.Sub(p.Discount)
			amounts.Tax = it.Tax.Sub(p.Tax)
		} else {
			ratio := qty.Div(it.Quantity)
			amounts.Subtotal = it.Subtotal.Mul(ratio).Round(2)
			amounts.Discount = it.Discount.Mul(ratio).Round(2)
			amounts.Tax = it.Tax.Mul(ratio).Round(2)
		}
		amounts.Net = amounts.Subtotal.Sub(amounts.Discount)
		amounts.LineTotal = amounts.Net.Add(amounts.Tax)
		totals = totals.Add(amounts)

		doc.Items = append(doc.Items, entity.SaleItem{
			ID:            uuid.New().String(),
			SaleID:        doc.ID,
			Line:          it.Line,
			ProductID:     it.ProductID,
			Quantity:      qty,
			UnitPrice:     it.UnitPrice,
			DiscountType:  it.DiscountType,
			DiscountValue: it.DiscountValue,
			Discount:      amounts.Discount,
			TaxID:         it.TaxID,
			TaxRate:       it.TaxRate,
			Tax:           amounts.Tax,
			Subtotal:      amounts.Subtotal,
			LineTotal:     amounts.LineTotal,
		})
	}
	doc.Subtotal = totals.Subtotal
	doc.DiscountTotal = totals.DiscountTotal
	doc.TaxTotal = totals.TaxTotal
	doc.GrandTotal = totals.GrandTotal
	doc.PaidTotal = totals.GrandTotal
	return doc
}

func priorAmounts(docs []*entity.Sale) map[int]domainpos.LineAmounts {
	out := make(map[int]domainpos.LineAmounts)
	for _, d := range docs {
		for _, it := range d.Items {
			a := out[it.Line]
			a.Subtotal = a.Subtotal.Add(it.Subtotal)
			a.Discount = a.Discount.Add(it.Discount)
			a.Tax = a.Tax.Add(it.Tax)
			out[it.Line] = a
		}
	}
	return out
}

// persistReversal reingresa el stock y guarda el documento en la transacción.
func (e *Engine) persistReversal(ctx context.Context, tx *repository.Tx, orig, doc *entity.Sale) error {
	lines := make([]inventory.StockLine, 0, len(doc.Items))
	for _, it := range doc.Items {
		lines = append(lines, inventory.StockLine{
			Line:        it.Line,
			ProductID:   it.ProductID,
			WarehouseID: orig.WarehouseID,
			Quantity:    it.Quantity,
		})
	}
	ref := entity.Reference{Type: entity.ReferenceSaleReturn, ID: doc.ID}
	entries, err := e.stock.RestoreForReturn(ctx, tx, doc.BranchID, doc.CreatedBy, ref, lines)
	if err != nil {
		return err
	}
	for i, entry := range entries {
		doc.Items[i].LedgerEntryID = entry.ID
	}
	return tx.Sales.Create(ctx, doc)
}

func (e *Engine) endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, inventory.ResultLabel(err))
	}
	span.End()
}
