package pos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/ports"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	domainpos "github.com/jhoicas/pos-ledger/internal/domain/pos"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/metrics"
	"github.com/jhoicas/pos-ledger/pkg/tracing"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxIdempotencyKeyLen = 128

// CartLine es una línea del carrito. Price nil usa el precio del producto.
type CartLine struct {
	ProductID    string
	Quantity     decimal.Decimal
	Price        *decimal.Decimal
	DiscountType string // percent (por defecto) o fixed
	Discount     decimal.Decimal
	TaxID        string // vacío = tasa del producto
}

// CheckoutInput datos de un checkout. BranchID y UserID los inyecta la capa HTTP.
// Currency es la moneda de los montos del carrito (precios, descuentos fijos y Paid);
// vacío = moneda base de la sucursal.
type CheckoutInput struct {
	BranchID       string
	UserID         string
	WarehouseID    string
	CustomerID     string
	Currency       string
	Items          []CartLine
	Paid           decimal.Decimal
	IdempotencyKey string
	Note           string
}

// EngineDeps agrupa los colaboradores del motor de checkout.
type EngineDeps struct {
	Tx         inventory.TxRunner
	Stock      *inventory.StockService
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Branches   repository.BranchRepository
	Sales      repository.SaleRepository
	Taxes      TaxResolver
	Currency   CurrencyConverter
	Reconciler PaymentReconciler
	Audit      ports.AuditEmitter
	Log        *logger.Logger
	Metrics    *metrics.Metrics
}

// Engine convierte carritos en ventas completadas y gestiona devoluciones y anulaciones.
// Cada operación es una sola transacción: venta, ítems y movimientos de stock se confirman
// juntos o no se confirma nada.
type Engine struct {
	tx         inventory.TxRunner
	stock      *inventory.StockService
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	branches   repository.BranchRepository
	sales      repository.SaleRepository
	taxes      TaxResolver
	currency   CurrencyConverter
	reconciler PaymentReconciler
	audit      ports.AuditEmitter
	log        *logger.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	now        func() time.Time
}

// NewEngine construye el motor. Taxes, Currency, Reconciler y Audit son opcionales.
func NewEngine(d EngineDeps) *Engine {
	return &Engine{
		tx:         d.Tx,
		stock:      d.Stock,
		products:   d.Products,
		warehouses: d.Warehouses,
		branches:   d.Branches,
		sales:      d.Sales,
		taxes:      d.Taxes,
		currency:   d.Currency,
		reconciler: d.Reconciler,
		audit:      d.Audit,
		log:        d.Log.Component("checkout"),
		metrics:    d.Metrics,
		tracer:     tracing.Tracer("pos"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// pricedCart es el carrito ya validado y totalizado, listo para la transacción.
type pricedCart struct {
	branch    *entity.Branch
	warehouse *entity.Warehouse
	items     []entity.SaleItem
	lines     []inventory.StockLine
	totals    domainpos.Totals
	paid      decimal.Decimal // en moneda base
}

// Checkout valida el carrito, descuenta stock y persiste la venta completada.
// Si cualquier línea no tiene stock suficiente no queda ningún rastro del intento.
func (e *Engine) Checkout(ctx context.Context, in CheckoutInput) (sale *entity.Sale, err error) {
	ctx, span := e.tracer.Start(ctx, "pos.checkout", trace.WithAttributes(
		attribute.String("branch_id", in.BranchID),
		attribute.Int("items", len(in.Items)),
	))
	defer func() {
		result := inventory.ResultLabel(err)
		e.metrics.IncCheckout(result)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		span.End()
	}()

	cart, err := e.priceCart(ctx, in)
	if err != nil {
		return nil, err
	}

	paid, change := domainpos.ApplyPayment(cart.totals.GrandTotal, cart.paid)
	sale = &entity.Sale{
		ID:             uuid.New().String(),
		BranchID:       in.BranchID,
		WarehouseID:    cart.warehouse.ID,
		CustomerID:     in.CustomerID,
		Kind:           entity.SaleKindSale,
		Currency:       cart.branch.BaseCurrency,
		Subtotal:       cart.totals.Subtotal,
		DiscountTotal:  cart.totals.DiscountTotal,
		TaxTotal:       cart.totals.TaxTotal,
		GrandTotal:     cart.totals.GrandTotal,
		PaidTotal:      paid,
		ChangeDue:      change,
		Status:         entity.SaleStatusCompleted,
		IdempotencyKey: in.IdempotencyKey,
		PayloadHash:    PayloadHash(in),
		Note:           in.Note,
		Items:          cart.items,
		CreatedAt:      e.now(),
		CreatedBy:      in.UserID,
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}

	err = e.tx.Run(ctx, func(tx *repository.Tx) error {
		ref := entity.Reference{Type: entity.ReferenceSale, ID: sale.ID}
		entries, err := e.stock.ConsumeForSale(ctx, tx, in.BranchID, in.UserID, ref, cart.lines)
		if err != nil {
			return err
		}
		for i, entry := range entries {
			sale.Items[i].LedgerEntryID = entry.ID
		}
		return tx.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, ports.AuditEvent{
		Action:   ports.AuditSaleCompleted,
		Subject:  sale.ID,
		BranchID: sale.BranchID,
		UserID:   sale.CreatedBy,
		Attributes: map[string]string{
			"grand_total": sale.GrandTotal.StringFixed(2),
			"currency":    sale.Currency,
		},
	})
	return sale, nil
}

// priceCart resuelve productos, precios e impuestos y calcula montos por línea.
func (e *Engine) priceCart(ctx context.Context, in CheckoutInput) (*pricedCart, error) {
	if in.BranchID == "" {
		return nil, domain.NewValidationError("branch_id", "es requerido")
	}
	if len(in.Items) == 0 {
		return nil, domain.NewValidationError("items", "el carrito está vacío")
	}
	if len(in.IdempotencyKey) > maxIdempotencyKeyLen {
		return nil, domain.NewValidationError("idempotency_key", "demasiado larga")
	}
	if in.Paid.IsNegative() {
		return nil, domain.NewValidationError("paid_amount", "no puede ser negativo")
	}

	branch, err := e.branches.GetByID(ctx, in.BranchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NewValidationError("branch_id", "sucursal inexistente")
	}
	warehouse, err := e.resolveWarehouse(ctx, in.BranchID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	paid := in.Paid
	if !paid.IsZero() {
		paid, err = e.toBaseCurrency(ctx, in.Paid, in.Currency, branch.BaseCurrency)
		if err != nil {
			return nil, domain.NewValidationError("paid_amount", err.Error())
		}
	}

	cart := &pricedCart{
		branch:    branch,
		warehouse: warehouse,
		items:     make([]entity.SaleItem, 0, len(in.Items)),
		lines:     make([]inventory.StockLine, 0, len(in.Items)),
		paid:      paid.Round(2),
	}
	for i, line := range in.Items {
		if line.ProductID == "" {
			return nil, domain.NewLineValidationError(i, "product_id", "es requerido")
		}
		if !line.Quantity.IsPositive() {
			return nil, domain.NewLineValidationError(i, "qty", "debe ser mayor que cero")
		}
		if domain.ExceedsScale(line.Quantity) {
			return nil, domain.NewLineValidationError(i, "qty", domain.ScaleReason)
		}
		if line.Price != nil && domain.ExceedsScale(*line.Price) {
			return nil, domain.NewLineValidationError(i, "price", domain.ScaleReason)
		}
		if domain.ExceedsScale(line.Discount) {
			return nil, domain.NewLineValidationError(i, "discount", domain.ScaleReason)
		}
		product, err := e.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.NewLineValidationError(i, "product_id", "producto inexistente")
		}
		if product.BranchID != in.BranchID {
			return nil, fmt.Errorf("línea %d: %w", i, domain.ErrBranchMismatch)
		}

		price := product.Price
		if line.Price != nil {
			price, err = e.toBaseCurrency(ctx, *line.Price, in.Currency, branch.BaseCurrency)
			if err != nil {
				return nil, domain.NewLineValidationError(i, "price", err.Error())
			}
		}
		rate, ok, err := e.taxRate(ctx, in.BranchID, line.TaxID, product)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NewLineValidationError(i, "tax_id", "impuesto inexistente")
		}

		discountType := line.DiscountType
		if discountType == "" {
			discountType = entity.DiscountPercent
		}
		// Un descuento fijo es un monto: va en la moneda del carrito como el precio.
		discount := line.Discount
		if discountType == entity.DiscountFixed {
			discount, err = e.toBaseCurrency(ctx, line.Discount, in.Currency, branch.BaseCurrency)
			if err != nil {
				return nil, domain.NewLineValidationError(i, "discount", err.Error())
			}
		}
		amounts, err := domainpos.PriceLine(i, domainpos.LineInput{
			Quantity:      line.Quantity,
			UnitPrice:     price,
			DiscountType:  discountType,
			DiscountValue: discount,
			TaxRate:       rate,
		})
		if err != nil {
			return nil, err
		}

		cart.totals = cart.totals.Add(amounts)
		cart.items = append(cart.items, entity.SaleItem{
			ID:            uuid.New().String(),
			Line:          i,
			ProductID:     product.ID,
			Quantity:      line.Quantity,
			UnitPrice:     price,
			DiscountType:  discountType,
			DiscountValue: discount,
			Discount:      amounts.Discount,
			TaxID:         line.TaxID,
			TaxRate:       rate,
			Tax:           amounts.Tax,
			Subtotal:      amounts.Subtotal,
			LineTotal:     amounts.LineTotal,
		})
		cart.lines = append(cart.lines, inventory.StockLine{
			Line:        i,
			ProductID:   product.ID,
			WarehouseID: warehouse.ID,
			Quantity:    line.Quantity,
		})
	}
	return cart, nil
}

// resolveWarehouse usa la bodega pedida o, si la sucursal tiene una sola, esa.
func (e *Engine) resolveWarehouse(ctx context.Context, branchID, warehouseID string) (*entity.Warehouse, error) {
	if warehouseID == "" {
		list, err := e.warehouses.ListByBranch(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if len(list) != 1 {
			return nil, domain.NewValidationError("warehouse_id", "es requerido cuando la sucursal tiene varias bodegas")
		}
		return list[0], nil
	}
	wh, err := e.warehouses.GetByID(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.NewValidationError("warehouse_id", "bodega inexistente")
	}
	if wh.BranchID != branchID {
		return nil, domain.ErrBranchMismatch
	}
	return wh, nil
}

func (e *Engine) toBaseCurrency(ctx context.Context, amount decimal.Decimal, from, base string) (decimal.Decimal, error) {
	if from == "" || from == base {
		return amount, nil
	}
	if e.currency == nil {
		return decimal.Zero, fmt.Errorf("conversión de %s a %s no disponible", from, base)
	}
	return e.currency.Convert(ctx, amount, from, base)
}

// taxRate usa el impuesto de la línea si viene; si no, la tasa del producto.
func (e *Engine) taxRate(ctx context.Context, branchID, taxID string, product *entity.Product) (decimal.Decimal, bool, error) {
	if taxID == "" || e.taxes == nil {
		return product.TaxRate, true, nil
	}
	return e.taxes.ResolveRate(ctx, branchID, taxID)
}

// SaleDetail es una venta con sus devoluciones y anulaciones. Status es el estado derivado.
type SaleDetail struct {
	Sale      *entity.Sale
	Status    string
	Documents []*entity.Sale
}

// GetSale devuelve la venta de la sucursal con su estado derivado de los documentos hijos.
func (e *Engine) GetSale(ctx context.Context, branchID, saleID string) (*SaleDetail, error) {
	sale, err := e.sales.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.ErrNotFound
	}
	if sale.BranchID != branchID {
		return nil, domain.ErrBranchMismatch
	}
	docs, err := e.sales.ListByParent(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SaleDetail{Sale: sale, Status: DerivedStatus(sale, docs), Documents: docs}, nil
}

// DerivedStatus calcula el estado vigente de una venta: voided si tiene una anulación,
// returned si tiene alguna devolución, o el estado registrado en otro caso.
func DerivedStatus(sale *entity.Sale, docs []*entity.Sale) string {
	status := sale.Status
	for _, d := range docs {
		switch d.Status {
		case entity.SaleStatusVoided:
			return entity.SaleStatusVoided
		case entity.SaleStatusReturned:
			status = entity.SaleStatusReturned
		}
	}
	return status
}

func (e *Engine) emit(ctx context.Context, ev ports.AuditEvent) {
	if e.audit == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now()
	}
	if err := e.audit.EmitAuditEvent(ctx, ev); err != nil {
		e.log.Warn().Err(err).Str("action", ev.Action).Str("subject", ev.Subject).Msg("no se pudo emitir evento de auditoría")
	}
}
