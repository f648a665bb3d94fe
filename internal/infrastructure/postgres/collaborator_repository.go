package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/pos-ledger/internal/application/inventory"
	"github.com/jhoicas/pos-ledger/internal/application/pos"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	_ pos.TaxResolver                = (*CatalogLookups)(nil)
	_ pos.CurrencyConverter          = (*CatalogLookups)(nil)
	_ pos.PaymentReconciler          = (*CatalogLookups)(nil)
	_ inventory.PurchaseCostResolver = (*CatalogLookups)(nil)
)

// CatalogLookups resuelve las consultas de solo lectura que el núcleo hace a módulos vecinos:
// impuestos, tasas de cambio, conciliación de pagos y líneas de compra.
type CatalogLookups struct {
	pool *pgxpool.Pool
}

// NewCatalogLookups construye el adaptador sobre el pool.
func NewCatalogLookups(pool *pgxpool.Pool) *CatalogLookups {
	return &CatalogLookups{pool: pool}
}

// ResolveRate devuelve la tasa (%) del impuesto de la sucursal. ok=false si no existe.
func (r *CatalogLookups) ResolveRate(ctx context.Context, branchID, taxID string) (decimal.Decimal, bool, error) {
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT rate FROM taxes WHERE id = $1 AND branch_id = $2`, taxID, branchID,
	).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, domain.Persistence("resolve tax", err)
	}
	return rate, true, nil
}

// Convert aplica la tasa vigente más reciente de from a to.
func (r *CatalogLookups) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == "" || from == to {
		return amount, nil
	}
	var rate decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT rate FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2
		ORDER BY effective_at DESC LIMIT 1`, from, to,
	).Scan(&rate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: sin tasa de cambio %s→%s", domain.ErrInvalidInput, from, to)
		}
		return decimal.Zero, domain.Persistence("resolve exchange rate", err)
	}
	return amount.Mul(rate), nil
}

// IsReconciled informa si el pago de la venta ya fue conciliado.
func (r *CatalogLookups) IsReconciled(ctx context.Context, saleID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_reconciliations WHERE sale_id = $1)`, saleID,
	).Scan(&ok)
	if err != nil {
		return false, domain.Persistence("check reconciliation", err)
	}
	return ok, nil
}

// ResolveUnitCost devuelve el costo unitario de la línea de compra referida por la entrada.
func (r *CatalogLookups) ResolveUnitCost(ctx context.Context, ref entity.Reference, productID string) (decimal.Decimal, bool, error) {
	var cost decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT unit_cost FROM purchase_lines WHERE purchase_id = $1 AND product_id = $2`, ref.ID, productID,
	).Scan(&cost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, domain.Persistence("resolve purchase cost", err)
	}
	return cost, true, nil
}
