package pos

import (
	"context"

	"github.com/shopspring/decimal"
)

// TaxResolver resuelve la tasa (%) de un impuesto de la sucursal. ok=false si no existe.
type TaxResolver interface {
	ResolveRate(ctx context.Context, branchID, taxID string) (rate decimal.Decimal, ok bool, err error)
}

// CurrencyConverter normaliza precios a la moneda base de la sucursal antes de totalizar.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// PaymentReconciler informa si el pago de una venta ya fue conciliado con el proveedor.
// Una venta conciliada no puede anularse.
type PaymentReconciler interface {
	IsReconciled(ctx context.Context, saleID string) (bool, error)
}
