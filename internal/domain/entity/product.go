package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU vendible de una sucursal.
// Cost es el costo promedio móvil que recalcula el estimador de costo; el stock no vive aquí,
// se obtiene plegando el ledger.
type Product struct {
	ID           string
	BranchID     string
	SKU          string // único por sucursal
	Barcode      string // único por sucursal (opcional)
	Name         string
	Price        decimal.Decimal // precio de venta por defecto
	Cost         decimal.Decimal // costo unitario promedio
	TaxRate      decimal.Decimal // porcentaje, ej: 19 = 19%
	MinimumStock decimal.Decimal // umbral de stock mínimo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
