package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección de un movimiento del ledger.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Tipos de referencia que originan movimientos.
const (
	ReferenceSale       = "sale"
	ReferenceSaleReturn = "sale_return"
	ReferenceAdjustment = "adjustment"
	ReferenceTransfer   = "transfer"
	ReferencePurchase   = "purchase"
	ReferenceOpening    = "opening"
)

// Reference apunta al documento (venta, compra, ajuste) que causó el movimiento.
type Reference struct {
	Type string
	ID   string
}

// LedgerEntry es un registro inmutable de cambio de cantidad de un producto en una bodega.
// Quantity siempre es positiva; Direction codifica el signo. Nunca se actualiza ni se borra:
// las correcciones son nuevos movimientos en sentido contrario.
type LedgerEntry struct {
	ID          string
	Seq         int64 // orden total de inserción, usado para exportar por tramos
	ProductID   string
	WarehouseID string
	BranchID    string
	Direction   string
	Quantity    decimal.Decimal
	Reference   Reference
	UnitCost    *decimal.Decimal // opcional: costo de la línea de compra que originó la entrada
	Note        string
	CreatedAt   time.Time
	CreatedBy   string
}

// Signed devuelve la cantidad con signo (+ entrada, - salida).
func (e LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionOut {
		return e.Quantity.Neg()
	}
	return e.Quantity
}
