package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusDraft     = "draft"
	SaleStatusCompleted = "completed"
	SaleStatusReturned  = "returned"
	SaleStatusVoided    = "voided"
)

// Clases de documento de venta. Las devoluciones y anulaciones son documentos nuevos
// que apuntan a la venta original; la original nunca se modifica.
const (
	SaleKindSale   = "sale"
	SaleKindReturn = "return"
)

// Tipos de descuento por línea.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// Sale es la cabecera de una venta (o de su devolución/anulación).
// GrandTotal = Subtotal - DiscountTotal + TaxTotal, y PaidTotal nunca supera GrandTotal.
type Sale struct {
	ID             string
	BranchID       string
	WarehouseID    string
	CustomerID     string
	Kind           string
	ParentSaleID   string // solo en devoluciones/anulaciones
	Currency       string
	Subtotal       decimal.Decimal
	DiscountTotal  decimal.Decimal
	TaxTotal       decimal.Decimal
	GrandTotal     decimal.Decimal
	PaidTotal      decimal.Decimal
	ChangeDue      decimal.Decimal
	Status         string
	IdempotencyKey string
	PayloadHash    string
	Note           string
	Items          []SaleItem
	CreatedAt      time.Time
	CreatedBy      string
}

// Due devuelve el saldo pendiente; nunca es negativo.
func (s *Sale) Due() decimal.Decimal {
	due := s.GrandTotal.Sub(s.PaidTotal)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// SaleItem es una línea de venta. Inmutable una vez completada la venta.
type SaleItem struct {
	ID            string
	SaleID        string
	Line          int
	ProductID     string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	DiscountType  string
	DiscountValue decimal.Decimal // porcentaje o monto según DiscountType
	Discount      decimal.Decimal // monto descontado, redondeado
	TaxID         string
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Subtotal      decimal.Decimal // qty * unit_price redondeado
	LineTotal     decimal.Decimal // Subtotal - Discount + Tax
	LedgerEntryID string
}
