package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemRequest línea del carrito. Price vacío = precio del producto.
type CartItemRequest struct {
	ProductID    string           `json:"product_id" validate:"required,max=64"`
	Quantity     decimal.Decimal  `json:"qty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	DiscountType string           `json:"discount_type,omitempty" validate:"omitempty,oneof=percent fixed"`
	Discount     decimal.Decimal  `json:"discount"`
	TaxID        string           `json:"tax_id,omitempty" validate:"max=64"`
}

// CheckoutRequest body para POST /api/pos/checkout.
type CheckoutRequest struct {
	WarehouseID    string            `json:"warehouse_id,omitempty" validate:"max=64"`
	CustomerID     string            `json:"customer_id,omitempty" validate:"max=64"`
	Currency       string            `json:"currency,omitempty" validate:"omitempty,len=3,uppercase"`
	Items          []CartItemRequest `json:"items" validate:"required,min=1,dive"`
	PaidAmount     decimal.Decimal   `json:"paid_amount"`
	IdempotencyKey string            `json:"idempotency_key,omitempty" validate:"max=128"`
	Note           string            `json:"note,omitempty" validate:"max=500"`
}

// SyncItemRequest una venta capturada offline.
type SyncItemRequest struct {
	IdempotencyKey string          `json:"idempotency_key" validate:"required,max=128"`
	Checkout       CheckoutRequest `json:"checkout"`
}

// SyncRequest body para POST /api/pos/sync.
type SyncRequest struct {
	Batch []SyncItemRequest `json:"batch" validate:"required,min=1,max=500,dive"`
}

// SyncItemResponse resultado por ítem: accepted, duplicate o rejected.
type SyncItemResponse struct {
	Index           int    `json:"index"`
	IdempotencyKey  string `json:"idempotency_key"`
	Status          string `json:"status"`
	SaleID          string `json:"sale_id,omitempty"`
	PayloadMismatch bool   `json:"payload_mismatch,omitempty"`
	Code            string `json:"code,omitempty"`
	Error           string `json:"error,omitempty"`
}

// SyncResponse resumen del lote.
type SyncResponse struct {
	Accepted  int                `json:"accepted"`
	Duplicate int                `json:"duplicate"`
	Rejected  int                `json:"rejected"`
	Results   []SyncItemResponse `json:"results"`
}

// ReturnLineRequest cantidad a devolver de una línea de la venta.
type ReturnLineRequest struct {
	Line     int             `json:"line" validate:"min=0"`
	Quantity decimal.Decimal `json:"qty"`
}

// ReturnRequest body para POST /api/pos/sales/:id/return.
type ReturnRequest struct {
	Lines []ReturnLineRequest `json:"lines" validate:"omitempty,dive"` // vacío = todo lo pendiente
	Note  string              `json:"note,omitempty" validate:"max=500"`
}

// VoidRequest body para POST /api/pos/sales/:id/void.
type VoidRequest struct {
	Note string `json:"note,omitempty" validate:"max=500"`
}

// SaleItemResponse línea de una venta.
type SaleItemResponse struct {
	Line          int             `json:"line"`
	ProductID     string          `json:"product_id"`
	Quantity      decimal.Decimal `json:"qty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	DiscountType  string          `json:"discount_type,omitempty"`
	Discount      decimal.Decimal `json:"discount"`
	TaxID         string          `json:"tax_id,omitempty"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Tax           decimal.Decimal `json:"tax"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	LineTotal     decimal.Decimal `json:"line_total"`
	LedgerEntryID string          `json:"ledger_entry_id,omitempty"`
}

// SaleResponse venta, devolución o anulación.
type SaleResponse struct {
	ID              string             `json:"id"`
	BranchID        string             `json:"branch_id"`
	WarehouseID     string             `json:"warehouse_id"`
	CustomerID      string             `json:"customer_id,omitempty"`
	Kind            string             `json:"kind"`
	ParentSaleID    string             `json:"parent_sale_id,omitempty"`
	Currency        string             `json:"currency"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	DiscountTotal   decimal.Decimal    `json:"discount_total"`
	TaxTotal        decimal.Decimal    `json:"tax_total"`
	GrandTotal      decimal.Decimal    `json:"grand_total"`
	PaidTotal       decimal.Decimal    `json:"paid_total"`
	Due             decimal.Decimal    `json:"due"`
	Change          decimal.Decimal    `json:"change"`
	Status          string             `json:"status"`
	IdempotencyKey  string             `json:"idempotency_key,omitempty"`
	Duplicate       bool               `json:"duplicate,omitempty"`
	PayloadMismatch bool               `json:"payload_mismatch,omitempty"`
	Items           []SaleItemResponse `json:"items"`
	CreatedAt       time.Time          `json:"created_at"`
}

// SaleDetailResponse venta con su estado derivado y los documentos de devolución/anulación.
type SaleDetailResponse struct {
	SaleResponse
	Documents []SaleResponse `json:"documents"`
}
