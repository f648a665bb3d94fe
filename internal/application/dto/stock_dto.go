package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustStockRequest body para POST /api/stock/adjust. Qty con signo.
// ReferenceType permite registrar entradas de compra o saldo inicial con su costo.
type AdjustStockRequest struct {
	ProductID     string           `json:"product_id" validate:"required,max=64"`
	WarehouseID   string           `json:"warehouse_id" validate:"required,max=64"`
	Qty           decimal.Decimal  `json:"qty"`
	Note          string           `json:"note" validate:"max=500"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceType string           `json:"reference_type,omitempty" validate:"omitempty,oneof=adjustment purchase opening"`
	ReferenceID   string           `json:"reference_id,omitempty" validate:"required_with=ReferenceType,max=64"`
}

// TransferStockRequest body para POST /api/stock/transfer.
type TransferStockRequest struct {
	ProductID     string          `json:"product_id" validate:"required,max=64"`
	Qty           decimal.Decimal `json:"qty"`
	FromWarehouse string          `json:"from_warehouse" validate:"required,max=64"`
	ToWarehouse   string          `json:"to_warehouse" validate:"required,max=64,nefield=FromWarehouse"`
	Note          string          `json:"note" validate:"max=500"`
}

// LedgerEntryResponse movimiento del ledger expuesto por la API.
type LedgerEntryResponse struct {
	ID            string           `json:"id"`
	Seq           int64            `json:"seq"`
	ProductID     string           `json:"product_id"`
	WarehouseID   string           `json:"warehouse_id"`
	Direction     string           `json:"direction"`
	Quantity      decimal.Decimal  `json:"quantity"`
	ReferenceType string           `json:"reference_type"`
	ReferenceID   string           `json:"reference_id"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Note          string           `json:"note,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	CreatedBy     string           `json:"created_by,omitempty"`
}

// TransferResponse par de movimientos de un traslado.
type TransferResponse struct {
	Out LedgerEntryResponse `json:"out"`
	In  LedgerEntryResponse `json:"in"`
}

// LedgerPageQuery query de GET /api/stock/ledger.
type LedgerPageQuery struct {
	ProductID   string `query:"product_id" validate:"required"`
	WarehouseID string `query:"warehouse_id"`
	Since       string `query:"since" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	After       int64  `query:"after" validate:"min=0"`
	Limit       int    `query:"limit" validate:"min=0,max=1000"`
}

// LedgerPageResponse página del ledger. NextAfter se pasa como after para continuar.
type LedgerPageResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextAfter int64                 `json:"next_after"`
}

// CurrentStockResponse cantidad proyectada de un producto (en una bodega o en toda la sucursal).
type CurrentStockResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
}

// WarehouseStockResponse desglose por bodega.
type WarehouseStockResponse struct {
	ProductID  string                     `json:"product_id"`
	Warehouses map[string]decimal.Decimal `json:"warehouses"`
}

// RecomputeCostRequest body para POST /api/stock/cost/recompute. Sin product_id recalcula todo.
type RecomputeCostRequest struct {
	ProductID string `json:"product_id" validate:"max=64"`
}
