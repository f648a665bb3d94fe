package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest entrada para crear una bodega en la sucursal del token.
type CreateWarehouseRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	BranchID  string    `json:"branch_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WarehouseListResponse bodegas de la sucursal.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
}

// CreateProductRequest entrada para crear un producto. Cost inicia en 0 y lo mantiene el estimador.
type CreateProductRequest struct {
	SKU          string          `json:"sku" validate:"required,max=64"`
	Barcode      string          `json:"barcode,omitempty" validate:"max=64"`
	Name         string          `json:"name" validate:"required,max=200"`
	Price        decimal.Decimal `json:"price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID           string          `json:"id"`
	BranchID     string          `json:"branch_id"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode,omitempty"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Cost         decimal.Decimal `json:"cost"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
