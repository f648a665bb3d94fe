package entity

import "time"

// Branch es la sucursal que delimita productos, bodegas, ventas y movimientos.
type Branch struct {
	ID           string
	Name         string
	BaseCurrency string // ISO 4217, ej: COP
	CreatedAt    time.Time
}
