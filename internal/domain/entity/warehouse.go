package entity

import "time"

// Warehouse representa una bodega: ubicación con stock que pertenece a exactamente una sucursal.
type Warehouse struct {
	ID        string
	BranchID  string
	Name      string
	CreatedAt time.Time
}
