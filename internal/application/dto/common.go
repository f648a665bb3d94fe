package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva el detalle estructurado (campo inválido,
// faltante de stock) cuando el cliente lo necesita para corregir la petición.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ShortageDetail detalle de un faltante de stock (409 INSUFFICIENT_STOCK).
type ShortageDetail struct {
	Line        int    `json:"line"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Requested   string `json:"requested"`
	Available   string `json:"available"`
}
