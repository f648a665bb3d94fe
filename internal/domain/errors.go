package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound                = errors.New("recurso no encontrado")
	ErrInvalidInput            = errors.New("entrada inválida")
	ErrUnauthorized            = errors.New("no autorizado")
	ErrForbidden               = errors.New("acceso denegado")
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInvalidAdjustment       = errors.New("ajuste de inventario inválido")
	ErrStockLockTimeout        = errors.New("tiempo de espera agotado al bloquear stock")
	ErrBranchMismatch          = errors.New("referencia a otra sucursal")
	ErrDuplicateIdempotencyKey = errors.New("clave de idempotencia ya utilizada")
	ErrPersistence             = errors.New("fallo de persistencia")
	ErrInvalidState            = errors.New("transición de estado inválida")
)

// ValidationError describe una entrada mal formada. Line es el índice (base 0) de la
// línea del carrito cuando aplica, -1 en otro caso.
type ValidationError struct {
	Line   int
	Field  string
	Reason string
}

// NewValidationError construye un ValidationError que no pertenece a una línea.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Line: -1, Field: field, Reason: reason}
}

// NewLineValidationError construye un ValidationError asociado a una línea del carrito.
func NewLineValidationError(line int, field, reason string) *ValidationError {
	return &ValidationError{Line: line, Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("línea %d: %s: %s", e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// MaxScale es la cantidad de decimales que persisten cantidades, precios y costos.
const MaxScale = 4

// ScaleReason es el motivo de ValidationError cuando un valor excede MaxScale.
const ScaleReason = "admite máximo 4 decimales"

// ExceedsScale indica si v tiene decimales significativos más allá de MaxScale.
// Los ceros a la derecha no cuentan: 1.50000 es válido.
func ExceedsScale(v decimal.Decimal) bool {
	return !v.Equal(v.Truncate(MaxScale))
}

// StockShortageError indica que una operación dejaría la cantidad en negativo.
// Lleva el detalle que necesita el cliente para volver a pintar el carrito.
type StockShortageError struct {
	Line        int
	ProductID   string
	WarehouseID string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	// Adjustment marca los faltantes originados en un ajuste manual.
	Adjustment bool
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s en bodega %s: solicitado %s, disponible %s",
		e.ProductID, e.WarehouseID, e.Requested.String(), e.Available.String())
}

func (e *StockShortageError) Unwrap() []error {
	if e.Adjustment {
		return []error{ErrInsufficientStock, ErrInvalidAdjustment}
	}
	return []error{ErrInsufficientStock}
}

// PersistenceError envuelve una falla de la capa de almacenamiento.
type PersistenceError struct {
	Op  string
	Err error
}

// Persistence envuelve err como PersistenceError; devuelve nil si err es nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// IsDomainError informa si err pertenece a la taxonomía de errores del dominio.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrInsufficientStock,
		ErrInvalidAdjustment, ErrStockLockTimeout, ErrBranchMismatch,
		ErrDuplicateIdempotencyKey, ErrPersistence, ErrInvalidState,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
