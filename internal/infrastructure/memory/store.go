// Package memory implementa los puertos de persistencia en memoria de proceso.
// Respeta las mismas garantías que el adaptador PostgreSQL (bloqueo por línea de stock con
// timeout, transacciones todo-o-nada, unicidad de clave de idempotencia) y se usa en pruebas
// y con STORE_DRIVER=memory.
package memory

import (
	"sync"
	"time"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const defaultLockTimeout = 5 * time.Second

type idemKey struct {
	branchID string
	key      string
}

type purchaseKey struct {
	referenceID string
	productID   string
}

// Store guarda el estado confirmado. Las transacciones acumulan sus escrituras aparte y
// las aplican bajo mu al confirmar.
type Store struct {
	mu sync.RWMutex

	branches     map[string]*entity.Branch
	warehouses   map[string]*entity.Warehouse
	products     map[string]*entity.Product
	productOrder []string

	ledger    []entity.LedgerEntry
	byProduct map[string][]int

	sales       map[string]*entity.Sale
	byParent    map[string][]string
	idempotency map[idemKey]string

	taxes         map[string]decimal.Decimal
	rates         map[[2]string]decimal.Decimal
	reconciled    map[string]bool
	purchaseCosts map[purchaseKey]decimal.Decimal

	lockTimeout time.Duration
	locks       *lockTable
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout fija el tiempo máximo de espera por el bloqueo de una línea de stock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New crea un Store vacío.
func New(opts ...Option) *Store {
	s := &Store{
		branches:      make(map[string]*entity.Branch),
		warehouses:    make(map[string]*entity.Warehouse),
		products:      make(map[string]*entity.Product),
		byProduct:     make(map[string][]int),
		sales:         make(map[string]*entity.Sale),
		byParent:      make(map[string][]string),
		idempotency:   make(map[idemKey]string),
		taxes:         make(map[string]decimal.Decimal),
		rates:         make(map[[2]string]decimal.Decimal),
		reconciled:    make(map[string]bool),
		purchaseCosts: make(map[purchaseKey]decimal.Decimal),
		lockTimeout:   defaultLockTimeout,
		locks:         newLockTable(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger devuelve el repositorio de ledger fuera de transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

// Products devuelve el repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Warehouses devuelve el repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Branches devuelve el repositorio de sucursales.
func (s *Store) Branches() *BranchRepo { return &BranchRepo{s: s} }

// Sales devuelve el repositorio de ventas fuera de transacción.
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }
