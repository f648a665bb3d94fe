package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// UpdateCost es la única mutación que hace el núcleo sobre el catálogo.
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	ListIDs(ctx context.Context, limit, offset int) ([]string, error)
	ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Product, error)
}
