package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto. SKU y código de barras son únicos por sucursal.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, branch_id, sku, barcode, name, price, cost, tax_rate, minimum_stock, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.BranchID, product.SKU, product.Barcode, product.Name,
		product.Price, product.Cost, product.TaxRate, product.MinimumStock,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku o código de barras repetido en la sucursal", domain.ErrInvalidInput)
		}
		return domain.Persistence("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `
		SELECT id, branch_id, sku, COALESCE(barcode, ''), name, price, cost, tax_rate, minimum_stock, created_at, updated_at
		FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.BranchID, &p.SKU, &p.Barcode, &p.Name, &p.Price, &p.Cost, &p.TaxRate,
		&p.MinimumStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get product", err)
	}
	return &p, nil
}

// UpdateCost actualiza solo el costo promedio.
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET cost = $2, updated_at = $3 WHERE id = $1`,
		productID, cost, time.Now().UTC(),
	)
	if err != nil {
		return domain.Persistence("update product cost", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListIDs lista IDs de producto en orden estable, para recorridos por páginas.
func (r *ProductRepo) ListIDs(ctx context.Context, limit, offset int) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM products ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, domain.Persistence("list product ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, domain.Persistence("scan product ids", err)
	}
	return ids, nil
}

// ListByBranch pagina los productos de una sucursal ordenados por SKU.
func (r *ProductRepo) ListByBranch(ctx context.Context, branchID string, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, branch_id, sku, COALESCE(barcode, ''), name, price, cost, tax_rate, minimum_stock, created_at, updated_at
		FROM products WHERE branch_id = $1 ORDER BY sku LIMIT $2 OFFSET $3`, branchID, limit, offset)
	if err != nil {
		return nil, domain.Persistence("list products", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(
			&p.ID, &p.BranchID, &p.SKU, &p.Barcode, &p.Name, &p.Price, &p.Cost, &p.TaxRate,
			&p.MinimumStock, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, domain.Persistence("scan product", err)
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list products", err)
	}
	return list, nil
}
