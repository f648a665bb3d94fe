package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.BranchRepository    = (*BranchRepo)(nil)
)

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO warehouses (id, branch_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		warehouse.ID, warehouse.BranchID, warehouse.Name, warehouse.CreatedAt,
	)
	if err != nil {
		return domain.Persistence("insert warehouse", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.q.QueryRow(ctx,
		`SELECT id, branch_id, name, created_at FROM warehouses WHERE id = $1`, id,
	).Scan(&w.ID, &w.BranchID, &w.Name, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get warehouse", err)
	}
	return &w, nil
}

// ListByBranch lista las bodegas de una sucursal por fecha de creación.
func (r *WarehouseRepo) ListByBranch(ctx context.Context, branchID string) ([]*entity.Warehouse, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, branch_id, name, created_at
		FROM warehouses WHERE branch_id = $1 ORDER BY created_at, id`, branchID)
	if err != nil {
		return nil, domain.Persistence("list warehouses", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.BranchID, &w.Name, &w.CreatedAt); err != nil {
			return nil, domain.Persistence("scan warehouse", err)
		}
		list = append(list, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list warehouses", err)
	}
	return list, nil
}

// BranchRepo lee el directorio de sucursales.
type BranchRepo struct {
	q Querier
}

// NewBranchRepository construye el adaptador de sucursales.
func NewBranchRepository(q Querier) *BranchRepo {
	return &BranchRepo{q: q}
}

// Create persiste una sucursal.
func (r *BranchRepo) Create(ctx context.Context, branch *entity.Branch) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO branches (id, name, base_currency, created_at) VALUES ($1, $2, $3, $4)`,
		branch.ID, branch.Name, branch.BaseCurrency, branch.CreatedAt,
	)
	if err != nil {
		return domain.Persistence("insert branch", err)
	}
	return nil
}

// GetByID obtiene una sucursal por ID.
func (r *BranchRepo) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	var b entity.Branch
	err := r.q.QueryRow(ctx,
		`SELECT id, name, base_currency, created_at FROM branches WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.BaseCurrency, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, domain.Persistence("get branch", err)
	}
	return &b, nil
}
