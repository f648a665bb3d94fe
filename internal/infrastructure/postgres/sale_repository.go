package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, branch_id, warehouse_id, COALESCE(customer_id, ''), kind, COALESCE(parent_sale_id, ''),
	currency, subtotal, discount_total, tax_total, grand_total, paid_total, change_due, status,
	COALESCE(idempotency_key, ''), payload_hash, note, created_at, created_by`

// SaleRepo implementación de SaleRepository (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// Create persiste cabecera e ítems. La unicidad (branch_id, idempotency_key) la garantiza un índice.
// Dentro de una tx, una violación deja la transacción abortada: quien llama debe releer fuera de ella.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	query := `
		INSERT INTO sales (id, branch_id, warehouse_id, customer_id, kind, parent_sale_id, currency,
			subtotal, discount_total, tax_total, grand_total, paid_total, change_due, status,
			idempotency_key, payload_hash, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		sale.ID, sale.BranchID, sale.WarehouseID, nullIfEmpty(sale.CustomerID), sale.Kind,
		nullIfEmpty(sale.ParentSaleID), sale.Currency,
		sale.Subtotal, sale.DiscountTotal, sale.TaxTotal, sale.GrandTotal, sale.PaidTotal, sale.ChangeDue,
		sale.Status, nullIfEmpty(sale.IdempotencyKey), sale.PayloadHash, sale.Note,
		sale.CreatedAt, sale.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateIdempotencyKey
		}
		return domain.Persistence("insert sale", err)
	}

	for i := range sale.Items {
		it := &sale.Items[i]
		it.SaleID = sale.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, line, product_id, quantity, unit_price, discount_type,
				discount_value, discount, tax_id, tax_rate, tax, subtotal, line_total, ledger_entry_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			it.ID, it.SaleID, it.Line, it.ProductID, it.Quantity, it.UnitPrice, it.DiscountType,
			it.DiscountValue, it.Discount, it.TaxID, it.TaxRate, it.Tax, it.Subtotal, it.LineTotal,
			nullIfEmpty(it.LedgerEntryID),
		)
		if err != nil {
			return domain.Persistence(fmt.Sprintf("insert sale item %d", it.Line), err)
		}
	}
	return nil
}

// GetByID obtiene la venta con sus ítems. Devuelve (nil, nil) si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
}

// GetByIdempotencyKey busca la venta registrada con la clave en la sucursal.
func (r *SaleRepo) GetByIdempotencyKey(ctx context.Context, branchID, key string) (*entity.Sale, error) {
	return r.getOne(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE branch_id = $1 AND idempotency_key = $2`, branchID, key)
}

// GetForUpdate obtiene la venta y bloquea la fila (SELECT FOR UPDATE).
func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	sale, err := r.getOne(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
	if err != nil && isLockTimeout(err) {
		return nil, fmt.Errorf("%w: venta %s", domain.ErrStockLockTimeout, id)
	}
	return sale, err
}

// ListByParent devuelve devoluciones y anulaciones de una venta en orden de registro.
func (r *SaleRepo) ListByParent(ctx context.Context, parentID string) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE parent_sale_id = $1 ORDER BY created_at, id`, parentID)
	if err != nil {
		return nil, domain.Persistence("list sales by parent", err)
	}
	defer rows.Close()
	var list []*entity.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, domain.Persistence("scan sale", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list sales by parent", err)
	}
	rows.Close()
	for _, s := range list {
		if s.Items, err = r.items(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *SaleRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Sale, error) {
	sale, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if isLockTimeout(err) {
			return nil, err
		}
		return nil, domain.Persistence("get sale", err)
	}
	if sale.Items, err = r.items(ctx, sale.ID); err != nil {
		return nil, err
	}
	return sale, nil
}

func (r *SaleRepo) items(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, line, product_id, quantity, unit_price, discount_type, discount_value,
		       discount, tax_id, tax_rate, tax, subtotal, line_total, COALESCE(ledger_entry_id, '')
		FROM sale_items WHERE sale_id = $1 ORDER BY line`, saleID)
	if err != nil {
		return nil, domain.Persistence("list sale items", err)
	}
	defer rows.Close()
	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(
			&it.ID, &it.SaleID, &it.Line, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.DiscountType,
			&it.DiscountValue, &it.Discount, &it.TaxID, &it.TaxRate, &it.Tax, &it.Subtotal, &it.LineTotal,
			&it.LedgerEntryID,
		); err != nil {
			return nil, domain.Persistence("scan sale item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("list sale items", err)
	}
	return items, nil
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(
		&s.ID, &s.BranchID, &s.WarehouseID, &s.CustomerID, &s.Kind, &s.ParentSaleID,
		&s.Currency, &s.Subtotal, &s.DiscountTotal, &s.TaxTotal, &s.GrandTotal, &s.PaidTotal, &s.ChangeDue,
		&s.Status, &s.IdempotencyKey, &s.PayloadHash, &s.Note, &s.CreatedAt, &s.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
