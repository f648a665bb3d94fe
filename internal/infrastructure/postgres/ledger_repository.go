package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/jhoicas/pos-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// ledgerSeqLockKey identifica el advisory lock que ordena la asignación de seq.
const ledgerSeqLockKey int64 = 0x6c6564676572

const ledgerColumns = `seq, id, product_id, warehouse_id, branch_id, direction, quantity,
	reference_type, reference_id, unit_cost, note, created_at, created_by`

// LedgerRepo implementación de LedgerRepository sobre PostgreSQL (usable con pool o tx).
// La tabla ledger_entries solo recibe INSERT.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append inserta el movimiento y completa entry.Seq con el valor asignado por la secuencia.
//
// La secuencia asigna seq al insertar, no al confirmar. El advisory lock de transacción se
// mantiene hasta el Commit, así ninguna otra transacción obtiene un seq mayor y confirma
// antes: una exportación que devolvió next_after=N nunca verá aparecer después un seq < N.
// Los bloqueos de stock_lines se toman antes que este, por eso el orden no genera deadlocks.
func (r *LedgerRepo) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerSeqLockKey); err != nil {
		if isLockTimeout(err) {
			return fmt.Errorf("%w: orden del ledger", domain.ErrStockLockTimeout)
		}
		return domain.Persistence("lock ledger sequence", err)
	}
	query := `
		INSERT INTO ledger_entries (id, product_id, warehouse_id, branch_id, direction, quantity,
			reference_type, reference_id, unit_cost, note, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		entry.ID, entry.ProductID, entry.WarehouseID, entry.BranchID, entry.Direction, entry.Quantity,
		entry.Reference.Type, entry.Reference.ID, entry.UnitCost, entry.Note, entry.CreatedAt, entry.CreatedBy,
	).Scan(&entry.Seq)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: producto o bodega inexistente", domain.ErrNotFound)
		}
		return domain.Persistence("insert ledger entry", err)
	}
	return nil
}

// List devuelve movimientos ordenados por seq. Los filtros vacíos no restringen.
func (r *LedgerRepo) List(ctx context.Context, q repository.LedgerQuery) ([]entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE ($1 = '' OR product_id = $1)
		  AND ($2 = '' OR warehouse_id = $2)
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND seq > $4
		ORDER BY seq
		LIMIT NULLIF($5, 0)`
	rows, err := r.q.Query(ctx, query, q.ProductID, q.WarehouseID, q.Since, q.AfterSeq, q.Limit)
	if err != nil {
		return nil, domain.Persistence("list ledger", err)
	}
	return collectEntries(rows)
}

// Fold pliega Σin − Σout agrupado por bodega. Dentro de una tx ve también las filas propias aún no confirmadas.
func (r *LedgerRepo) Fold(ctx context.Context, productID, warehouseID string) (map[string]decimal.Decimal, error) {
	query := `
		SELECT warehouse_id,
		       COALESCE(SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END), 0)
		FROM ledger_entries
		WHERE product_id = $1 AND ($2 = '' OR warehouse_id = $2)
		GROUP BY warehouse_id`
	rows, err := r.q.Query(ctx, query, productID, warehouseID)
	if err != nil {
		return nil, domain.Persistence("fold ledger", err)
	}
	defer rows.Close()
	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var wh string
		var qty decimal.Decimal
		if err := rows.Scan(&wh, &qty); err != nil {
			return nil, domain.Persistence("scan fold", err)
		}
		out[wh] = qty
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("fold ledger", err)
	}
	return out, nil
}

// RecentInbound devuelve las últimas limit entradas del producto, más recientes primero.
func (r *LedgerRepo) RecentInbound(ctx context.Context, productID string, limit int) ([]entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE product_id = $1 AND direction = 'in'
		ORDER BY seq DESC
		LIMIT $2`
	rows, err := r.q.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, domain.Persistence("recent inbound", err)
	}
	return collectEntries(rows)
}

// ListByReference lista los movimientos originados por un documento.
func (r *LedgerRepo) ListByReference(ctx context.Context, ref entity.Reference) ([]entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, ref.Type, ref.ID)
	if err != nil {
		return nil, domain.Persistence("list ledger by reference", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]entity.LedgerEntry, error) {
	defer rows.Close()
	var list []entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		if err := rows.Scan(
			&e.Seq, &e.ID, &e.ProductID, &e.WarehouseID, &e.BranchID, &e.Direction, &e.Quantity,
			&e.Reference.Type, &e.Reference.ID, &e.UnitCost, &e.Note, &e.CreatedAt, &e.CreatedBy,
		); err != nil {
			return nil, domain.Persistence("scan ledger entry", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Persistence("read ledger", err)
	}
	return list, nil
}
