package repository

// Tx agrupa los repositorios atados a una misma transacción de BD.
// Los hooks registrados con AfterCommit se ejecutan solo si la transacción confirma.
type Tx struct {
	Ledger     LedgerRepository
	Locks      StockLockRepository
	Products   ProductRepository
	Warehouses WarehouseRepository
	Sales      SaleRepository

	hooks []func()
}

// AfterCommit registra fn para ejecutarse tras un Commit exitoso.
func (t *Tx) AfterCommit(fn func()) {
	t.hooks = append(t.hooks, fn)
}

// Committed ejecuta los hooks registrados. Lo invoca el TxRunner después del Commit.
func (t *Tx) Committed() {
	for _, fn := range t.hooks {
		fn()
	}
	t.hooks = nil
}
