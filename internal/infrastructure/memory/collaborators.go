package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ResolveRate devuelve la tasa (%) del impuesto registrado con SeedTax.
func (s *Store) ResolveRate(_ context.Context, _ string, taxID string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.taxes[taxID]
	return rate, ok, nil
}

// Convert aplica la tasa de cambio registrada con SeedRate. Misma moneda = sin conversión.
func (s *Store) Convert(_ context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == "" || from == to {
		return amount, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rate, ok := s.rates[[2]string{from, to}]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: sin tasa de cambio %s→%s", domain.ErrInvalidInput, from, to)
	}
	return amount.Mul(rate), nil
}

// IsReconciled informa si la venta fue marcada con MarkReconciled.
func (s *Store) IsReconciled(_ context.Context, saleID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reconciled[saleID], nil
}

// ResolveUnitCost devuelve el costo registrado con SeedPurchaseCost para la línea de compra.
func (s *Store) ResolveUnitCost(_ context.Context, ref entity.Reference, productID string) (decimal.Decimal, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cost, ok := s.purchaseCosts[purchaseKey{ref.ID, productID}]
	return cost, ok, nil
}
