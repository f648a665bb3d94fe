package inventory

import "github.com/shopspring/decimal"

// CostSample es una entrada del ledger con su costo unitario ya resuelto (0 si no se conoce).
type CostSample struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// MovingAverageCost implementa el costo promedio ponderado sobre la ventana de entradas:
// NuevoCosto = Σ(cant·costo) / Σcant, considerando solo muestras con costo > 0.
// Devuelve ok=false si ninguna muestra aporta costo positivo (no se divide por cero
// ni se arrastra el promedio hacia 0). El resultado se redondea a 2 decimales.
func MovingAverageCost(samples []CostSample) (decimal.Decimal, bool) {
	num := decimal.Zero
	den := decimal.Zero
	for _, s := range samples {
		if !s.UnitCost.IsPositive() || !s.Quantity.IsPositive() {
			continue
		}
		num = num.Add(s.Quantity.Mul(s.UnitCost))
		den = den.Add(s.Quantity)
	}
	if !den.IsPositive() {
		return decimal.Zero, false
	}
	return num.Div(den).Round(2), true
}
