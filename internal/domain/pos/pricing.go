package pos

import (
	"github.com/jhoicas/pos-ledger/internal/domain"
	"github.com/jhoicas/pos-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput es una línea ya resuelta (precio en moneda base, tasa de impuesto en %).
type LineInput struct {
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	DiscountType  string
	DiscountValue decimal.Decimal
	TaxRate       decimal.Decimal
}

// LineAmounts son los montos de una línea, cada uno redondeado a 2 decimales.
type LineAmounts struct {
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Net       decimal.Decimal
	Tax       decimal.Decimal
	LineTotal decimal.Decimal
}

// Totals acumula montos de líneas ya redondeadas.
type Totals struct {
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
}

// ValidateDiscount verifica el rango del descuento de una línea.
func ValidateDiscount(line int, discountType string, value decimal.Decimal) error {
	switch discountType {
	case "", entity.DiscountPercent:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return domain.NewLineValidationError(line, "discount", "el porcentaje debe estar entre 0 y 100")
		}
	case entity.DiscountFixed:
		if value.IsNegative() {
			return domain.NewLineValidationError(line, "discount", "el monto no puede ser negativo")
		}
	default:
		return domain.NewLineValidationError(line, "discount_type", "debe ser percent o fixed")
	}
	return nil
}

// PriceLine calcula los montos de una línea:
//
//	subtotal  = round2(qty·precio)
//	neto      = round2(qty·precio·(1 − pct))   (o subtotal − monto fijo)
//	descuento = subtotal − neto
//	impuesto  = round2(neto·tasa/100)
//	total     = neto + impuesto
//
// Cada monto se redondea por línea para que el recibo sea auditable a mano.
func PriceLine(line int, in LineInput) (LineAmounts, error) {
	if !in.Quantity.IsPositive() {
		return LineAmounts{}, domain.NewLineValidationError(line, "qty", "debe ser mayor que cero")
	}
	if in.UnitPrice.IsNegative() {
		return LineAmounts{}, domain.NewLineValidationError(line, "price", "no puede ser negativo")
	}
	if in.TaxRate.IsNegative() {
		return LineAmounts{}, domain.NewLineValidationError(line, "tax", "tasa negativa")
	}
	if err := ValidateDiscount(line, in.DiscountType, in.DiscountValue); err != nil {
		return LineAmounts{}, err
	}

	gross := in.Quantity.Mul(in.UnitPrice)
	subtotal := gross.Round(2)
	var net decimal.Decimal
	switch in.DiscountType {
	case entity.DiscountFixed:
		fixed := in.DiscountValue.Round(2)
		if fixed.GreaterThan(subtotal) {
			return LineAmounts{}, domain.NewLineValidationError(line, "discount", "el descuento supera el subtotal de la línea")
		}
		net = subtotal.Sub(fixed)
	default:
		factor := hundred.Sub(in.DiscountValue).Div(hundred)
		net = gross.Mul(factor).Round(2)
	}
	tax := net.Mul(in.TaxRate).Div(hundred).Round(2)
	return LineAmounts{
		Subtotal:  subtotal,
		Discount:  subtotal.Sub(net),
		Net:       net,
		Tax:       tax,
		LineTotal: net.Add(tax),
	}, nil
}

// Add acumula una línea ya redondeada en los totales.
func (t Totals) Add(l LineAmounts) Totals {
	t.Subtotal = t.Subtotal.Add(l.Subtotal)
	t.DiscountTotal = t.DiscountTotal.Add(l.Discount)
	t.TaxTotal = t.TaxTotal.Add(l.Tax)
	t.GrandTotal = t.Subtotal.Sub(t.DiscountTotal).Add(t.TaxTotal)
	return t
}

// ApplyPayment devuelve el pagado aplicado (nunca mayor al total) y el cambio a devolver.
func ApplyPayment(grandTotal, paid decimal.Decimal) (applied, change decimal.Decimal) {
	if paid.IsNegative() {
		paid = decimal.Zero
	}
	if paid.GreaterThan(grandTotal) {
		return grandTotal, paid.Sub(grandTotal)
	}
	return paid, decimal.Zero
}
