package pricing

// applyLineDiscount reduces base by the provided discount, clamped so the
// result is never negative. Shared by the cart engine and the refund
// calculator.
func applyLineDiscount(base Money, d *Discount) Money {
	if d == nil || base <= 0 {
		return maxMoney(base, 0)
	}
	switch d.Kind {
	case DiscountPercent:
		bps := clampInt64(d.Value, 0, 10000)
		return base - base*bps/10000
	case DiscountFixed:
		return base - clampInt64(d.Value, 0, base)
	}
	return base
}

// ApplyDiscount exposes the shared discount primitive for callers that
// need the same clamping semantics outside the engine.
func ApplyDiscount(base Money, d *Discount) Money {
	return applyLineDiscount(base, d)
}

func (l LineItem) qty() int64 {
	if l.Quantity < 0 {
		return 0
	}
	return int64(l.Quantity)
}

// LineTotal is the line's value after its own discount, using the
// effective (possibly overridden) unit price.
func (l LineItem) LineTotal() Money {
	return applyLineDiscount(l.EffectiveUnitPrice()*l.qty(), l.Discount)
}

// ComputeTotals prices the cart. It is a total function: malformed input
// is clamped rather than rejected so the register stays usable.
func ComputeTotals(cart Cart) Totals {
	var subtotal, afterItems Money
	for _, line := range cart.Lines {
		subtotal += line.UnitPrice * line.qty()
		afterItems += line.LineTotal()
	}

	var reduction Money
	var promoLines map[string]Money
	switch cart.Adjustment.resolve() {
	case AdjustGlobal:
		d := cart.Adjustment.Global
		switch d.Kind {
		case DiscountPercent:
			reduction = afterItems * clampInt64(d.Value, 0, 10000) / 10000
		case DiscountFixed:
			reduction = clampInt64(d.Value, 0, afterItems)
		}
	case AdjustPromotion:
		if promo, ok := LookupPromotion(cart.Adjustment.Promotion); ok && promo.Applicable(cart.Lines) {
			reduction, promoLines = promo.Apply(cart.Lines)
		}
	case AdjustLoyalty:
		reduction = clampInt64(cart.Adjustment.Loyalty.Amount, 0, afterItems)
	}

	final := maxMoney(afterItems-reduction, 0)
	return Totals{
		Subtotal:       subtotal,
		TotalDiscount:  maxMoney(subtotal-final, 0),
		FinalTotal:     final,
		PromotionLines: promoLines,
	}
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxMoney(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}
