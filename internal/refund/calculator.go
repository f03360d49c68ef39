// Package refund computes fair partial refunds for historical sales.
//
// A completed transaction stores per-line discounts and the final total,
// but not which share of the global discount or promotion landed on which
// line. The calculator reconstructs a proportional share: per-line
// discounts are re-applied prorated to the returned quantity, then the
// remaining cart-level reduction is spread uniformly over the
// post-item-discount value.
package refund

import "github.com/lumapos/backend-pos/internal/pricing"

// Transaction is the slice of a persisted sale the calculator needs:
// the frozen lines and the recorded final total.
type Transaction struct {
	Lines []pricing.LineItem
	Total pricing.Money
}

// Compute returns the refund owed for the requested quantities, keyed by
// line id. Quantities are clamped to [0, original] and the result is
// never negative; like the pricing engine this is a total function.
func Compute(tx Transaction, requested map[string]int) pricing.Money {
	if len(requested) == 0 || len(tx.Lines) == 0 {
		return 0
	}

	// Post-item-discount value of the whole original sale, same math the
	// engine used when the sale was priced.
	var afterItems pricing.Money
	for _, line := range tx.Lines {
		afterItems += line.LineTotal()
	}

	// The recorded total can only be at or below afterItems; anything else
	// is clamped so an inconsistent record cannot inflate the refund.
	paid := tx.Total
	if paid < 0 {
		paid = 0
	}
	if paid > afterItems {
		paid = afterItems
	}

	var refund pricing.Money
	for _, line := range tx.Lines {
		qty, ok := requested[line.ID]
		if !ok {
			continue
		}
		if qty > line.Quantity {
			qty = line.Quantity
		}
		if qty <= 0 || line.Quantity <= 0 {
			continue
		}

		base := line.EffectiveUnitPrice() * int64(qty)
		amount := base
		if d := line.Discount; d != nil {
			switch d.Kind {
			case pricing.DiscountPercent:
				amount = pricing.ApplyDiscount(base, d)
			case pricing.DiscountFixed:
				// The fixed amount covered the full original quantity;
				// prorate it before subtracting or partial returns would
				// hand back the whole discount every time.
				prorated := d.Value * int64(qty) / int64(line.Quantity)
				amount = pricing.ApplyDiscount(base, &pricing.Discount{Kind: pricing.DiscountFixed, Value: prorated})
			}
		}
		if amount <= 0 {
			continue
		}

		// Multiplier form of (1 - globalOrPromoRatio): paid/afterItems.
		if afterItems > 0 {
			amount = amount * paid / afterItems
		}
		refund += amount
	}

	if refund < 0 {
		return 0
	}
	return refund
}
