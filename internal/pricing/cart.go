package pricing

// State transitions over the cart. All of them are pure: the receiver is
// copied and the mutated copy returned, so callers can price on every
// keystroke and discard intermediate states freely.

func (c Cart) cloneLines() []LineItem {
	lines := make([]LineItem, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}

// AddLine appends an item to the cart. An unmodified product already
// present merges by quantity; ad hoc items (no product id) and modified
// lines always occupy their own line.
func (c Cart) AddLine(item LineItem) Cart {
	lines := c.cloneLines()
	if item.ProductID != "" && !item.Modified() {
		for i, l := range lines {
			if l.ProductID == item.ProductID && !l.Modified() && l.UnitPrice == item.UnitPrice {
				lines[i].Quantity += item.Quantity
				c.Lines = lines
				return c
			}
		}
	}
	c.Lines = append(lines, item)
	return c
}

// WithItemDiscount sets or clears (nil) the discount on one line.
func (c Cart) WithItemDiscount(lineID string, d *Discount) Cart {
	lines := c.cloneLines()
	for i, l := range lines {
		if l.ID == lineID {
			lines[i].Discount = d
			break
		}
	}
	c.Lines = lines
	return c
}

// WithPriceOverride sets or clears (nil) an authorized price override on
// one line. Overriding a price clears the line's discount: the two are
// mutually exclusive and last action wins.
func (c Cart) WithPriceOverride(lineID string, price *Money) Cart {
	lines := c.cloneLines()
	for i, l := range lines {
		if l.ID == lineID {
			lines[i].OverriddenPrice = price
			if price != nil {
				lines[i].Discount = nil
			}
			break
		}
	}
	c.Lines = lines
	return c
}

// WithGlobalDiscount applies a whole-cart discount. A positive discount
// replaces any active promotion or loyalty redemption; nil or a
// non-positive value clears only an active global discount.
func (c Cart) WithGlobalDiscount(d *Discount) Cart {
	if d != nil && d.Value > 0 {
		c.Adjustment = Adjustment{Kind: AdjustGlobal, Global: *d}
		return c
	}
	if c.Adjustment.Kind == AdjustGlobal {
		c.Adjustment = Adjustment{Kind: AdjustNone}
	}
	return c
}

// WithPromotion activates a promotion, replacing any global or loyalty
// adjustment. The empty id clears only an active promotion.
func (c Cart) WithPromotion(id PromotionID) Cart {
	if id != "" {
		c.Adjustment = Adjustment{Kind: AdjustPromotion, Promotion: id}
		return c
	}
	if c.Adjustment.Kind == AdjustPromotion {
		c.Adjustment = Adjustment{Kind: AdjustNone}
	}
	return c
}

// WithLoyaltyDiscount applies a points redemption, replacing any global
// discount or promotion. A non-positive amount clears only an active
// loyalty redemption.
func (c Cart) WithLoyaltyDiscount(l LoyaltyDiscount) Cart {
	if l.Amount > 0 {
		c.Adjustment = Adjustment{Kind: AdjustLoyalty, Loyalty: l}
		return c
	}
	if c.Adjustment.Kind == AdjustLoyalty {
		c.Adjustment = Adjustment{Kind: AdjustNone}
	}
	return c
}
