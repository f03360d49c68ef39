package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// DiscountKind enumerates the supported discount shapes.
type DiscountKind string

const (
	// DiscountPercent discounts are expressed in basis points (1000 = 10%).
	DiscountPercent DiscountKind = "percent"
	// DiscountFixed discounts are a flat amount in minor units for the whole line.
	DiscountFixed DiscountKind = "fixed"
)

// Discount describes a percentage or fixed reduction.
type Discount struct {
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}

// LineItem is one row of a cart or of a completed transaction.
//
// ID identifies the line, not the product: adding the same product twice
// without modification merges into one line, while an overridden or
// discounted product occupies its own line.
type LineItem struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"productId,omitempty"`
	Name            string    `json:"name"`
	Category        string    `json:"category,omitempty"`
	UnitPrice       Money     `json:"unitPrice"`
	Quantity        int       `json:"qty"`
	OverriddenPrice *Money    `json:"overriddenPrice,omitempty"`
	Discount        *Discount `json:"discount,omitempty"`
}

// EffectiveUnitPrice returns the overridden price when present, otherwise
// the catalog unit price.
func (l LineItem) EffectiveUnitPrice() Money {
	if l.OverriddenPrice != nil {
		return *l.OverriddenPrice
	}
	return l.UnitPrice
}

// Modified reports whether the line carries a price override or discount.
func (l LineItem) Modified() bool {
	return l.OverriddenPrice != nil || l.Discount != nil
}

// LoyaltyDiscount is a precomputed currency reduction from redeeming
// customer points. The caller validates the balance; the engine only
// applies the amount.
type LoyaltyDiscount struct {
	Amount Money `json:"amount"`
	Points int   `json:"pointsToRedeem"`
}

// AdjustmentKind tags the cart-level reduction variant.
type AdjustmentKind string

const (
	AdjustNone      AdjustmentKind = "none"
	AdjustGlobal    AdjustmentKind = "global"
	AdjustPromotion AdjustmentKind = "promotion"
	AdjustLoyalty   AdjustmentKind = "loyalty"
)

// Adjustment holds at most one cart-level reduction. Representing the
// three as a single tagged variant makes the exclusivity invariant
// structural instead of convention-enforced.
type Adjustment struct {
	Kind      AdjustmentKind  `json:"kind"`
	Global    Discount        `json:"global,omitempty"`
	Promotion PromotionID     `json:"promotion,omitempty"`
	Loyalty   LoyaltyDiscount `json:"loyalty,omitempty"`
}

// resolve normalises an adjustment built by hand rather than through the
// cart setters. Precedence when several payloads are populated: manual
// global discount beats promotion beats loyalty.
func (a Adjustment) resolve() AdjustmentKind {
	switch a.Kind {
	case AdjustGlobal, AdjustPromotion, AdjustLoyalty, AdjustNone:
		return a.Kind
	}
	if a.Global.Value > 0 {
		return AdjustGlobal
	}
	if a.Promotion != "" {
		return AdjustPromotion
	}
	if a.Loyalty.Amount > 0 {
		return AdjustLoyalty
	}
	return AdjustNone
}

// Cart is the ephemeral state of an open sale.
type Cart struct {
	Lines      []LineItem `json:"lines"`
	Adjustment Adjustment `json:"adjustment"`
}

// Totals aggregates the computed pricing components of a cart.
type Totals struct {
	Subtotal       Money            `json:"subtotal"`
	TotalDiscount  Money            `json:"totalDiscount"`
	FinalTotal     Money            `json:"finalTotal"`
	PromotionLines map[string]Money `json:"promotionLines,omitempty"`
}
