package pricing

import "testing"

func TestPromoBebidasCategoryPercent(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Name: "Limonada", Category: "Bebidas", UnitPrice: 5_000, Quantity: 1},
		{ID: "l2", Name: "Empanada", Category: "Comidas", UnitPrice: 3_000, Quantity: 2},
	}}
	cart = cart.WithPromotion(PromoBebidas)
	got := ComputeTotals(cart)
	if got.PromotionLines["l1"] != 500 {
		t.Fatalf("expected itemized discount 500 on l1, got %d", got.PromotionLines["l1"])
	}
	if _, ok := got.PromotionLines["l2"]; ok {
		t.Fatalf("non-matching line must not appear in breakdown")
	}
	if got.FinalTotal != 10_500 {
		t.Fatalf("expected final total 10500, got %d", got.FinalTotal)
	}
}

func TestPromoBebidasOverLineTotalAfterItemDiscount(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Bebidas", UnitPrice: 10_000, Quantity: 1, Discount: &Discount{Kind: DiscountPercent, Value: 5000}},
	}}
	cart = cart.WithPromotion(PromoBebidas)
	got := ComputeTotals(cart)
	// 10% over the post-item-discount value of 5000.
	if got.PromotionLines["l1"] != 500 {
		t.Fatalf("expected itemized 500, got %d", got.PromotionLines["l1"])
	}
	if got.FinalTotal != 4_500 {
		t.Fatalf("expected final total 4500, got %d", got.FinalTotal)
	}
}

func TestComboRequiresBothCategories(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Bebidas", UnitPrice: 5_000, Quantity: 1},
	}}
	cart = cart.WithPromotion(PromoComboComidaBebida)
	got := ComputeTotals(cart)
	if got.TotalDiscount != 0 {
		t.Fatalf("combo must not apply without the food category, got discount %d", got.TotalDiscount)
	}
}

func TestComboDiscountsCheapestDrinkOnce(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Comidas", UnitPrice: 8_000, Quantity: 1},
		{ID: "l2", Category: "Bebidas", UnitPrice: 6_000, Quantity: 3},
		{ID: "l3", Category: "Bebidas", UnitPrice: 4_000, Quantity: 2},
	}}
	cart = cart.WithPromotion(PromoComboComidaBebida)
	got := ComputeTotals(cart)
	// Half of one unit of the cheapest drink, regardless of quantities.
	if got.PromotionLines["l3"] != 2_000 {
		t.Fatalf("expected 2000 off cheapest drink, got %+v", got.PromotionLines)
	}
	if len(got.PromotionLines) != 1 {
		t.Fatalf("combo discounts exactly one line, got %+v", got.PromotionLines)
	}
}

func TestComboTieBreaksOnFirstLine(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Comidas", UnitPrice: 8_000, Quantity: 1},
		{ID: "l2", Category: "Bebidas", UnitPrice: 4_000, Quantity: 1},
		{ID: "l3", Category: "Bebidas", UnitPrice: 4_000, Quantity: 1},
	}}
	promo, ok := LookupPromotion(PromoComboComidaBebida)
	if !ok {
		t.Fatalf("combo promotion not registered")
	}
	_, itemized := promo.Apply(cart.Lines)
	if _, ok := itemized["l2"]; !ok {
		t.Fatalf("tie must break on first encountered line, got %+v", itemized)
	}
}

func TestComboUsesOverriddenPrice(t *testing.T) {
	override := Money(2_000)
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Comidas", UnitPrice: 8_000, Quantity: 1},
		{ID: "l2", Category: "Bebidas", UnitPrice: 6_000, Quantity: 1, OverriddenPrice: &override},
		{ID: "l3", Category: "Bebidas", UnitPrice: 4_000, Quantity: 1},
	}}
	promo, _ := LookupPromotion(PromoComboComidaBebida)
	amount, itemized := promo.Apply(cart.Lines)
	if amount != 1_000 {
		t.Fatalf("expected 50%% of the overridden 2000, got %d", amount)
	}
	if _, ok := itemized["l2"]; !ok {
		t.Fatalf("overridden line should be cheapest, got %+v", itemized)
	}
}

func TestSnacks3x2CheapestUnitFree(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Snacks", UnitPrice: 1_000, Quantity: 1},
		{ID: "l2", Category: "Snacks", UnitPrice: 1_500, Quantity: 1},
		{ID: "l3", Category: "Snacks", UnitPrice: 2_000, Quantity: 1},
	}}
	cart = cart.WithPromotion(PromoSnacks3x2)
	got := ComputeTotals(cart)
	if got.TotalDiscount != 1_000 {
		t.Fatalf("expected cheapest unit (1000) free, got discount %d", got.TotalDiscount)
	}
	if got.FinalTotal != 3_500 {
		t.Fatalf("expected final total 3500, got %d", got.FinalTotal)
	}
	if got.PromotionLines["l1"] != 1_000 {
		t.Fatalf("free unit should be itemized on l1, got %+v", got.PromotionLines)
	}
}

func TestSnacks3x2ExpandsQuantities(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Snacks", UnitPrice: 1_000, Quantity: 4},
		{ID: "l2", Category: "Snacks", UnitPrice: 3_000, Quantity: 3},
	}}
	promo, _ := LookupPromotion(PromoSnacks3x2)
	amount, itemized := promo.Apply(cart.Lines)
	// 7 units -> 2 free, both from the cheaper line.
	if amount != 2_000 {
		t.Fatalf("expected 2000 free, got %d", amount)
	}
	if itemized["l1"] != 2_000 {
		t.Fatalf("free units should accumulate on the cheap line, got %+v", itemized)
	}
}

func TestSnacks3x2BelowThreshold(t *testing.T) {
	cart := Cart{Lines: []LineItem{
		{ID: "l1", Category: "Snacks", UnitPrice: 1_000, Quantity: 2},
	}}
	cart = cart.WithPromotion(PromoSnacks3x2)
	if got := ComputeTotals(cart); got.TotalDiscount != 0 {
		t.Fatalf("two units must not trigger 3x2, got %d", got.TotalDiscount)
	}
}

func TestPromotionsRegistryIsClosed(t *testing.T) {
	ids := Promotions()
	if len(ids) != 3 {
		t.Fatalf("expected 3 registered promotions, got %v", ids)
	}
	for _, id := range ids {
		if _, ok := LookupPromotion(id); !ok {
			t.Fatalf("registered promotion %s not resolvable", id)
		}
	}
}
