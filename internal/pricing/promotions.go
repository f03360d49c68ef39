package pricing

import "sort"

// PromotionID identifies one of the fixed set of automatic discount rules.
type PromotionID string

const (
	// PromoBebidas takes 10% off every line in the "Bebidas" category.
	PromoBebidas PromotionID = "PROMO_BEBIDAS"
	// PromoComboComidaBebida gives 50% off one unit of the cheapest drink
	// when the cart also contains food.
	PromoComboComidaBebida PromotionID = "COMBO_COMIDA_BEBIDA"
	// PromoSnacks3x2 makes every third snack unit free, cheapest first.
	PromoSnacks3x2 PromotionID = "SNACKS_3X2"
)

// Promotion is one variant of the closed promotion enumeration. Apply
// returns the total reduction plus the per-line breakdown used for
// receipt display.
type Promotion interface {
	ID() PromotionID
	Applicable(lines []LineItem) bool
	Apply(lines []LineItem) (Money, map[string]Money)
}

var registry = map[PromotionID]Promotion{
	PromoBebidas:           categoryPercent{id: PromoBebidas, category: "Bebidas", bps: 1000},
	PromoComboComidaBebida: cheapestOfPair{id: PromoComboComidaBebida, primary: "Comidas", secondary: "Bebidas", bps: 5000},
	PromoSnacks3x2:         nForM{id: PromoSnacks3x2, category: "Snacks", group: 3, paid: 2},
}

// LookupPromotion resolves a promotion id against the fixed registry.
func LookupPromotion(id PromotionID) (Promotion, bool) {
	p, ok := registry[id]
	return p, ok
}

// Promotions returns the ids of every registered promotion.
func Promotions() []PromotionID {
	ids := make([]PromotionID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// categoryPercent discounts every line of one category by a percentage.
type categoryPercent struct {
	id       PromotionID
	category string
	bps      int64
}

func (p categoryPercent) ID() PromotionID { return p.id }

func (p categoryPercent) Applicable(lines []LineItem) bool {
	for _, l := range lines {
		if l.Category == p.category {
			return true
		}
	}
	return false
}

func (p categoryPercent) Apply(lines []LineItem) (Money, map[string]Money) {
	var total Money
	itemized := map[string]Money{}
	for _, l := range lines {
		if l.Category != p.category {
			continue
		}
		d := l.LineTotal() * p.bps / 10000
		if d <= 0 {
			continue
		}
		itemized[l.ID] += d
		total += d
	}
	return total, itemized
}

// cheapestOfPair requires one line in each of two categories and reduces
// one unit of the cheapest secondary-category line. Ties break on the
// first such line in iteration order.
type cheapestOfPair struct {
	id        PromotionID
	primary   string
	secondary string
	bps       int64
}

func (p cheapestOfPair) ID() PromotionID { return p.id }

func (p cheapestOfPair) Applicable(lines []LineItem) bool {
	var hasPrimary, hasSecondary bool
	for _, l := range lines {
		switch l.Category {
		case p.primary:
			hasPrimary = true
		case p.secondary:
			hasSecondary = true
		}
	}
	return hasPrimary && hasSecondary
}

func (p cheapestOfPair) Apply(lines []LineItem) (Money, map[string]Money) {
	var cheapest *LineItem
	for i := range lines {
		l := lines[i]
		if l.Category != p.secondary || l.Quantity <= 0 {
			continue
		}
		if cheapest == nil || l.EffectiveUnitPrice() < cheapest.EffectiveUnitPrice() {
			cheapest = &lines[i]
		}
	}
	if cheapest == nil {
		return 0, nil
	}
	d := cheapest.EffectiveUnitPrice() * p.bps / 10000
	if d <= 0 {
		return 0, nil
	}
	return d, map[string]Money{cheapest.ID: d}
}

// nForM charges for paid units out of every group units in a category.
// Units are expanded per quantity, stable-sorted by effective unit price,
// and the cheapest free quota is made free.
type nForM struct {
	id       PromotionID
	category string
	group    int
	paid     int
}

func (p nForM) ID() PromotionID { return p.id }

func (p nForM) Applicable(lines []LineItem) bool {
	units := 0
	for _, l := range lines {
		if l.Category == p.category && l.Quantity > 0 {
			units += l.Quantity
		}
	}
	return p.group > 0 && units >= p.group
}

func (p nForM) Apply(lines []LineItem) (Money, map[string]Money) {
	type unit struct {
		lineID string
		price  Money
	}
	var units []unit
	for _, l := range lines {
		if l.Category != p.category {
			continue
		}
		for q := 0; q < l.Quantity; q++ {
			units = append(units, unit{lineID: l.ID, price: l.EffectiveUnitPrice()})
		}
	}
	if p.group <= 0 || len(units) < p.group {
		return 0, nil
	}
	free := (len(units) / p.group) * (p.group - p.paid)
	if free <= 0 {
		return 0, nil
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].price < units[j].price })

	var total Money
	itemized := map[string]Money{}
	for _, u := range units[:free] {
		if u.price <= 0 {
			continue
		}
		itemized[u.lineID] += u.price
		total += u.price
	}
	return total, itemized
}
