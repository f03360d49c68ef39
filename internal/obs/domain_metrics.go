package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// SalesCompletedTotal counts completed sales by adjustment kind.
	SalesCompletedTotal *prometheus.CounterVec
	// SaleAmountCents records final sale totals in minor units.
	SaleAmountCents *prometheus.HistogramVec
	// RefundsTotal counts refund outcomes.
	RefundsTotal *prometheus.CounterVec
	// RefundAmountCents records refund totals in minor units.
	RefundAmountCents prometheus.Histogram
	// PromotionsAppliedTotal counts promotion applications by id.
	PromotionsAppliedTotal *prometheus.CounterVec
	// LoyaltyPointsRedeemedTotal accumulates points burned at the register.
	LoyaltyPointsRedeemedTotal prometheus.Counter
	// HeldCartOpsTotal counts park/resume/discard operations on held carts.
	HeldCartOpsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		SalesCompletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_completed_total",
			Help:      "Count of completed sales by cart-level adjustment kind.",
		}, []string{"adjustment"})
		SaleAmountCents = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_amount_cents",
			Help:      "Final sale totals in minor units.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000},
		}, []string{"adjustment"})
		RefundsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Count of refund computations by outcome.",
		}, []string{"result"})
		RefundAmountCents = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refund_amount_cents",
			Help:      "Refund totals in minor units.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		})
		PromotionsAppliedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_applied_total",
			Help:      "Count of sales priced with each promotion.",
		}, []string{"promotion"})
		LoyaltyPointsRedeemedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loyalty_points_redeemed_total",
			Help:      "Total loyalty points redeemed at the register.",
		})
		HeldCartOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "held_cart_ops_total",
			Help:      "Count of held cart operations.",
		}, []string{"op"})

		mustRegisterCollector(reg, SalesCompletedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesCompletedTotal = v
			}
		})
		mustRegisterCollector(reg, SaleAmountCents, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				SaleAmountCents = v
			}
		})
		mustRegisterCollector(reg, RefundsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RefundsTotal = v
			}
		})
		mustRegisterCollector(reg, RefundAmountCents, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				RefundAmountCents = v
			}
		})
		mustRegisterCollector(reg, PromotionsAppliedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PromotionsAppliedTotal = v
			}
		})
		mustRegisterCollector(reg, LoyaltyPointsRedeemedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LoyaltyPointsRedeemedTotal = v
			}
		})
		mustRegisterCollector(reg, HeldCartOpsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				HeldCartOpsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
