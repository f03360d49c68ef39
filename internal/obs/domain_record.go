package obs

// Recording helpers tolerate unregistered collectors so unit tests can use
// services without Prometheus wiring.

// RecordSale counts a completed sale and observes its final total.
func RecordSale(adjustment string, amountCents int64) {
	if SalesCompletedTotal != nil {
		SalesCompletedTotal.WithLabelValues(adjustment).Inc()
	}
	if SaleAmountCents != nil {
		SaleAmountCents.WithLabelValues(adjustment).Observe(float64(amountCents))
	}
}

// RecordRefund counts a refund outcome and observes the refunded amount.
func RecordRefund(result string, amountCents int64) {
	if RefundsTotal != nil {
		RefundsTotal.WithLabelValues(result).Inc()
	}
	if result == "ok" && RefundAmountCents != nil {
		RefundAmountCents.Observe(float64(amountCents))
	}
}

// RecordPromotion counts a sale priced with the given promotion.
func RecordPromotion(promotionID string) {
	if PromotionsAppliedTotal != nil {
		PromotionsAppliedTotal.WithLabelValues(promotionID).Inc()
	}
}

// RecordLoyaltyRedemption accumulates redeemed points.
func RecordLoyaltyRedemption(points int64) {
	if LoyaltyPointsRedeemedTotal != nil {
		LoyaltyPointsRedeemedTotal.Add(float64(points))
	}
}

// RecordHeldCartOp counts a park, resume, or discard.
func RecordHeldCartOp(op string) {
	if HeldCartOpsTotal != nil {
		HeldCartOpsTotal.WithLabelValues(op).Inc()
	}
}
