package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lumapos/backend-pos/internal/obs"
)

func TestDomainMetricsRecordRegisterActivity(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("pos", registry)

	obs.RecordSale("promotion", 4500)
	obs.RecordSale("none", 1000)
	obs.RecordPromotion("PROMO_BEBIDAS")
	obs.RecordRefund("ok", 900)
	obs.RecordRefund("rejected", 0)
	obs.RecordLoyaltyRedemption(20)
	obs.RecordHeldCartOp("park")
	obs.RecordHeldCartOp("resume")

	if got := testutil.ToFloat64(obs.SalesCompletedTotal.WithLabelValues("promotion")); got != 1 {
		t.Fatalf("expected 1 promotion sale, got %v", got)
	}
	if got := testutil.ToFloat64(obs.RefundsTotal.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("expected 1 rejected refund, got %v", got)
	}
	if got := testutil.ToFloat64(obs.LoyaltyPointsRedeemedTotal); got != 20 {
		t.Fatalf("expected 20 redeemed points, got %v", got)
	}
	if got := testutil.ToFloat64(obs.PromotionsAppliedTotal.WithLabelValues("PROMO_BEBIDAS")); got != 1 {
		t.Fatalf("expected 1 promotion application, got %v", got)
	}
	if got := testutil.ToFloat64(obs.HeldCartOpsTotal.WithLabelValues("park")); got != 1 {
		t.Fatalf("expected 1 park, got %v", got)
	}
}
