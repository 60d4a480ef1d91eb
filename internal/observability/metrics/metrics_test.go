package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsUnknownLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "stripe"),
		attribute.String("purpose", "General Fund"),
		attribute.String("donor_email", "someone@example.org"),
		attribute.String("session_id", "cs_test_123"),
	)

	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "donor_email" || attr.Key == "session_id" {
			t.Fatalf("high-cardinality label %s leaked through", attr.Key)
		}
	}
}

func TestNewWithNoopProvider(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	m, err := New(Config{ServiceName: "dunamis"}, provider)
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}

	// Instruments on the noop provider record without error, and nil
	// receivers are safe for optional wiring.
	m.RecordCheckoutSession(t.Context(), "General Fund")
	m.RecordWebhookEvent(t.Context(), "stripe", "checkout_completed")

	var empty *Metrics
	empty.RecordManualDonation(t.Context(), "General Fund")
	empty.RecordWebhookApplyFailure(t.Context(), "stripe")
}
