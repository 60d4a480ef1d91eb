package webhook

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dunamis-edu/dunamis/internal/clock"
	"github.com/dunamis-edu/dunamis/internal/config"
	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	donationrepository "github.com/dunamis-edu/dunamis/internal/donation/repository"
	donationservice "github.com/dunamis-edu/dunamis/internal/donation/service"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/dunamis-edu/dunamis/internal/payment/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type adapterStub struct {
	verifyErr error
	event     *paymentdomain.CheckoutEvent
	parseErr  error
}

func (a *adapterStub) Provider() string { return "stripe" }

func (a *adapterStub) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	return a.verifyErr
}

func (a *adapterStub) Parse(ctx context.Context, payload []byte) (*paymentdomain.CheckoutEvent, error) {
	if a.parseErr != nil {
		return nil, a.parseErr
	}
	return a.event, nil
}

type checkoutNoop struct{}

func (checkoutNoop) Provider() string { return "stripe" }

func (checkoutNoop) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	return &paymentdomain.CheckoutSession{ID: "cs_noop", URL: "https://x"}, nil
}

type failingRepo struct {
	paymentdomain.Repository
}

func (failingRepo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error {
	return gorm.ErrInvalidTransaction
}

type webhookFixture struct {
	svc   paymentdomain.Service
	db    *gorm.DB
	repo  paymentdomain.Repository
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newWebhookFixture(t *testing.T, dbName string, adapter paymentdomain.WebhookAdapter, repo paymentdomain.Repository) *webhookFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&donationdomain.Donation{}, &paymentdomain.EventRecord{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	donationSvc := donationservice.NewService(donationservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fc,
		Checkout: checkoutNoop{},
		Repo:     donationrepository.Provide(),
		Cfg:      config.Config{Currency: "INR", FrontendBaseURL: "https://donate.example.org"},
	})

	if repo == nil {
		repo = repository.Provide()
	}

	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fc,
		Adapter:     adapter,
		Repo:        repo,
		DonationSvc: donationSvc,
	})

	return &webhookFixture{svc: svc, db: db, repo: repo, node: node, clock: fc}
}

func (f *webhookFixture) seedPending(t *testing.T, sessionID string) {
	t.Helper()
	now := f.clock.Now()
	err := donationrepository.Provide().Insert(context.Background(), f.db, &donationdomain.Donation{
		ID:                f.node.Generate(),
		Amount:            100,
		Currency:          "INR",
		DonorName:         donationdomain.DefaultDonorName,
		DonorEmail:        donationdomain.DefaultDonorEmail,
		Purpose:           donationdomain.DefaultPurpose,
		ExternalReference: sessionID,
		Status:            donationdomain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
}

func (f *webhookFixture) donationStatus(t *testing.T, sessionID string) donationdomain.Status {
	t.Helper()
	item, err := donationrepository.Provide().FindByReference(context.Background(), f.db, sessionID)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item.Status
}

func completedEvent(eventID, sessionID string) *paymentdomain.CheckoutEvent {
	return &paymentdomain.CheckoutEvent{
		Provider:        "stripe",
		ProviderEventID: eventID,
		Type:            paymentdomain.EventTypeCheckoutCompleted,
		SessionID:       sessionID,
		AmountMinor:     10000,
		Currency:        "INR",
	}
}

func TestIngestWebhookCompletesDonation(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_1", "cs_123")}
	f := newWebhookFixture(t, "webhook_complete", adapter, nil)
	f.seedPending(t, "cs_123")

	payload := []byte(`{"id":"evt_1"}`)
	err := f.svc.IngestWebhook(context.Background(), "stripe", payload, http.Header{})
	require.NoError(t, err)

	assert.Equal(t, donationdomain.StatusCompleted, f.donationStatus(t, "cs_123"))

	stored, err := f.repo.FindEvent(context.Background(), f.db, "stripe", "evt_1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestIngestWebhookDuplicateDelivery(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_dup", "cs_dup")}
	f := newWebhookFixture(t, "webhook_duplicate", adapter, nil)
	f.seedPending(t, "cs_dup")

	payload := []byte(`{"id":"evt_dup"}`)
	require.NoError(t, f.svc.IngestWebhook(context.Background(), "stripe", payload, http.Header{}))

	err := f.svc.IngestWebhook(context.Background(), "stripe", payload, http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrEventAlreadyProcessed)

	assert.Equal(t, donationdomain.StatusCompleted, f.donationStatus(t, "cs_dup"))
}

func TestIngestWebhookInvalidSignature(t *testing.T) {
	adapter := &adapterStub{
		verifyErr: paymentdomain.ErrInvalidSignature,
		event:     completedEvent("evt_sig", "cs_sig"),
	}
	f := newWebhookFixture(t, "webhook_bad_sig", adapter, nil)
	f.seedPending(t, "cs_sig")

	err := f.svc.IngestWebhook(context.Background(), "stripe", []byte(`{"id":"evt_sig"}`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	// Nothing is recorded or completed on an unverified delivery.
	assert.Equal(t, donationdomain.StatusPending, f.donationStatus(t, "cs_sig"))
	stored, err := f.repo.FindEvent(context.Background(), f.db, "stripe", "evt_sig")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestIngestWebhookUnknownSessionAcked(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_unknown", "cs_missing")}
	f := newWebhookFixture(t, "webhook_unknown_session", adapter, nil)

	err := f.svc.IngestWebhook(context.Background(), "stripe", []byte(`{"id":"evt_unknown"}`), http.Header{})
	require.NoError(t, err)

	stored, err := f.repo.FindEvent(context.Background(), f.db, "stripe", "evt_unknown")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotNil(t, stored.ProcessedAt)
}

func TestIngestWebhookIgnoredEventType(t *testing.T) {
	adapter := &adapterStub{parseErr: paymentdomain.ErrEventIgnored}
	f := newWebhookFixture(t, "webhook_ignored", adapter, nil)

	err := f.svc.IngestWebhook(context.Background(), "stripe", []byte(`{"id":"evt_other"}`), http.Header{})
	assert.NoError(t, err)
}

func TestIngestWebhookWrongProvider(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_1", "cs_1")}
	f := newWebhookFixture(t, "webhook_wrong_provider", adapter, nil)

	err := f.svc.IngestWebhook(context.Background(), "razorpay", []byte(`{"id":"evt_1"}`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidProvider)

	err = f.svc.IngestWebhook(context.Background(), "", []byte(`{"id":"evt_1"}`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidProvider)
}

func TestIngestWebhookInvalidJSONBody(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_1", "cs_1")}
	f := newWebhookFixture(t, "webhook_bad_body", adapter, nil)

	err := f.svc.IngestWebhook(context.Background(), "stripe", []byte(`not json`), http.Header{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPayload)
}

func TestIngestWebhookStoreFailureStillAcked(t *testing.T) {
	adapter := &adapterStub{event: completedEvent("evt_fail", "cs_fail")}
	f := newWebhookFixture(t, "webhook_store_failure", adapter, failingRepo{repository.Provide()})
	f.seedPending(t, "cs_fail")

	err := f.svc.IngestWebhook(context.Background(), "stripe", []byte(`{"id":"evt_fail"}`), http.Header{})
	assert.NoError(t, err)

	// The completion applied but the event stays unprocessed for
	// reconciliation to pick up.
	assert.Equal(t, donationdomain.StatusCompleted, f.donationStatus(t, "cs_fail"))
	stored, err := repository.Provide().FindEvent(context.Background(), f.db, "stripe", "evt_fail")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Nil(t, stored.ProcessedAt)
}
