package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dunamis-edu/dunamis/internal/clock"
	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	obsmetrics "github.com/dunamis-edu/dunamis/internal/observability/metrics"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Adapter     paymentdomain.WebhookAdapter
	Repo        paymentdomain.Repository
	DonationSvc donationdomain.Service
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

// Service turns verified processor webhooks into donation completions.
type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	adapter     paymentdomain.WebhookAdapter
	repo        paymentdomain.Repository
	donationSvc donationdomain.Service
	metrics     *obsmetrics.Metrics
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.webhook"),
		genID:       p.GenID,
		clock:       p.Clock,
		adapter:     p.Adapter,
		repo:        p.Repo,
		donationSvc: p.DonationSvc,
		metrics:     p.Metrics,
	}
}

// IngestWebhook verifies a delivery against the raw body bytes, records
// it, and applies the pending → completed transition at most once.
//
// Ordering matters: nothing is trusted, logged as an event, or written
// before Verify passes. After verification the delivery is always
// acknowledged — a failed store update is logged and counted, never
// surfaced to the processor, so retries don't turn into error storms.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || s.adapter == nil || provider != s.adapter.Provider() {
		return paymentdomain.ErrInvalidProvider
	}

	if err := s.adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	event, err := s.adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			// Unknown event types are acknowledged without side effects.
			return nil
		}
		return err
	}
	if err := validateEvent(event); err != nil {
		return err
	}

	now := s.clock.Now()
	received := paymentdomain.EventRecord{
		ID:              s.genID.Generate(),
		Provider:        provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		SessionID:       event.SessionID,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      now,
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &received)
	if err != nil {
		return s.applyFailure(ctx, provider, event.SessionID, err)
	}
	stored := &received
	if !inserted {
		stored, err = s.repo.FindEvent(ctx, s.db, provider, event.ProviderEventID)
		if err != nil {
			return s.applyFailure(ctx, provider, event.SessionID, err)
		}
		if stored == nil {
			return paymentdomain.ErrInvalidEvent
		}
		if stored.ProcessedAt != nil {
			return paymentdomain.ErrEventAlreadyProcessed
		}
	}

	completed, err := s.donationSvc.Complete(ctx, event.SessionID)
	if err != nil {
		return s.applyFailure(ctx, provider, event.SessionID, err)
	}
	if !completed {
		// Either the session was never recorded here (test events,
		// sessions created by other means) or a concurrent delivery won
		// the conditional update. Both are benign.
		s.log.Info("no pending donation for webhook session",
			zap.String("provider", provider),
			zap.String("session_id", event.SessionID),
		)
	}

	if err := s.repo.MarkProcessed(ctx, s.db, stored.ID, now); err != nil {
		return s.applyFailure(ctx, provider, event.SessionID, err)
	}

	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(ctx, provider, event.Type)
	}

	return nil
}

// applyFailure handles store errors after a delivery has been verified.
// The event row (if written) keeps processed_at NULL so reconciliation
// can find it; the caller still acknowledges the delivery.
func (s *Service) applyFailure(ctx context.Context, provider, sessionID string, err error) error {
	s.log.Error("verified webhook could not be applied",
		zap.String("provider", provider),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	if s.metrics != nil {
		s.metrics.RecordWebhookApplyFailure(ctx, provider)
	}
	return nil
}

func validateEvent(event *paymentdomain.CheckoutEvent) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.ProviderEventID == "" {
		return paymentdomain.ErrInvalidEvent
	}
	event.SessionID = strings.TrimSpace(event.SessionID)
	if event.SessionID == "" {
		return paymentdomain.ErrInvalidEvent
	}
	if event.Type != paymentdomain.EventTypeCheckoutCompleted {
		return paymentdomain.ErrInvalidEvent
	}
	return nil
}
