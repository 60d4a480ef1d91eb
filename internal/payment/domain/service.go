package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidProvider       = errors.New("invalid_provider")
	ErrInvalidSignature      = errors.New("invalid_signature")
	ErrInvalidPayload        = errors.New("invalid_payload")
	ErrInvalidEvent          = errors.New("invalid_event")
	ErrEventIgnored          = errors.New("event_ignored")
	ErrEventAlreadyProcessed = errors.New("event_already_processed")
	ErrCheckoutFailed        = errors.New("checkout_failed")
)

// CheckoutProvider creates hosted checkout sessions at the external
// payment processor.
type CheckoutProvider interface {
	Provider() string
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

// WebhookAdapter authenticates and normalizes processor webhook
// deliveries. Verify must run over the raw, unmodified body bytes.
type WebhookAdapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CheckoutEvent, error)
}

// Service ingests webhook deliveries.
type Service interface {
	IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error
}

type Repository interface {
	FindEvent(ctx context.Context, db *gorm.DB, provider string, providerEventID string) (*EventRecord, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *EventRecord) (bool, error)
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, processedAt time.Time) error
}
