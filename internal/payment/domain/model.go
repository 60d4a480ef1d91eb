package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// EventRecord is one webhook delivery, stored before any state is applied.
// The (provider, provider_event_id) pair is unique so retried deliveries
// collapse into a single row; processed_at stays NULL until the donation
// update has been applied, which leaves a durable trail for reconciliation.
type EventRecord struct {
	ID              snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider        string         `json:"provider" gorm:"type:text;not null;uniqueIndex:idx_donation_events_provider_event"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:text;not null;uniqueIndex:idx_donation_events_provider_event"`
	EventType       string         `json:"event_type" gorm:"type:text;not null"`
	SessionID       string         `json:"session_id" gorm:"type:text;not null"`
	Payload         datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (EventRecord) TableName() string { return "donation_events" }

const (
	// EventTypeCheckoutCompleted is the only event type that mutates a
	// donation. Everything else the processor sends is acknowledged and
	// dropped.
	EventTypeCheckoutCompleted = "checkout_completed"
)

// CheckoutEvent is the canonical webhook event parsed by adapters.
type CheckoutEvent struct {
	Provider        string
	ProviderEventID string
	Type            string
	SessionID       string
	AmountMinor     int64
	Currency        string
	OccurredAt      time.Time
	RawPayload      []byte
}

// CheckoutRequest describes one hosted checkout session to create at the
// processor. Amounts are in minor currency units.
type CheckoutRequest struct {
	AmountMinor int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
	DonorName   string
	DonorEmail  string
}

// CheckoutSession is the processor's handle for one payment attempt.
type CheckoutSession struct {
	ID  string
	URL string
}
