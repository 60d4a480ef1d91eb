package domain

import (
	"context"
	"errors"

	"github.com/dunamis-edu/dunamis/pkg/db/pagination"
)

var (
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrDuplicateReference = errors.New("duplicate_reference")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)

// CreateDonationRequest is the shared input shape of the checkout and
// manual paths.
type CreateDonationRequest struct {
	Amount     float64
	Purpose    string
	DonorName  string
	DonorEmail string
}

type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

type ListRequest struct {
	PageToken string
	PageSize  int
}

type ListResponse struct {
	Donations []Donation          `json:"donations"`
	PageInfo  pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// InitiateCheckout creates a processor checkout session and a
	// matching pending donation keyed by the session id.
	InitiateCheckout(ctx context.Context, req CreateDonationRequest) (*CheckoutResponse, error)

	// RecordManual persists an already-completed donation with a
	// synthetic reference. No processor call is made.
	RecordManual(ctx context.Context, req CreateDonationRequest) (*Donation, error)

	// Complete transitions the donation matching externalReference from
	// pending to completed. It reports false when no pending donation
	// matched, which includes the already-completed case.
	Complete(ctx context.Context, externalReference string) (bool, error)

	// List returns a page of donations, newest first.
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}
