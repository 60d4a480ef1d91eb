package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dunamis-edu/dunamis/internal/clock"
	"github.com/dunamis-edu/dunamis/internal/config"
	"github.com/dunamis-edu/dunamis/internal/donation/domain"
	obsmetrics "github.com/dunamis-edu/dunamis/internal/observability/metrics"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/dunamis-edu/dunamis/pkg/db/pagination"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Checkout paymentdomain.CheckoutProvider
	Repo     domain.Repository
	Cfg      config.Config
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	checkout paymentdomain.CheckoutProvider
	repo     domain.Repository
	cfg      config.Config
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("donation.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		checkout: p.Checkout,
		repo:     p.Repo,
		cfg:      p.Cfg,
		metrics:  p.Metrics,
	}
}

func (s *Service) InitiateCheckout(ctx context.Context, req domain.CreateDonationRequest) (*domain.CheckoutResponse, error) {
	normalized, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	// The processor placeholder is substituted by Stripe when it
	// redirects, so the session id survives into the success page.
	sess, err := s.checkout.CreateCheckoutSession(ctx, paymentdomain.CheckoutRequest{
		AmountMinor: domain.ToMinorUnits(normalized.Amount),
		Currency:    s.cfg.Currency,
		Description: "Donation - " + normalized.Purpose,
		SuccessURL:  s.cfg.FrontendBaseURL + "/donation/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.cfg.FrontendBaseURL + "/donation/cancelled",
		DonorName:   normalized.DonorName,
		DonorEmail:  normalized.DonorEmail,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := domain.Donation{
		ID:                s.genID.Generate(),
		Amount:            normalized.Amount,
		Currency:          s.cfg.Currency,
		DonorName:         normalized.DonorName,
		DonorEmail:        normalized.DonorEmail,
		Purpose:           normalized.Purpose,
		ExternalReference: sess.ID,
		Status:            domain.StatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		// The session already exists at the processor; it will expire
		// unpaid, but the orphan is worth a trace.
		s.log.Error("checkout session created but donation insert failed",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCheckoutSession(ctx, normalized.Purpose)
	}
	s.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.Float64("amount", normalized.Amount),
	)

	return &domain.CheckoutResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func (s *Service) RecordManual(ctx context.Context, req domain.CreateDonationRequest) (*domain.Donation, error) {
	normalized, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := domain.Donation{
		ID:                s.genID.Generate(),
		Amount:            normalized.Amount,
		Currency:          s.cfg.Currency,
		DonorName:         normalized.DonorName,
		DonorEmail:        normalized.DonorEmail,
		Purpose:           normalized.Purpose,
		ExternalReference: manualReference(now),
		Status:            domain.StatusCompleted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, s.db, &record); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordManualDonation(ctx, normalized.Purpose)
	}
	s.log.Info("manual donation recorded",
		zap.String("external_reference", record.ExternalReference),
		zap.Float64("amount", record.Amount),
	)

	return &record, nil
}

func (s *Service) Complete(ctx context.Context, externalReference string) (bool, error) {
	externalReference = strings.TrimSpace(externalReference)
	if externalReference == "" {
		return false, domain.ErrNotFound
	}
	return s.repo.MarkCompleted(ctx, s.db, externalReference, s.clock.Now())
}

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	var cursor *pagination.Cursor
	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		cursor = decoded
	}

	// Fetch one extra row to learn whether another page exists.
	items, err := s.repo.List(ctx, s.db, cursor, limit+1)
	if err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{Donations: items}
	if len(items) > limit {
		resp.Donations = items[:limit]
		last := resp.Donations[limit-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		resp.PageInfo = pagination.PageInfo{NextPageToken: token, HasMore: true}
	}
	return resp, nil
}

// normalizeRequest validates the amount and applies the attribution
// defaults before anything external is called or written.
func normalizeRequest(req domain.CreateDonationRequest) (domain.CreateDonationRequest, error) {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return domain.CreateDonationRequest{}, domain.ErrInvalidAmount
	}
	if domain.ToMinorUnits(req.Amount) <= 0 {
		return domain.CreateDonationRequest{}, domain.ErrInvalidAmount
	}

	out := domain.CreateDonationRequest{
		Amount:     req.Amount,
		Purpose:    strings.TrimSpace(req.Purpose),
		DonorName:  strings.TrimSpace(req.DonorName),
		DonorEmail: strings.TrimSpace(req.DonorEmail),
	}
	if out.Purpose == "" {
		out.Purpose = domain.DefaultPurpose
	}
	if out.DonorName == "" {
		out.DonorName = domain.DefaultDonorName
	}
	if out.DonorEmail == "" {
		out.DonorEmail = domain.DefaultDonorEmail
	}
	return out, nil
}

// manualReference synthesizes a reference for donations recorded without
// the processor. The manual_ prefix keeps it out of the processor's
// session id namespace; the ULID is time-prefixed and unique.
func manualReference(now time.Time) string {
	return "manual_" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
