package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dunamis-edu/dunamis/internal/config"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	stripeapi "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"
)

// Adapter talks to Stripe: it creates hosted checkout sessions and
// authenticates webhook deliveries signed with the account's webhook
// secret.
type Adapter struct {
	log           *zap.Logger
	sessions      *session.Client
	webhookSecret string
}

func New(cfg config.Config, log *zap.Logger) (*Adapter, error) {
	if err := cfg.ValidateStripe(); err != nil {
		return nil, err
	}

	return &Adapter{
		log: log.Named("payment.stripe"),
		sessions: &session.Client{
			B:   stripeapi.GetBackend(stripeapi.APIBackend),
			Key: cfg.StripeSecretKey,
		},
		webhookSecret: cfg.StripeWebhookSecret,
	}, nil
}

func (a *Adapter) Provider() string { return "stripe" }

func (a *Adapter) CreateCheckoutSession(ctx context.Context, req paymentdomain.CheckoutRequest) (*paymentdomain.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Params: stripeapi.Params{Context: ctx},
		Metadata: map[string]string{
			"donor_name":  req.DonorName,
			"donor_email": req.DonorEmail,
		},
		SuccessURL: stripeapi.String(req.SuccessURL),
		CancelURL:  stripeapi.String(req.CancelURL),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency: stripeapi.String(strings.ToLower(req.Currency)),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(req.Description),
					},
					UnitAmount: stripeapi.Int64(req.AmountMinor),
				},
				Quantity: stripeapi.Int64(1),
			},
		},
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SubmitType: stripeapi.String("donate"),
	}
	if req.DonorEmail != "" && strings.Contains(req.DonorEmail, "@") {
		params.CustomerEmail = stripeapi.String(req.DonorEmail)
	}

	created, err := a.sessions.New(params)
	if err != nil {
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) {
			a.log.Warn("stripe checkout session rejected",
				zap.String("code", string(stripeErr.Code)),
				zap.String("msg", stripeErr.Msg),
			)
		} else {
			a.log.Warn("stripe checkout session failed", zap.Error(err))
		}
		return nil, paymentdomain.ErrCheckoutFailed
	}

	return &paymentdomain.CheckoutSession{
		ID:  created.ID,
		URL: created.URL,
	}, nil
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*paymentdomain.CheckoutEvent, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case "checkout.session.completed":
		return a.parseCheckoutSession(event, payload)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeCheckoutSession struct {
	ID          string `json:"id"`
	AmountTotal int64  `json:"amount_total"`
	Currency    string `json:"currency"`
	Created     int64  `json:"created"`
}

func (a *Adapter) parseCheckoutSession(event stripeEvent, payload []byte) (*paymentdomain.CheckoutEvent, error) {
	var sess stripeCheckoutSession
	if err := json.Unmarshal(event.Data.Object, &sess); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(sess.ID) == "" {
		return nil, paymentdomain.ErrInvalidEvent
	}

	return &paymentdomain.CheckoutEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		Type:            paymentdomain.EventTypeCheckoutCompleted,
		SessionID:       sess.ID,
		AmountMinor:     sess.AmountTotal,
		Currency:        strings.ToUpper(strings.TrimSpace(sess.Currency)),
		OccurredAt:      timestamp(sess.Created, event.Created),
		RawPayload:      payload,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func timestamp(primary int64, fallback int64) time.Time {
	value := primary
	if value == 0 {
		value = fallback
	}
	if value == 0 {
		return time.Now().UTC()
	}
	return time.Unix(value, 0).UTC()
}
