package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dunamis-edu/dunamis/internal/config"
	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/stretchr/testify/assert"
)

func TestWebhookEndpointAcks(t *testing.T) {
	s := newTestServer(t, config.Config{}, &donationServiceStub{}, &webhookServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe",
		strings.NewReader(`{"id":"evt_1","type":"checkout.session.completed"}`))
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestWebhookEndpointDuplicateStillAcks(t *testing.T) {
	s := newTestServer(t, config.Config{}, &donationServiceStub{},
		&webhookServiceStub{err: paymentdomain.ErrEventAlreadyProcessed})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe",
		strings.NewReader(`{"id":"evt_1"}`))
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	s := newTestServer(t, config.Config{}, &donationServiceStub{},
		&webhookServiceStub{err: paymentdomain.ErrInvalidSignature})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe",
		strings.NewReader(`{"id":"evt_1"}`))
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_signature")
}

func TestWebhookEndpointUnknownProvider(t *testing.T) {
	s := newTestServer(t, config.Config{}, &donationServiceStub{},
		&webhookServiceStub{err: paymentdomain.ErrInvalidProvider})

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/razorpay",
		strings.NewReader(`{"id":"evt_1"}`))
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

var _ donationdomain.Service = (*donationServiceStub)(nil)
var _ paymentdomain.Service = (*webhookServiceStub)(nil)
