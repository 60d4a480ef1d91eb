package payment

import (
	"github.com/dunamis-edu/dunamis/internal/payment/adapters/stripe"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"github.com/dunamis-edu/dunamis/internal/payment/repository"
	"github.com/dunamis-edu/dunamis/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(stripe.New),
	fx.Provide(func(a *stripe.Adapter) paymentdomain.CheckoutProvider { return a }),
	fx.Provide(func(a *stripe.Adapter) paymentdomain.WebhookAdapter { return a }),
	fx.Provide(webhook.NewService),
)
