package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	checkoutSessions     metric.Int64Counter
	manualDonations      metric.Int64Counter
	webhookEvents        metric.Int64Counter
	webhookApplyFailures metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "dunamis"
	}
	meter := provider.Meter(name)

	checkoutSessions, err := meter.Int64Counter("dunamis_checkout_sessions_total")
	if err != nil {
		return nil, err
	}
	manualDonations, err := meter.Int64Counter("dunamis_manual_donations_total")
	if err != nil {
		return nil, err
	}
	webhookEvents, err := meter.Int64Counter("dunamis_webhook_events_total")
	if err != nil {
		return nil, err
	}
	webhookApplyFailures, err := meter.Int64Counter("dunamis_webhook_apply_failures_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		checkoutSessions:     checkoutSessions,
		manualDonations:      manualDonations,
		webhookEvents:        webhookEvents,
		webhookApplyFailures: webhookApplyFailures,
	}, nil
}

// RecordCheckoutSession increments created checkout session counts.
func (m *Metrics) RecordCheckoutSession(ctx context.Context, purpose string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("purpose", strings.TrimSpace(purpose)))
	m.checkoutSessions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordManualDonation increments manually recorded donation counts.
func (m *Metrics) RecordManualDonation(ctx context.Context, purpose string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("purpose", strings.TrimSpace(purpose)))
	m.manualDonations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordWebhookEvent increments received webhook event counts.
func (m *Metrics) RecordWebhookEvent(ctx context.Context, provider, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordWebhookApplyFailure counts verified events whose store update failed.
// These deliveries are acknowledged to the processor, so this counter is
// the primary signal that reconciliation is needed.
func (m *Metrics) RecordWebhookApplyFailure(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("provider", strings.TrimSpace(provider)))
	m.webhookApplyFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"provider":    {},
	"event_type":  {},
	"purpose":     {},
	"status_code": {},
	"endpoint":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
