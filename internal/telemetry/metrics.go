package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "promptmart"

// InitMeterProvider installs a global meter provider backed by a Prometheus
// registry and returns the /metrics handler for it.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, ShutdownFunc, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), mp.Shutdown, nil
}

// Metrics holds the business counters recorded by the services.
type Metrics struct {
	cartMutations        metric.Int64Counter
	checkouts            metric.Int64Counter
	paymentTransitions   metric.Int64Counter
	notificationsDropped metric.Int64Counter
}

// NewMetrics registers the business counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	cartMutations, err := meter.Int64Counter("cart_mutations_total",
		metric.WithDescription("Cart add and remove operations"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cart_mutations_total: %w", err)
	}

	checkouts, err := meter.Int64Counter("checkouts_total",
		metric.WithDescription("Checkout attempts by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create checkouts_total: %w", err)
	}

	paymentTransitions, err := meter.Int64Counter("payment_transitions_total",
		metric.WithDescription("Order payment status transitions by target status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment_transitions_total: %w", err)
	}

	notificationsDropped, err := meter.Int64Counter("notifications_dropped_total",
		metric.WithDescription("Notifications discarded because the delivery queue was full"))
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications_dropped_total: %w", err)
	}

	return &Metrics{
		cartMutations:        cartMutations,
		checkouts:            checkouts,
		paymentTransitions:   paymentTransitions,
		notificationsDropped: notificationsDropped,
	}, nil
}

// NewGlobalMetrics registers the business counters on the global meter provider.
func NewGlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.Meter(meterName))
}

// CartMutation counts an add or remove on a cart. A nil receiver records nothing.
func (m *Metrics) CartMutation(ctx context.Context, op string) {
	if m == nil {
		return
	}
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

// Checkout counts a checkout attempt with its outcome.
func (m *Metrics) Checkout(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// PaymentTransition counts a move into status to.
func (m *Metrics) PaymentTransition(ctx context.Context, to string) {
	if m == nil {
		return
	}
	m.paymentTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("to", to)))
}

// NotificationDropped counts a notification discarded by a full queue.
func (m *Metrics) NotificationDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.notificationsDropped.Add(ctx, 1)
}
