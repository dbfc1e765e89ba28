package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// breakerStateValues maps breaker states to numeric gauge values
var breakerStateValues = map[string]int64{
	"closed":    0,
	"half-open": 1,
	"open":      2,
}

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     Collector

	// OTel meters and instruments
	meter                 metric.Meter
	breakerStateGauge     metric.Int64ObservableGauge
	breakerFailuresGauge  metric.Int64ObservableGauge
	rateLimitEntriesGauge metric.Int64ObservableGauge
	dedupInFlightGauge    metric.Int64ObservableGauge
	receiptCountGauge     metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"webhook-guard",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	// Circuit breaker state gauge (per dependency: 0 closed, 1 half-open, 2 open)
	oe.breakerStateGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.breaker.state",
		metric.WithDescription("Circuit breaker state per dependency (0 closed, 1 half-open, 2 open)"),
		metric.WithInt64Callback(oe.observeBreakerStates),
	)
	if err != nil {
		return fmt.Errorf("creating breaker state gauge: %w", err)
	}

	// Circuit breaker lifetime failures gauge (per dependency)
	oe.breakerFailuresGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.breaker.failures",
		metric.WithDescription("Lifetime failures observed by the circuit breaker per dependency"),
		metric.WithUnit("{failures}"),
		metric.WithInt64Callback(oe.observeBreakerFailures),
	)
	if err != nil {
		return fmt.Errorf("creating breaker failures gauge: %w", err)
	}

	// Rate limiter live windows gauge (per environment)
	oe.rateLimitEntriesGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.ratelimit.entries",
		metric.WithDescription("Live rate limit windows per environment"),
		metric.WithUnit("{windows}"),
		metric.WithInt64Callback(oe.observeRateLimitEntries),
	)
	if err != nil {
		return fmt.Errorf("creating rate limit entries gauge: %w", err)
	}

	// Deduplicator in-flight gauge (per dependency)
	oe.dedupInFlightGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.dedup.inflight",
		metric.WithDescription("Live deduplication entries per dependency"),
		metric.WithUnit("{entries}"),
		metric.WithInt64Callback(oe.observeDedupInFlight),
	)
	if err != nil {
		return fmt.Errorf("creating dedup in-flight gauge: %w", err)
	}

	// Receipt count gauge (per status)
	oe.receiptCountGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.receipts.count",
		metric.WithDescription("Number of webhook receipts per status"),
		metric.WithUnit("{receipts}"),
		metric.WithInt64Callback(oe.observeReceiptCounts),
	)
	if err != nil {
		return fmt.Errorf("creating receipt count gauge: %w", err)
	}

	return nil
}

func (oe *OTelExporter) observeBreakerStates(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for _, stats := range m.Breakers {
		observer.Observe(breakerStateValues[stats.State],
			metric.WithAttributes(attribute.String("dependency", stats.Name)))
	}
	return nil
}

func (oe *OTelExporter) observeBreakerFailures(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for _, stats := range m.Breakers {
		observer.Observe(stats.Failures,
			metric.WithAttributes(attribute.String("dependency", stats.Name)))
	}
	return nil
}

func (oe *OTelExporter) observeRateLimitEntries(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for env, entries := range m.RateLimitEntries {
		observer.Observe(entries,
			metric.WithAttributes(attribute.String("environment", env)))
	}
	return nil
}

func (oe *OTelExporter) observeDedupInFlight(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for dep, inflight := range m.DedupInFlight {
		observer.Observe(inflight,
			metric.WithAttributes(attribute.String("dependency", dep)))
	}
	return nil
}

func (oe *OTelExporter) observeReceiptCounts(ctx context.Context, observer metric.Int64Observer) error {
	m, err := oe.collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("collecting metrics: %w", err)
	}
	for status, count := range m.ReceiptCounts {
		observer.Observe(count,
			metric.WithAttributes(attribute.String("status", status)))
	}
	return nil
}

// Handler returns the HTTP handler serving metrics in Prometheus format
func (oe *OTelExporter) Handler() http.Handler {
	return promhttp.Handler()
}

// Shutdown flushes and stops the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	return oe.meterProvider.Shutdown(ctx)
}
