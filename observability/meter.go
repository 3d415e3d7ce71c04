package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// InitMeter installs an OTLP HTTP meter provider as the global provider.
// The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Stream close reasons recorded on streams.closed.
const (
	ReasonRemoteClose = "remote_close"
	ReasonTransport   = "transport_error"
	ReasonStopped     = "stopped"
	ReasonDialFailed  = "dial_failed"
)

// Notification outcomes recorded on notifications.processed.
const (
	ResultHandled = "handled"
	ResultIgnored = "ignored"
	ResultFailed  = "failed"
)

// Metrics holds the service's instruments. A nil *Metrics records nothing,
// so components can be built without telemetry in tests.
type Metrics struct {
	transcriptsReceived    metric.Int64Counter
	droppedFrames          metric.Int64Counter
	streamsActive          metric.Int64UpDownCounter
	streamsClosed          metric.Int64Counter
	notificationsProcessed metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	transcriptsReceived, err := meter.Int64Counter("transcripts.received",
		metric.WithDescription("Transcript fragments appended to subscription buffers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcripts.received counter: %w", err)
	}

	droppedFrames, err := meter.Int64Counter("transcripts.dropped",
		metric.WithDescription("Stream frames that could not be parsed as transcripts"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcripts.dropped counter: %w", err)
	}

	streamsActive, err := meter.Int64UpDownCounter("streams.active",
		metric.WithDescription("Number of open transcript streams"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating streams.active counter: %w", err)
	}

	streamsClosed, err := meter.Int64Counter("streams.closed",
		metric.WithDescription("Transcript streams that ended, by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating streams.closed counter: %w", err)
	}

	notificationsProcessed, err := meter.Int64Counter("notifications.processed",
		metric.WithDescription("Webhook notifications processed, by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notifications.processed counter: %w", err)
	}

	return &Metrics{
		transcriptsReceived:    transcriptsReceived,
		droppedFrames:          droppedFrames,
		streamsActive:          streamsActive,
		streamsClosed:          streamsClosed,
		notificationsProcessed: notificationsProcessed,
	}, nil
}

// RecordTranscript counts one buffered transcript fragment.
func (m *Metrics) RecordTranscript(ctx context.Context) {
	if m == nil {
		return
	}
	m.transcriptsReceived.Add(ctx, 1)
}

// RecordDroppedFrame counts a frame the receive loop discarded.
func (m *Metrics) RecordDroppedFrame(ctx context.Context) {
	if m == nil {
		return
	}
	m.droppedFrames.Add(ctx, 1)
}

// RecordStreamOpened increments the open stream gauge.
func (m *Metrics) RecordStreamOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.streamsActive.Add(ctx, 1)
}

// RecordStreamClosed decrements the open stream gauge and counts the reason.
func (m *Metrics) RecordStreamClosed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.streamsActive.Add(ctx, -1)
	m.streamsClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordStreamFailed counts a stream that never opened.
func (m *Metrics) RecordStreamFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.streamsClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordNotification counts a processed notification by result and event type.
func (m *Metrics) RecordNotification(ctx context.Context, result, eventType string) {
	if m == nil {
		return
	}
	m.notificationsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("event_type", eventType),
	))
}
