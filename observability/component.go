package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/transcriptfeed/component"
	"github.com/kbukum/transcriptfeed/logger"
)

// Component owns the exporter-backed providers. When no endpoint is
// configured Start does nothing and the global no-op providers remain.
type Component struct {
	cfg         Config
	serviceName string
	version     string
	environment string
	log         *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the telemetry lifecycle component.
func NewComponent(cfg Config, serviceName, version, environment string, log *logger.Logger) *Component {
	return &Component{
		cfg:         cfg,
		serviceName: serviceName,
		version:     version,
		environment: environment,
		log:         log.WithComponent("telemetry"),
	}
}

// Name implements component.Component.
func (c *Component) Name() string { return "telemetry" }

// Start installs the OTLP providers.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled() {
		c.log.Debug("telemetry export disabled")
		return nil
	}
	res, err := NewResource(c.serviceName, c.version, c.environment)
	if err != nil {
		return fmt.Errorf("creating resource: %w", err)
	}
	if c.tp, err = InitTracer(ctx, c.cfg, res); err != nil {
		return err
	}
	if c.mp, err = InitMeter(ctx, c.cfg, res); err != nil {
		return err
	}
	c.log.Info("telemetry export enabled", logger.Fields("endpoint", c.cfg.Endpoint, "sample_rate", c.cfg.SampleRate))
	return nil
}

// Stop flushes and shuts the providers down.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// Health implements component.Component.
func (c *Component) Health(ctx context.Context) component.Health {
	msg := "export disabled"
	if c.cfg.Enabled() {
		msg = c.cfg.Endpoint
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy, Message: msg}
}
