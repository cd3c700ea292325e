package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/loadqueue/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ShutdownFunc flushes and releases the meter provider
type ShutdownFunc func(context.Context) error

// Setup installs a global meter provider exporting to out every
// cfg.Interval and returns the scheduler metrics built on it. When telemetry
// is disabled the metrics use the current global provider, which records
// nothing unless one was installed elsewhere.
func Setup(cfg config.TelemetryConfig, out io.Writer, logger *slog.Logger) (*Metrics, ShutdownFunc, error) {
	if !cfg.Enabled {
		logger.Debug("telemetry disabled")
		metrics, err := NewMetrics(otel.GetMeterProvider().Meter(InstrumentationName))
		if err != nil {
			return nil, nil, err
		}
		return metrics, func(context.Context) error { return nil }, nil
	}

	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
	)
	otel.SetMeterProvider(provider)

	metrics, err := NewMetrics(provider.Meter(InstrumentationName))
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, nil, err
	}

	logger.Info("telemetry enabled", "interval", cfg.Interval)
	return metrics, provider.Shutdown, nil
}
