// Package observability wires tracing and continuous profiling.
package observability

import (
	"context"

	"github.com/uptrace/uptrace-go/uptrace"

	"github.com/bierschi/comunioscore/internal/config"
	"github.com/bierschi/comunioscore/internal/platform/logging"
)

// InitUptrace configures the global OpenTelemetry providers. The returned
// shutdown flushes pending spans.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.UptraceEnabled {
		logger.Info("uptrace disabled")
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
	)

	logger.Info("uptrace enabled",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"environment", cfg.AppEnv,
	)
	return uptrace.Shutdown, nil
}
