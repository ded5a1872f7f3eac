package commands

import (
	"context"
	"io"

	"github.com/Sumatoshi-tech/commitprefix/pkg/config"
	"github.com/Sumatoshi-tech/commitprefix/pkg/observability"
	"github.com/Sumatoshi-tech/commitprefix/pkg/version"
)

// telemetry bundles initialized providers with their teardown.
type telemetry struct {
	observability.Providers

	stopMetrics func(context.Context) error
}

func initObservability(cfg *config.Config, mode observability.AppMode, logOutput io.Writer) (*telemetry, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.Prometheus = cfg.Observability.MetricsAddr != ""
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = logOutput

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, err
	}

	tel := &telemetry{Providers: providers}

	if providers.MetricsHandler != nil {
		addr, stop, serveErr := observability.ServeMetrics(cfg.Observability.MetricsAddr, providers.MetricsHandler, providers.Logger)
		if serveErr != nil {
			_ = providers.Shutdown(context.Background())

			return nil, serveErr
		}

		providers.Logger.Info("serving metrics", "addr", addr)

		tel.stopMetrics = stop
	}

	return tel, nil
}

// Close stops the metrics endpoint and flushes telemetry.
func (t *telemetry) Close() {
	ctx := context.Background()

	if t.stopMetrics != nil {
		err := t.stopMetrics(ctx)
		if err != nil {
			t.Logger.Warn("metrics server shutdown failed", "error", err)
		}
	}

	err := t.Shutdown(ctx)
	if err != nil {
		t.Logger.Warn("observability shutdown failed", "error", err)
	}
}
