package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/observability/logger"
	"github.com/smallbiznis/pathway/internal/observability/metrics"
	"github.com/smallbiznis/pathway/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.NewLevel,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		providePrometheusRegisterer,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(ensureTracingProvider),
	fx.Invoke(watchLogLevel),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func providePrometheusRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

// watchLogLevel applies log_level changes from the hot-reloaded catalog file.
func watchLogLevel(holder *config.ProcessCatalogHolder, level zap.AtomicLevel, log *zap.Logger) {
	holder.OnChange(func(cfg config.ProcessCatalog) {
		if err := logger.SetLevel(level, cfg.LogLevel); err != nil {
			log.Warn("log level change ignored", zap.Error(err))
			return
		}
		log.Info("log level changed", zap.String("level", level.String()))
	})
}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
