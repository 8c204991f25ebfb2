package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/exporters/autoexport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	logglobal "go.opentelemetry.io/otel/log/global"
	logsdk "go.opentelemetry.io/otel/sdk/log"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
)

// setupTelemetry configures the server's exporters through the OTEL_*
// environment, with prometheus always attached for /metrics.
func setupTelemetry(ctx context.Context) error {
	// otel defaults otlp exporters to localhost, which floods logs when
	// no collector is running; default to none unless configured
	for _, key := range []string{
		"OTEL_TRACES_EXPORTER",
		"OTEL_LOGS_EXPORTER",
		"OTEL_METRICS_EXPORTER",
	} {
		if _, ok := os.LookupEnv(key); !ok {
			os.Setenv(key, "none")
		}
	}

	promExporter, err := prometheus.New(prometheus.WithNamespace("geosdr"))
	if err != nil {
		return fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}
	metricReader, err := autoexport.NewMetricReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize metric reader: %w", err)
	}
	otel.SetMeterProvider(metricsdk.NewMeterProvider(
		metricsdk.WithReader(promExporter),
		metricsdk.WithReader(metricReader),
	))

	spanExporter, err := autoexport.NewSpanExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize trace exporter: %w", err)
	}
	otel.SetTracerProvider(tracesdk.NewTracerProvider(tracesdk.WithBatcher(spanExporter)))

	logExporter, err := autoexport.NewLogExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize log exporter: %w", err)
	}
	logglobal.SetLoggerProvider(logsdk.NewLoggerProvider(
		logsdk.WithProcessor(logsdk.NewBatchProcessor(logExporter)),
	))

	slog.SetDefault(slog.New(slogmulti.Fanout(
		sloglogrus.Option{Level: slog.LevelDebug, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
		otelslog.NewHandler(""),
	)))

	return nil
}
