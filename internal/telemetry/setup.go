// Package telemetry wires the process to an OTLP collector endpoint.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	sloglogrus "github.com/samber/slog-logrus/v2"
	slogmulti "github.com/samber/slog-multi"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	logsdk "go.opentelemetry.io/otel/sdk/log"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"golang.org/x/sync/errgroup"
)

// Client owns the signal providers for one process. A nil Client is a
// valid "telemetry disabled" state.
type Client struct {
	log *slog.Logger

	metrics *metricsdk.MeterProvider
	traces  *tracesdk.TracerProvider
	logs    *logsdk.LoggerProvider
}

// Setup connects metrics, traces and logs to the collector at endpoint
// and installs the providers globally. An empty endpoint disables
// telemetry and returns a nil client.
func Setup(ctx context.Context, appName, endpoint string) (*Client, error) {
	if endpoint == "" {
		return nil, nil
	}

	client := &Client{
		log: slog.With("component", "telemetry"),
	}
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(cause error) {
		client.log.ErrorContext(ctx, "otel error", "error", cause.Error())
	}))

	res, err := processResource(appName)
	if err != nil {
		return nil, err
	}

	if err := client.setupMetrics(ctx, res, endpoint); err != nil {
		return nil, fmt.Errorf("metrics setup: %w", err)
	}
	if err := client.setupTraces(ctx, res, endpoint); err != nil {
		return nil, fmt.Errorf("traces setup: %w", err)
	}
	if err := client.setupLogs(ctx, res, endpoint); err != nil {
		return nil, fmt.Errorf("logs setup: %w", err)
	}

	// the default logger now fans out to the collector, pick up a fresh
	// component logger from it
	client.log = slog.With("component", "telemetry")
	client.log.InfoContext(ctx, "telemetry initialized", "endpoint", endpoint)

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

	return client, nil
}

// processResource identifies this process instance to the collector.
func processResource(appName string) (*resource.Resource, error) {
	hostName, _ := os.Hostname()
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(appName),
			semconv.HostName(hostName),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
}

func (client *Client) setupMetrics(ctx context.Context, res *resource.Resource, endpoint string) error {
	otlpExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(endpoint),
		otlpmetrichttp.WithRetry(otlpmetrichttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return err
	}
	promExporter, err := prometheus.New()
	if err != nil {
		return err
	}

	client.metrics = metricsdk.NewMeterProvider(
		metricsdk.WithResource(res),
		metricsdk.WithReader(metricsdk.NewPeriodicReader(otlpExporter)),
		metricsdk.WithReader(promExporter),
	)
	otel.SetMeterProvider(client.metrics)

	// heartbeat, lets dashboards distinguish "down" from "never up"
	up, err := otel.Meter("telemetry").Int64Counter("up")
	if err != nil {
		return err
	}
	up.Add(ctx, 1)

	return nil
}

func (client *Client) setupTraces(ctx context.Context, res *resource.Resource, endpoint string) error {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithRetry(otlptracehttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return err
	}

	client.traces = tracesdk.NewTracerProvider(
		tracesdk.WithResource(res),
		tracesdk.WithBatcher(exporter, tracesdk.WithExportTimeout(time.Second)),
	)
	otel.SetTracerProvider(client.traces)

	return nil
}

func (client *Client) setupLogs(ctx context.Context, res *resource.Resource, endpoint string) error {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpoint(endpoint),
		otlploghttp.WithRetry(otlploghttp.RetryConfig{Enabled: false}),
	)
	if err != nil {
		return err
	}

	client.logs = logsdk.NewLoggerProvider(
		logsdk.WithResource(res),
		logsdk.WithProcessor(logsdk.NewBatchProcessor(exporter, logsdk.WithExportInterval(time.Second))),
	)

	slog.SetDefault(slog.New(slogmulti.Fanout(
		otelslog.NewHandler("", otelslog.WithLoggerProvider(client.logs)),
		sloglogrus.Option{Level: slog.LevelDebug, Logger: logrus.StandardLogger()}.NewLogrusHandler(),
	)))

	return nil
}

// Flush pushes buffered telemetry out before an exit.
func (client *Client) Flush(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if client.metrics != nil {
		g.Go(func() error { return client.metrics.ForceFlush(ctx) })
	}
	if client.traces != nil {
		g.Go(func() error { return client.traces.ForceFlush(ctx) })
	}
	if client.logs != nil {
		g.Go(func() error { return client.logs.ForceFlush(ctx) })
	}

	return g.Wait()
}

// Shutdown stops the providers. Errors are logged, not returned: at
// shutdown there is nothing left to do about them.
func (client *Client) Shutdown(ctx context.Context) {
	if client.metrics != nil {
		if err := client.metrics.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down metric provider", "error", err.Error())
		}
	}
	if client.traces != nil {
		if err := client.traces.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down tracer provider", "error", err.Error())
		}
	}
	if client.logs != nil {
		if err := client.logs.Shutdown(ctx); err != nil {
			client.log.ErrorContext(ctx, "error shutting down logger provider", "error", err.Error())
		}
	}
}
