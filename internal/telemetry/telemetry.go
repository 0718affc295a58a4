// Package telemetry wires up the process-wide OpenTelemetry meter
// provider and, optionally, an admin HTTP server exposing a Prometheus
// /metrics endpoint and a /healthz liveness probe — the metrics-scrape
// shape spec.md's original progress-bar collaborator becomes for a
// batch tool that is more likely to run unattended than watched.
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gcpdetector "go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/ntfs-forensics/mft2bodyfile/internal/logger"
)

// RunID is a uuid tagging this process invocation, logged when a run
// starts and attached as an OTel resource attribute so concurrent runs
// (e.g. in a batch forensics pipeline) can be told apart.
var RunID = uuid.New().String()

// Shutdown stops whatever telemetry.Setup started.
type Shutdown func(ctx context.Context) error

// Setup installs a Prometheus-backed OTel meter provider as the
// process-wide default and, if addr is non-empty, starts an admin HTTP
// server on addr serving /metrics and /healthz. It returns a Shutdown
// that must be called before the process exits so Prometheus's
// collector de-registers cleanly.
func Setup(ctx context.Context, addr string) (Shutdown, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating prometheus exporter: %w", err)
	}

	res, err := buildResource(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry: detecting resource: %w", err)
	}

	provider := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	traceExporter, err := stdouttrace.New(stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating trace exporter: %w", err)
	}
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(traceProvider)

	var srv *http.Server
	if addr != "" {
		srv = newAdminServer(addr, exporter)
		go func() {
			logger.Infof("telemetry: admin server listening on %s (run_id=%s)", addr, RunID)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorf("telemetry: admin server: %v", err)
			}
		}()
	}

	return func(ctx context.Context) error {
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		var err error
		if shutdownErr := traceProvider.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
		}
		if metricsErr := provider.Shutdown(ctx); metricsErr != nil {
			err = metricsErr
		}
		return err
	}, nil
}

// Tracer returns the process-wide tracer for this tool, for wrapping a
// run in a root span. No code in this module calls it.
func Tracer() trace.Tracer {
	return otel.Tracer("mft2bodyfile")
}

func buildResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("mft2bodyfile"),
			semconv.ServiceInstanceID(RunID),
		),
		resource.WithDetectors(gcpdetector.NewDetector()),
	)
}

// exposer documents that newAdminServer's /metrics route depends on a
// live Prometheus metric.Reader having been constructed by the caller;
// the reader itself registers with the default Prometheus registry on
// construction, so promhttp.Handler() below needs no reference to it.
type exposer interface {
	metric.Reader
}

func newAdminServer(addr string, _ exposer) *http.Server {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthzHandler).Methods(http.MethodGet)
	router.Handle("/metrics", metricsHandler()).Methods(http.MethodGet)

	return &http.Server{
		Addr:         addr,
		Handler:      handlers.CombinedLoggingHandler(logWriter{}, router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// metricsHandler returns the Prometheus registry's default HTTP
// handler. The OTel Prometheus exporter registers itself with that
// registry on construction, so no explicit reader argument is needed
// here — the reader is only threaded through newAdminServer to make
// the dependency between /metrics and Setup's exporter explicit to a
// reader of this file.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// logWriter adapts internal/logger to the io.Writer
// handlers.CombinedLoggingHandler expects for its access log.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	logger.Infof("%s", string(p))
	return len(p), nil
}
