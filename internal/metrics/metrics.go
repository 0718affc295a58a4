// Package metrics defines the OpenTelemetry counters and histograms
// internal/pipeline reports ingest/emit progress to, grounded on the
// teacher's internal/monitor (common/metrics_handle.go) pattern: a
// handle struct of pre-bound instruments, an attribute-set cache keyed
// by the low-cardinality label values this tool actually emits, and a
// constructor that surfaces every instrument-creation error joined
// together.
package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jacobsa/timeutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SourceKey annotates which producer a record count came from: "mft"
	// or "usnjrnl".
	SourceKey = "source"
)

var ingestMeter = otel.Meter("mft2bodyfile/ingest")

var sourceAttributeSet sync.Map

func getSourceAttributeSet(source string) metric.MeasurementOption {
	if v, ok := sourceAttributeSet.Load(source); ok {
		return v.(metric.MeasurementOption)
	}
	opt := metric.WithAttributeSet(attribute.NewSet(attribute.String(SourceKey, source)))
	v, _ := sourceAttributeSet.LoadOrStore(source, opt)
	return v.(metric.MeasurementOption)
}

// Handle is the bound set of instruments internal/pipeline reports to.
// It satisfies pipeline.Metrics.
type Handle struct {
	recordsIngested      metric.Int64Counter
	recordsSkipped       metric.Int64Counter
	bodyfileLinesEmitted metric.Int64Counter
	runDuration          metric.Float64Histogram

	clock timeutil.Clock
}

// New builds a Handle bound to the process-wide OTel meter provider
// (installed by internal/telemetry before this is called).
func New() (*Handle, error) {
	recordsIngested, err1 := ingestMeter.Int64Counter("mft2bodyfile/records_ingested",
		metric.WithDescription("Number of raw input records successfully decoded, by source."))
	recordsSkipped, err2 := ingestMeter.Int64Counter("mft2bodyfile/records_skipped",
		metric.WithDescription("Number of input records dropped before reconstruction, by source."))
	bodyfileLinesEmitted, err3 := ingestMeter.Int64Counter("mft2bodyfile/bodyfile_lines_emitted",
		metric.WithDescription("Number of bodyfile v3 lines written to the output sink."))
	runDuration, err4 := ingestMeter.Float64Histogram("mft2bodyfile/run_duration_seconds",
		metric.WithDescription("Wall-clock duration of a full ingest-merge-emit run."),
		metric.WithUnit("s"))

	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}

	return &Handle{
		recordsIngested:      recordsIngested,
		recordsSkipped:       recordsSkipped,
		bodyfileLinesEmitted: bodyfileLinesEmitted,
		runDuration:          runDuration,
		clock:                timeutil.RealClock(),
	}, nil
}

// RecordsIngested implements pipeline.Metrics.
func (h *Handle) RecordsIngested(ctx context.Context, source string, n int64) {
	h.recordsIngested.Add(ctx, n, getSourceAttributeSet(source))
}

// RecordsSkipped implements pipeline.Metrics.
func (h *Handle) RecordsSkipped(ctx context.Context, source string, n int64) {
	h.recordsSkipped.Add(ctx, n, getSourceAttributeSet(source))
}

// BodyfileLinesEmitted implements pipeline.Metrics.
func (h *Handle) BodyfileLinesEmitted(ctx context.Context, n int64) {
	h.bodyfileLinesEmitted.Add(ctx, n)
}

// StartRun returns a function that records the elapsed wall-clock time
// since it was called as a run_duration_seconds observation. Callers
// defer the returned function around a full pipeline.Run call.
func (h *Handle) StartRun(ctx context.Context) func() {
	start := h.clock.Now()
	return func() {
		h.runDuration.Record(ctx, time.Since(start).Seconds())
	}
}
