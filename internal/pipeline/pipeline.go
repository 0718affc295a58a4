// Package pipeline orchestrates the two ingest producers
// (internal/mftbin for $MFT, internal/usnjrnl for $UsnJrnl:$J) and the
// merge/emit phases described in spec.md §5, using
// github.com/jacobsa/syncutil.Bundle for the same goroutine-group-with-
// barrier pattern the teacher repo uses for its own concurrent
// filesystem operations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jacobsa/syncutil"

	"github.com/ntfs-forensics/mft2bodyfile/internal/bodyfile"
	"github.com/ntfs-forensics/mft2bodyfile/internal/logger"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftbin"
	"github.com/ntfs-forensics/mft2bodyfile/internal/mftrecord"
	"github.com/ntfs-forensics/mft2bodyfile/internal/preprocessed"
	"github.com/ntfs-forensics/mft2bodyfile/internal/usnjrnl"
)

// Metrics is the subset of internal/metrics.Handle the pipeline reports
// ingest progress to. Kept as a small local interface so this package
// never imports the OTel SDK directly.
type Metrics interface {
	RecordsIngested(ctx context.Context, source string, n int64)
	RecordsSkipped(ctx context.Context, source string, n int64)
	BodyfileLinesEmitted(ctx context.Context, n int64)
}

// noopMetrics satisfies Metrics when the caller doesn't care to wire one up.
type noopMetrics struct{}

func (noopMetrics) RecordsIngested(context.Context, string, int64) {}
func (noopMetrics) RecordsSkipped(context.Context, string, int64)  {}
func (noopMetrics) BodyfileLinesEmitted(context.Context, int64)     {}

// Options configures a single Run.
type Options struct {
	MftReader        io.Reader
	UsnjrnlReader    io.ReadSeeker // nil if --journal was not given
	UsnjrnlLongFlags bool
	Metrics          Metrics
}

// Run ingests $MFT (and optionally $UsnJrnl:$J), merges the journal
// records into the reconstructed tree, and streams bodyfile v3 lines
// to w. It implements spec.md §5's two-producer/barrier/merge/emit
// pipeline end to end.
func Run(ctx context.Context, opts Options, w io.Writer) (err error) {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}

	mft := preprocessed.New()
	journalIndex := usnjrnl.NewIndex()

	b := syncutil.NewBundle(ctx)

	b.Add(func(ctx context.Context) error {
		return ingestMft(ctx, opts.MftReader, mft, metrics)
	})

	if opts.UsnjrnlReader != nil {
		b.Add(func(ctx context.Context) error {
			return ingestUsnjrnl(ctx, opts.UsnjrnlReader, journalIndex, metrics)
		})
	}

	if err := b.Join(); err != nil {
		return fmt.Errorf("pipeline: ingest phase: %w", err)
	}

	mergeJournal(mft, journalIndex)

	return emit(ctx, mft, opts.UsnjrnlLongFlags, w, metrics)
}

func ingestMft(ctx context.Context, r io.Reader, mft *preprocessed.Mft, metrics Metrics) error {
	rd := mftbin.NewReader(r)
	var ingested, skipped int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading $MFT record: %w", err)
		}

		if skip, reason := preprocessed.ShouldSkipRecord(rec); skip {
			logger.Infof("skipping $MFT record %d: %s", rec.RecordNumber(), reason)
			skipped++
			continue
		}

		if err := addRecord(mft, rec); err != nil {
			logger.Errorf("$MFT record %d: %v", rec.RecordNumber(), err)
			continue
		}
		ingested++
	}

	metrics.RecordsIngested(ctx, "mft", ingested)
	metrics.RecordsSkipped(ctx, "mft", skipped)
	return nil
}

func addRecord(mft *preprocessed.Mft, rec mftrecord.Record) error {
	return mft.AddEntry(rec)
}

func ingestUsnjrnl(ctx context.Context, r io.ReadSeeker, idx *usnjrnl.Index, metrics Metrics) error {
	rd := usnjrnl.NewReader(r)
	var ingested int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := rd.Next()
		if errors.Is(err, usnjrnl.ErrNoMoreData) || errors.Is(err, io.EOF) {
			break
		}
		var unsupported *usnjrnl.ErrUnsupportedVersion
		if errors.As(err, &unsupported) {
			logger.Warnf("skipping $UsnJrnl record: %v", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading $UsnJrnl record: %w", err)
		}

		idx.Insert(rec)
		ingested++
	}

	metrics.RecordsIngested(ctx, "usnjrnl", ingested)
	return nil
}

// mergeJournal drains the journal index into the reconstructed tree,
// per spec.md §5's merge phase: strictly sequential, after both
// producers have joined, so no synchronization is needed here.
func mergeJournal(mft *preprocessed.Mft, idx *usnjrnl.Index) {
	for _, bucket := range idx.Drain() {
		mft.AddUsnjrnlRecords(bucket.Reference, bucket.Records)
	}
}

func emit(ctx context.Context, mft *preprocessed.Mft, longFlags bool, w io.Writer, metrics Metrics) error {
	bw := newBatchedWriter(w)
	var emitted int64

	for line := range mft.IterBodyfileLines(longFlags) {
		if err := bw.writeLine(line); err != nil {
			return fmt.Errorf("pipeline: writing bodyfile line: %w", err)
		}
		emitted++
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("pipeline: flushing output: %w", err)
	}

	metrics.BodyfileLinesEmitted(ctx, emitted)
	return nil
}

// batchedWriter is a tiny buffering wrapper so the emit phase does not
// issue one syscall per bodyfile line.
type batchedWriter struct {
	w   io.Writer
	buf []byte
}

func newBatchedWriter(w io.Writer) *batchedWriter {
	return &batchedWriter{w: w, buf: make([]byte, 0, 64*1024)}
}

func (bw *batchedWriter) writeLine(l bodyfile.Line) error {
	bw.buf = append(bw.buf, l.String()...)
	bw.buf = append(bw.buf, '\n')
	if len(bw.buf) >= 32*1024 {
		return bw.Flush()
	}
	return nil
}

func (bw *batchedWriter) Flush() error {
	if len(bw.buf) == 0 {
		return nil
	}
	_, err := bw.w.Write(bw.buf)
	bw.buf = bw.buf[:0]
	return err
}
