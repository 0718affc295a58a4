// Package sink resolves the --output flag into a writer: stdout, a
// local file, or a gs://bucket/object URL. Grounded on the teacher's
// own GCS client construction in
// benchmarks/concurrent_read/readers/google.go — plain
// cloud.google.com/go/storage with application-default credentials via
// golang.org/x/oauth2/google, rather than the teacher's own GCS-specific
// fork (github.com/jacobsa/gcloud), since this tool is a client of GCS,
// not a from-scratch filesystem adapter over it.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/ntfs-forensics/mft2bodyfile/internal/logger"
)

// Sink is an output destination that must be finalized (flushed/
// uploaded/closed) once the caller is done writing to it.
type Sink interface {
	io.Writer
	Close() error
}

// Open resolves target into a Sink:
//
//   - "" or "-"          -> os.Stdout (Close is a no-op)
//   - "gs://bucket/obj"  -> a spooled local temp file, uploaded to GCS on Close
//   - anything else      -> a local file opened for writing
func Open(ctx context.Context, target string) (Sink, error) {
	switch {
	case target == "" || target == "-":
		return stdoutSink{}, nil
	case strings.HasPrefix(target, "gs://"):
		return newGCSSink(ctx, target)
	default:
		f, err := os.Create(target)
		if err != nil {
			return nil, fmt.Errorf("sink: creating output file %q: %w", target, err)
		}
		return fileSink{f}, nil
	}
}

type stdoutSink struct{}

func (stdoutSink) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdoutSink) Close() error                { return nil }

type fileSink struct{ f *os.File }

func (s fileSink) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s fileSink) Close() error                { return s.f.Close() }

// gcsSink spools bodyfile output to a local temp file (GCS objects are
// not appendable, so the streaming emit phase writes locally) and
// uploads the whole thing in one io.Copy on Close.
type gcsSink struct {
	ctx    context.Context
	client *storage.Client
	bucket string
	object string
	spool  *os.File
}

func parseGCSURL(target string) (bucket, object string, err error) {
	trimmed := strings.TrimPrefix(target, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("sink: %q is not a valid gs://bucket/object URL", target)
	}
	return parts[0], parts[1], nil
}

func newGCSSink(ctx context.Context, target string) (*gcsSink, error) {
	bucket, object, err := parseGCSURL(target)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("sink: creating GCS client: %w", err)
	}

	spool, err := os.CreateTemp("", "mft2bodyfile-*.bodyfile")
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sink: creating spool file: %w", err)
	}

	return &gcsSink{ctx: ctx, client: client, bucket: bucket, object: object, spool: spool}, nil
}

func (s *gcsSink) Write(p []byte) (int, error) {
	return s.spool.Write(p)
}

// Close uploads the spooled content to GCS, then cleans up the local
// temp file and the client, logging clearly so users watching a batch
// job are not surprised that the last visible step is "uploading".
func (s *gcsSink) Close() error {
	defer func() {
		_ = s.client.Close()
		name := s.spool.Name()
		_ = s.spool.Close()
		_ = os.Remove(name)
	}()

	if _, err := s.spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("sink: rewinding spool file: %w", err)
	}

	logger.Infof("sink: uploading bodyfile to gs://%s/%s", s.bucket, s.object)
	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(s.ctx)
	if _, err := io.Copy(w, s.spool); err != nil {
		_ = w.Close()
		return fmt.Errorf("sink: uploading to gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sink: finalizing upload to gs://%s/%s: %w", s.bucket, s.object, err)
	}
	logger.Infof("sink: upload complete")
	return nil
}
