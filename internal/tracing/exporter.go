package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// FileExporter appends one SpanRecord per line to a file, so the requests of
// a session can be filtered with jq or read back with ReadSpanRecords.
type FileExporter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

// NewFileExporter opens path for appending, creating it and its parent
// directories when missing.
func NewFileExporter(path string) (*FileExporter, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path is cleaned above
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &FileExporter{file: file, buf: bufio.NewWriter(file)}, nil
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *FileExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	if len(spans) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return errors.New("trace file exporter is shut down")
	}

	enc := json.NewEncoder(e.buf)
	for _, span := range spans {
		if err := enc.Encode(NewSpanRecord(span)); err != nil {
			return fmt.Errorf("encode span: %w", err)
		}
	}
	return e.buf.Flush()
}

// Shutdown implements sdktrace.SpanExporter. Later calls are no-ops.
func (e *FileExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	err := errors.Join(e.buf.Flush(), e.file.Close())
	e.file, e.buf = nil, nil
	return err
}

// SpanRecord is one exported span of a load session. Session spans carry
// Total and Failed; request spans carry the asset fields.
type SpanRecord struct {
	TraceID    string    `json:"trace_id"`
	SpanID     string    `json:"span_id"`
	ParentID   string    `json:"parent_id,omitempty"`
	Name       string    `json:"name"`
	SessionID  string    `json:"session_id,omitempty"`
	Asset      string    `json:"asset,omitempty"`
	Locator    string    `json:"locator,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Variant    string    `json:"variant,omitempty"`
	Total      *int64    `json:"total,omitempty"`
	Failed     *int64    `json:"failed,omitempty"`
	Start      time.Time `json:"start"`
	DurationMs float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Events     []string  `json:"events,omitempty"`
}

// OK reports whether the span did not end in error.
func (r SpanRecord) OK() bool { return r.Error == "" }

// NewSpanRecord flattens span into a SpanRecord.
func NewSpanRecord(span sdktrace.ReadOnlySpan) SpanRecord {
	rec := SpanRecord{
		TraceID:    span.SpanContext().TraceID().String(),
		SpanID:     span.SpanContext().SpanID().String(),
		Name:       span.Name(),
		Start:      span.StartTime(),
		DurationMs: float64(span.EndTime().Sub(span.StartTime()).Microseconds()) / 1000,
	}
	if parent := span.Parent(); parent.IsValid() {
		rec.ParentID = parent.SpanID().String()
	}
	if status := span.Status(); status.Code == codes.Error {
		rec.Error = status.Description
		if rec.Error == "" {
			rec.Error = "error"
		}
	}

	for _, kv := range span.Attributes() {
		switch kv.Key {
		case AttrSessionID:
			rec.SessionID = kv.Value.AsString()
		case AttrAssetName:
			rec.Asset = kv.Value.AsString()
		case AttrAssetLocator:
			rec.Locator = kv.Value.AsString()
		case AttrAssetKind:
			rec.Kind = kv.Value.AsString()
		case AttrAssetVariant:
			rec.Variant = kv.Value.AsString()
		case AttrSessionTotal:
			rec.Total = int64Attr(kv)
		case AttrSessionFailed:
			rec.Failed = int64Attr(kv)
		}
	}
	for _, ev := range span.Events() {
		rec.Events = append(rec.Events, ev.Name)
	}
	return rec
}

func int64Attr(kv attribute.KeyValue) *int64 {
	v := kv.Value.AsInt64()
	return &v
}

// ReadSpanRecords decodes every record written by a FileExporter.
func ReadSpanRecords(r io.Reader) ([]SpanRecord, error) {
	dec := json.NewDecoder(r)
	var out []SpanRecord
	for {
		var rec SpanRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("decode span record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
}
