package tracing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func exportStubs(t *testing.T, path string, stubs ...tracetest.SpanStub) {
	t.Helper()
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)
	spans := make([]sdktrace.ReadOnlySpan, len(stubs))
	for i, s := range stubs {
		spans[i] = s.Snapshot()
	}
	require.NoError(t, exporter.ExportSpans(context.Background(), spans))
	require.NoError(t, exporter.ExportSpans(context.Background(), nil))
	require.NoError(t, exporter.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()), "second shutdown is a no-op")
}

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	records, err := ReadSpanRecords(f)
	require.NoError(t, err)
	return records
}

func TestFileExporter_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "traces.jsonl")

	exportStubs(t, path, tracetest.SpanStub{Name: SpanLoadSession})

	require.Len(t, readRecords(t, path), 1)
}

func TestFileExporter_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	exportStubs(t, path, tracetest.SpanStub{Name: SpanLoadSession})
	exportStubs(t, path, tracetest.SpanStub{Name: SpanLoadSession})

	require.Len(t, readRecords(t, path), 2)
}

func TestFileExporter_ExportAfterShutdown(t *testing.T) {
	exporter, err := NewFileExporter(filepath.Join(t.TempDir(), "traces.jsonl"))
	require.NoError(t, err)
	require.NoError(t, exporter.Shutdown(context.Background()))

	stub := tracetest.SpanStub{Name: SpanAssetLoad}
	err = exporter.ExportSpans(context.Background(), []sdktrace.ReadOnlySpan{stub.Snapshot()})
	require.ErrorContains(t, err, "shut down")
}

func TestFileExporter_FlattensSessionAndRequestSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	start := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)

	session := tracetest.SpanStub{
		Name:      SpanLoadSession,
		StartTime: start,
		EndTime:   start.Add(120 * time.Millisecond),
		Attributes: []attribute.KeyValue{
			AttrSessionID.String("session-1"),
			AttrSessionTotal.Int(7),
			AttrSessionFailed.Int(1),
		},
		Events: []sdktrace.Event{{Name: EventSessionSealed}, {Name: EventSessionSettled}},
	}
	request := tracetest.SpanStub{
		Name:      SpanAssetLoad,
		StartTime: start,
		EndTime:   start.Add(25 * time.Millisecond),
		Status:    sdktrace.Status{Code: codes.Error, Description: "not found"},
		Attributes: []attribute.KeyValue{
			AttrSessionID.String("session-1"),
			AttrAssetName.String("coins"),
			AttrAssetLocator.String("/models/coins.fbx"),
			AttrAssetKind.String("model"),
			AttrAssetVariant.String("fbx"),
		},
	}
	exportStubs(t, path, session, request)

	records := readRecords(t, path)
	require.Len(t, records, 2)

	s := records[0]
	require.Equal(t, SpanLoadSession, s.Name)
	require.Equal(t, "session-1", s.SessionID)
	require.NotNil(t, s.Total)
	require.Equal(t, int64(7), *s.Total)
	require.Equal(t, int64(1), *s.Failed)
	require.Equal(t, []string{EventSessionSealed, EventSessionSettled}, s.Events)
	require.InDelta(t, 120.0, s.DurationMs, 0.001)
	require.True(t, s.OK())
	require.True(t, s.Start.Equal(start))

	r := records[1]
	require.Equal(t, SpanAssetLoad, r.Name)
	require.Equal(t, "coins", r.Asset)
	require.Equal(t, "/models/coins.fbx", r.Locator)
	require.Equal(t, "model", r.Kind)
	require.Equal(t, "fbx", r.Variant)
	require.Nil(t, r.Total)
	require.False(t, r.OK())
	require.Equal(t, "not found", r.Error)
}

func TestReadSpanRecords_Malformed(t *testing.T) {
	records, err := ReadSpanRecords(strings.NewReader(`{"name":"load.session"}` + "\n{oops\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "span record 2")
	require.Len(t, records, 1)
}
