package formats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFSSource_Fetch(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"models/coins.fbx": &fstest.MapFile{Data: []byte("coins")},
	})

	data, err := src.Fetch(context.Background(), "/models/coins.fbx")
	require.NoError(t, err)
	require.Equal(t, "coins", string(data))

	data, err = src.Fetch(context.Background(), "models/../models/coins.fbx")
	require.NoError(t, err)
	require.Equal(t, "coins", string(data))

	_, err = src.Fetch(context.Background(), "/models/missing.fbx")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFSSource_CancelledContext(t *testing.T) {
	src := NewFSSource(fstest.MapFS{"a": &fstest.MapFile{Data: []byte("a")}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Fetch(ctx, "/a")
	require.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSource_Resolve(t *testing.T) {
	src, err := NewHTTPSource("https://cdn.example.com/game/index.html", nil)
	require.NoError(t, err)

	tests := []struct {
		locator string
		want    string
	}{
		{"/models/level.glb", "https://cdn.example.com/models/level.glb"},
		{"models/level.glb", "https://cdn.example.com/game/models/level.glb"},
		{"../textures/atlas.png", "https://cdn.example.com/textures/atlas.png"},
		{"https://other.example.com/x.fbx", "https://other.example.com/x.fbx"},
	}
	for _, tt := range tests {
		t.Run(tt.locator, func(t *testing.T) {
			got, err := src.Resolve(tt.locator)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewHTTPSource_RejectsRelativeBase(t *testing.T) {
	_, err := NewHTTPSource("/assets", nil)
	require.Error(t, err)
}

func TestHTTPSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/coins.fbx":
			_, _ = w.Write([]byte("fbx-bytes"))
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := NewHTTPSource(srv.URL+"/", srv.Client())
	require.NoError(t, err)

	data, err := src.Fetch(context.Background(), "/models/coins.fbx")
	require.NoError(t, err)
	require.Equal(t, "fbx-bytes", string(data))

	_, err = src.Fetch(context.Background(), "/models/missing.fbx")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = src.Fetch(context.Background(), "/broken")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
	require.Contains(t, err.Error(), "500")
}

type countingSource struct {
	calls atomic.Int32
	data  []byte
	err   error
}

func (s *countingSource) Fetch(context.Context, string) ([]byte, error) {
	s.calls.Add(1)
	return s.data, s.err
}

func TestCachedSource_FetchesOnce(t *testing.T) {
	inner := &countingSource{data: []byte("png")}
	src := NewCachedSource(inner, 0)

	for range 3 {
		data, err := src.Fetch(context.Background(), "/textures/atlas.png")
		require.NoError(t, err)
		require.Equal(t, "png", string(data))
	}
	require.Equal(t, int32(1), inner.calls.Load())

	_, err := src.Fetch(context.Background(), "/textures/other.png")
	require.NoError(t, err)
	require.Equal(t, int32(2), inner.calls.Load())
	require.Equal(t, int64(2), src.Stats().Hits)
	require.Equal(t, int64(2), src.Stats().Fills)
}

func TestCachedSource_DoesNotCacheErrors(t *testing.T) {
	inner := &countingSource{err: ErrNotFound}
	src := NewCachedSource(inner, time.Minute)

	for range 2 {
		_, err := src.Fetch(context.Background(), "/missing")
		require.ErrorIs(t, err, ErrNotFound)
	}
	require.Equal(t, int32(2), inner.calls.Load())
}
