// Package formats fetches asset bytes and decodes them into scene handles.
package formats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/zjrosen/lootbox/internal/cachemanager"
	"github.com/zjrosen/lootbox/internal/log"
)

var ErrNotFound = errors.New("asset not found")

// Source fetches the raw bytes behind a locator.
type Source interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// FSSource serves locators from a file system. Locators are rooted paths such
// as "/models/level.glb".
type FSSource struct {
	fsys fs.FS
}

func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

func (s *FSSource) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(path.Clean("/"+locator), "/")
	data, err := fs.ReadFile(s.fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", locator, err)
	}
	return data, nil
}

// HTTPSource resolves locators against a base URL, so "/models/a.fbx" replaces
// the base path while "models/a.fbx" is relative to it.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client uses http.DefaultClient.
func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{base: base, client: client}, nil
}

// Resolve returns the absolute URL for locator.
func (s *HTTPSource) Resolve(locator string) (string, error) {
	ref, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse locator %q: %w", locator, err)
	}
	return s.base.ResolveReference(ref).String(), nil
}

func (s *HTTPSource) Fetch(ctx context.Context, locator string) ([]byte, error) {
	target, err := s.Resolve(locator)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("get %s: unexpected status %s", target, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", target, err)
	}
	log.Debug(log.CatFormats, "Fetched", "url", target, "bytes", len(data))
	return data, nil
}

// CachedSource keeps fetched bytes so repeated locators hit the network or
// disk once. Concurrent requests for one locator share a single fetch.
type CachedSource struct {
	cache *cachemanager.ReadThroughCache[string, []byte]
}

// NewCachedSource wraps src. ttl <= 0 keeps entries for the life of the process.
func NewCachedSource(src Source, ttl time.Duration) *CachedSource {
	var store cachemanager.CacheManager[string, []byte]
	if ttl > 0 {
		store = cachemanager.NewInMemoryCacheManager[string, []byte]("fetched-bytes", ttl, cachemanager.DefaultCleanupInterval)
	} else {
		store = cachemanager.NewPermanent[string, []byte]("fetched-bytes")
		ttl = cachemanager.NoExpiration
	}
	return &CachedSource{
		cache: cachemanager.NewReadThroughCache(store, src.Fetch, ttl),
	}
}

func (s *CachedSource) Fetch(ctx context.Context, locator string) ([]byte, error) {
	return s.cache.Get(ctx, locator)
}

// Stats reports cache hits and fetches made so far.
func (s *CachedSource) Stats() cachemanager.Stats {
	return s.cache.Stats()
}
