package testutil

import (
	"context"
	"sync"

	"github.com/zjrosen/lootbox/internal/scene"
)

// FakeLoader is a model and texture capability whose requests can be held open
// and released in any order. Every model it returns has one group holding one mesh.
type FakeLoader struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	errs  map[string]error
	calls []string
}

func NewFakeLoader() *FakeLoader {
	return &FakeLoader{
		gates: make(map[string]chan struct{}),
		errs:  make(map[string]error),
	}
}

// Gate holds requests for locator until the returned release func is called.
// Releasing more than once is a no-op.
func (f *FakeLoader) Gate(locator string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[locator] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Hang holds requests for locator until their context is done.
func (f *FakeLoader) Hang(locator string) {
	f.Gate(locator)
}

// Fail makes requests for locator settle with err.
func (f *FakeLoader) Fail(locator string, err error) {
	f.mu.Lock()
	f.errs[locator] = err
	f.mu.Unlock()
}

// Calls returns the locators requested so far, in call order.
func (f *FakeLoader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeLoader) wait(ctx context.Context, locator string) error {
	f.mu.Lock()
	f.calls = append(f.calls, locator)
	gate := f.gates[locator]
	err := f.errs[locator]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *FakeLoader) LoadModel(ctx context.Context, locator string) (*scene.Model, error) {
	if err := f.wait(ctx, locator); err != nil {
		return nil, err
	}
	root := scene.NewGroup(locator, scene.NewMesh(locator+"#mesh"))
	return &scene.Model{Root: root, Locator: locator, Format: "fake"}, nil
}

func (f *FakeLoader) LoadTexture(ctx context.Context, locator string) (*scene.Texture, error) {
	if err := f.wait(ctx, locator); err != nil {
		return nil, err
	}
	return &scene.Texture{Locator: locator, Format: "fake", Width: 1, Height: 1}, nil
}
