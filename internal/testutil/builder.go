package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/catalogue"
)

// CatalogueBuilder accumulates entries in declaration order.
type CatalogueBuilder struct {
	t       *testing.T
	entries []catalogue.AssetDescriptor
}

// NewCatalogue starts an empty catalogue builder.
func NewCatalogue(t *testing.T) *CatalogueBuilder {
	t.Helper()
	return &CatalogueBuilder{t: t}
}

// WithModel adds an FBX model entry at /models/<name>.fbx unless options say otherwise.
func (b *CatalogueBuilder) WithModel(name string, opts ...EntryOption) *CatalogueBuilder {
	d := defaultModel(name)
	for _, opt := range opts {
		opt(&d)
	}
	b.entries = append(b.entries, d)
	return b
}

// WithTexture adds a texture entry at /textures/<name>.png.
func (b *CatalogueBuilder) WithTexture(name string, opts ...EntryOption) *CatalogueBuilder {
	d := defaultTexture(name)
	for _, opt := range opts {
		opt(&d)
	}
	b.entries = append(b.entries, d)
	return b
}

// Build validates the entries and returns the catalogue.
func (b *CatalogueBuilder) Build() catalogue.Catalogue {
	b.t.Helper()
	cat, err := catalogue.New(b.entries...)
	require.NoError(b.t, err)
	return cat
}
