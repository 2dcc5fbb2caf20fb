// Package assets holds loaded models and textures under their logical names
// and rebinds textures onto model surfaces.
package assets

import (
	"context"
	"slices"
	"sync"

	"github.com/zjrosen/lootbox/internal/cachemanager"
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

// Registry maps logical names to loaded assets. Lookups before a load session
// settles may legitimately miss; absence is reported, never an error.
// A Registry is safe for concurrent use.
type Registry struct {
	models   cachemanager.CacheManager[string, *scene.Model]
	textures cachemanager.CacheManager[string, *scene.Texture]

	mu   sync.RWMutex
	loot []string
}

// NewRegistry creates an empty registry. Entries never expire.
func NewRegistry() *Registry {
	return &Registry{
		models:   cachemanager.NewPermanent[string, *scene.Model]("models"),
		textures: cachemanager.NewPermanent[string, *scene.Texture]("textures"),
	}
}

// SetModel stores a model under name, replacing any previous entry.
func (r *Registry) SetModel(name string, m *scene.Model) {
	r.models.Set(context.Background(), name, m, cachemanager.NoExpiration)
	log.Debug(log.CatRegistry, "model registered", "name", name)
}

// SetTexture stores a texture under name, replacing any previous entry.
func (r *Registry) SetTexture(name string, tex *scene.Texture) {
	r.textures.Set(context.Background(), name, tex, cachemanager.NoExpiration)
	log.Debug(log.CatRegistry, "texture registered", "name", name)
}

// Model returns the model registered under name.
func (r *Registry) Model(name string) (*scene.Model, bool) {
	return r.models.Get(context.Background(), name)
}

// Texture returns the texture registered under name.
func (r *Registry) Texture(name string) (*scene.Texture, bool) {
	return r.textures.Get(context.Background(), name)
}

// RecordLoot appends name to the loot list. The model does not need to be
// registered yet.
func (r *Registry) RecordLoot(name string) {
	r.mu.Lock()
	r.loot = append(r.loot, name)
	r.mu.Unlock()
}

// LootNames returns the loot list in recording order.
func (r *Registry) LootNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.loot)
}

// ModelNames returns the registered model names, sorted.
func (r *Registry) ModelNames() []string {
	return r.models.Keys(context.Background())
}

// TextureNames returns the registered texture names, sorted.
func (r *Registry) TextureNames() []string {
	return r.textures.Keys(context.Background())
}

// MissingLoot returns loot names with no registered model, in loot order.
func (r *Registry) MissingLoot() []string {
	var missing []string
	for _, name := range r.LootNames() {
		if _, ok := r.Model(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
