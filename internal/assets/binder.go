package assets

import (
	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

// Binder maps registered textures onto model surfaces.
type Binder struct {
	registry *Registry
}

// NewBinder creates a binder resolving texture names against registry.
func NewBinder(registry *Registry) *Binder {
	return &Binder{registry: registry}
}

// Apply sets the appearance map of every surface under model to the texture
// registered as textureName and returns how many surfaces it wrote.
// An unknown texture name is a no-op.
func (b *Binder) Apply(model *scene.Model, textureName string) int {
	tex, ok := b.registry.Texture(textureName)
	if !ok {
		log.Debug(log.CatRegistry, "bind skipped, texture not registered", "texture", textureName)
		return 0
	}
	if model == nil {
		return 0
	}

	n := 0
	scene.Walk(model.Root, func(node scene.Node) {
		if s, ok := node.(scene.Surface); ok {
			s.SetAppearanceMap(tex)
			n++
		}
	})
	log.Debug(log.CatRegistry, "texture bound", "texture", textureName, "model", model.Locator, "surfaces", n)
	return n
}

// ApplyByName resolves modelName in the registry and applies textureName to it.
// The bool reports whether the model was found.
func (b *Binder) ApplyByName(modelName, textureName string) (int, bool) {
	model, ok := b.registry.Model(modelName)
	if !ok {
		return 0, false
	}
	return b.Apply(model, textureName), true
}
