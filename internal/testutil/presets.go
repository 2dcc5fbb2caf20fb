package testutil

import (
	"github.com/zjrosen/lootbox/internal/scene"
)

// WithLootScene adds a small version of the default scene:
//
//	level      (glb)
//	chest-body (fbx)
//	chest-lid  (fbx)
//	coins      (fbx, loot)
//	potion-1   (fbx, loot)
//	sword-1    (fbx, loot)
//	atlas      (png, srgb)
func (b *CatalogueBuilder) WithLootScene() *CatalogueBuilder {
	return b.
		WithModel("level", GLTF()).
		WithModel("chest-body").
		WithModel("chest-lid").
		WithModel("coins", Loot()).
		WithModel("potion-1", Loot()).
		WithModel("sword-1", Loot()).
		WithTexture("atlas", ColorSpace(scene.ColorSpaceSRGB))
}
