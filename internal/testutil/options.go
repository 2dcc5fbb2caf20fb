package testutil

import (
	"fmt"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/scene"
)

// EntryOption configures a catalogue entry during builder setup.
type EntryOption func(*catalogue.AssetDescriptor)

// Locator overrides the generated locator.
func Locator(locator string) EntryOption {
	return func(d *catalogue.AssetDescriptor) {
		d.Locator = locator
	}
}

// GLTF switches a model entry to the glTF decoder and a .glb locator.
func GLTF() EntryOption {
	return func(d *catalogue.AssetDescriptor) {
		d.Variant = catalogue.VariantGLTF
		d.Locator = fmt.Sprintf("/models/%s.glb", d.Name)
	}
}

// Loot marks a model entry as loot.
func Loot() EntryOption {
	return func(d *catalogue.AssetDescriptor) {
		d.Loot = true
	}
}

// ColorSpace sets a texture entry's colour space.
func ColorSpace(cs scene.ColorSpace) EntryOption {
	return func(d *catalogue.AssetDescriptor) {
		d.ColorSpace = cs
	}
}

func defaultModel(name string) catalogue.AssetDescriptor {
	return catalogue.AssetDescriptor{
		Name:    name,
		Locator: fmt.Sprintf("/models/%s.fbx", name),
		Kind:    catalogue.KindModel,
		Variant: catalogue.VariantFBX,
	}
}

func defaultTexture(name string) catalogue.AssetDescriptor {
	return catalogue.AssetDescriptor{
		Name:    name,
		Locator: fmt.Sprintf("/textures/%s.png", name),
		Kind:    catalogue.KindTexture,
	}
}
