// Package catalogue defines the immutable list of assets a load session fetches.
package catalogue

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zjrosen/lootbox/internal/scene"
)

// Kind distinguishes models from textures.
type Kind string

const (
	KindModel   Kind = "model"
	KindTexture Kind = "texture"
)

// Variant selects the decoder used for a model.
type Variant string

const (
	VariantNone Variant = ""
	VariantGLTF Variant = "gltf"
	VariantFBX  Variant = "fbx"
)

var (
	ErrDuplicateName = errors.New("duplicate asset name")
	ErrInvalidEntry  = errors.New("invalid catalogue entry")
)

// AssetDescriptor describes one catalogue entry.
type AssetDescriptor struct {
	Name       string
	Locator    string
	Kind       Kind
	Variant    Variant
	Loot       bool
	ColorSpace scene.ColorSpace
}

// Validate checks a single descriptor in isolation.
func (d AssetDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEntry)
	}
	if d.Locator == "" {
		return fmt.Errorf("%w: %s: locator is required", ErrInvalidEntry, d.Name)
	}
	switch d.Kind {
	case KindModel:
		switch d.Variant {
		case VariantGLTF, VariantFBX:
		default:
			return fmt.Errorf("%w: %s: model variant must be %q or %q, got %q", ErrInvalidEntry, d.Name, VariantGLTF, VariantFBX, d.Variant)
		}
		if d.ColorSpace != scene.ColorSpaceNone {
			return fmt.Errorf("%w: %s: color_space applies to textures only", ErrInvalidEntry, d.Name)
		}
	case KindTexture:
		if d.Variant != VariantNone {
			return fmt.Errorf("%w: %s: textures take no variant, got %q", ErrInvalidEntry, d.Name, d.Variant)
		}
		if d.Loot {
			return fmt.Errorf("%w: %s: only models can be loot", ErrInvalidEntry, d.Name)
		}
		switch d.ColorSpace {
		case scene.ColorSpaceNone, scene.ColorSpaceSRGB, scene.ColorSpaceLinear:
		default:
			return fmt.Errorf("%w: %s: unknown color_space %q", ErrInvalidEntry, d.Name, d.ColorSpace)
		}
	default:
		return fmt.Errorf("%w: %s: kind must be %q or %q, got %q", ErrInvalidEntry, d.Name, KindModel, KindTexture, d.Kind)
	}
	return nil
}

// Catalogue is an ordered, immutable set of descriptors with unique names.
// The zero value is an empty catalogue.
type Catalogue struct {
	entries []AssetDescriptor
	index   map[string]int
}

// New validates entries and returns a catalogue preserving their order.
func New(entries ...AssetDescriptor) (Catalogue, error) {
	index := make(map[string]int, len(entries))
	for i, d := range entries {
		if err := d.Validate(); err != nil {
			return Catalogue{}, fmt.Errorf("entry %d: %w", i, err)
		}
		if prev, ok := index[d.Name]; ok {
			return Catalogue{}, fmt.Errorf("entry %d: %w: %q (first declared at entry %d)", i, ErrDuplicateName, d.Name, prev)
		}
		index[d.Name] = i
	}
	return Catalogue{entries: slices.Clone(entries), index: index}, nil
}

// MustNew is New for statically known catalogues. It panics on invalid input.
func MustNew(entries ...AssetDescriptor) Catalogue {
	c, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of entries.
func (c Catalogue) Len() int { return len(c.entries) }

// Entries returns a copy of the entries in declaration order.
func (c Catalogue) Entries() []AssetDescriptor { return slices.Clone(c.entries) }

// Lookup returns the descriptor with the given name.
func (c Catalogue) Lookup(name string) (AssetDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return AssetDescriptor{}, false
	}
	return c.entries[i], true
}

// LootNames returns the names of loot entries in declaration order.
func (c Catalogue) LootNames() []string {
	var names []string
	for _, d := range c.entries {
		if d.Loot {
			names = append(names, d.Name)
		}
	}
	return names
}

// Variants returns the distinct model variants in first-use order.
func (c Catalogue) Variants() []Variant {
	var out []Variant
	for _, d := range c.entries {
		if d.Kind == KindModel && !slices.Contains(out, d.Variant) {
			out = append(out, d.Variant)
		}
	}
	return out
}

// Count returns how many entries have the given kind.
func (c Catalogue) Count(kind Kind) int {
	n := 0
	for _, d := range c.entries {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
