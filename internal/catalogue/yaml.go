package catalogue

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

// File is the root structure of a catalogue YAML document.
type File struct {
	Catalogue []EntryDef `yaml:"catalogue"`
}

// EntryDef is one catalogue entry as written in YAML.
type EntryDef struct {
	Name       string `yaml:"name"`
	Locator    string `yaml:"locator"`
	Kind       string `yaml:"kind"`
	Variant    string `yaml:"variant,omitempty"`
	Loot       bool   `yaml:"loot,omitempty"`
	ColorSpace string `yaml:"color_space,omitempty"`
}

func (e EntryDef) descriptor() AssetDescriptor {
	return AssetDescriptor{
		Name:       e.Name,
		Locator:    e.Locator,
		Kind:       Kind(strings.ToLower(e.Kind)),
		Variant:    Variant(strings.ToLower(e.Variant)),
		Loot:       e.Loot,
		ColorSpace: scene.ColorSpace(strings.ToLower(e.ColorSpace)),
	}
}

//go:embed default.yaml
var embedded embed.FS

// DefaultPath is the name of the embedded catalogue.
const DefaultPath = "default.yaml"

// Parse decodes and validates a catalogue document.
func Parse(data []byte) (Catalogue, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Catalogue{}, fmt.Errorf("parse catalogue: %w", err)
	}
	entries := make([]AssetDescriptor, 0, len(file.Catalogue))
	for _, def := range file.Catalogue {
		entries = append(entries, def.descriptor())
	}
	return New(entries...)
}

// Load reads and parses the catalogue at path within fsys.
func Load(fsys fs.FS, path string) (Catalogue, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Catalogue{}, fmt.Errorf("read catalogue %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Catalogue{}, fmt.Errorf("%s: %w", path, err)
	}
	log.Debug(log.CatCatalogue, "catalogue loaded", "path", path, "entries", c.Len())
	return c, nil
}

// Default returns the catalogue built into the binary.
func Default() Catalogue {
	c, err := Load(embedded, DefaultPath)
	if err != nil {
		panic(fmt.Errorf("embedded catalogue: %w", err))
	}
	return c
}

// Marshal renders a catalogue back into YAML.
func Marshal(c Catalogue) ([]byte, error) {
	file := File{Catalogue: make([]EntryDef, 0, c.Len())}
	for _, d := range c.entries {
		file.Catalogue = append(file.Catalogue, EntryDef{
			Name:       d.Name,
			Locator:    d.Locator,
			Kind:       string(d.Kind),
			Variant:    string(d.Variant),
			Loot:       d.Loot,
			ColorSpace: string(d.ColorSpace),
		})
	}
	return yaml.Marshal(file)
}
