package scene

// ColorSpace is the encoding of a texture's colour data.
type ColorSpace string

const (
	ColorSpaceNone   ColorSpace = ""
	ColorSpaceSRGB   ColorSpace = "srgb"
	ColorSpaceLinear ColorSpace = "linear"
)

// Model is the handle for a loaded model file.
type Model struct {
	Root    Node
	Locator string
	Format  string // "gltf" or "fbx"
}

// Surfaces returns the model's renderable surfaces.
func (m *Model) Surfaces() []Surface {
	if m == nil {
		return nil
	}
	return Surfaces(m.Root)
}

// Texture is the handle for a loaded image.
type Texture struct {
	Locator    string
	Format     string // "png", "jpeg"
	Width      int
	Height     int
	ColorSpace ColorSpace
}
