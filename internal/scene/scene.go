// Package scene is the minimal scene graph that loaded models decode into.
//
// A model is a tree of Nodes. Nodes that can display a texture implement
// Surface; the appearance binder discovers them with an interface query
// during Walk instead of switching on concrete node types.
package scene

// Node is one element of a model hierarchy.
type Node interface {
	Name() string
	Children() []Node
}

// Surface is a Node with a mutable appearance map.
type Surface interface {
	Node
	AppearanceMap() *Texture
	SetAppearanceMap(tex *Texture)
}

// Group is a plain transform node with no renderable content.
type Group struct {
	name     string
	children []Node
}

// NewGroup creates a group holding children.
func NewGroup(name string, children ...Node) *Group {
	return &Group{name: name, children: children}
}

func (g *Group) Name() string         { return g.name }
func (g *Group) Children() []Node     { return g.children }
func (g *Group) Add(children ...Node) { g.children = append(g.children, children...) }

// Material holds the appearance parameters of a Mesh.
type Material struct {
	Name string
	Map  *Texture
}

// Mesh is a renderable surface.
type Mesh struct {
	name     string
	children []Node
	Material *Material
}

// NewMesh creates a mesh with an empty material.
func NewMesh(name string, children ...Node) *Mesh {
	return &Mesh{name: name, children: children, Material: &Material{Name: name}}
}

func (m *Mesh) Name() string         { return m.name }
func (m *Mesh) Children() []Node     { return m.children }
func (m *Mesh) Add(children ...Node) { m.children = append(m.children, children...) }

// AppearanceMap returns the texture currently mapped onto the mesh.
func (m *Mesh) AppearanceMap() *Texture {
	if m.Material == nil {
		return nil
	}
	return m.Material.Map
}

// SetAppearanceMap replaces the mesh's texture, creating a material if needed.
func (m *Mesh) SetAppearanceMap(tex *Texture) {
	if m.Material == nil {
		m.Material = &Material{Name: m.name}
	}
	m.Material.Map = tex
}

// Walk visits root and all of its descendants depth-first, parents before children.
// A nil root is a no-op.
func Walk(root Node, fn func(Node)) {
	if root == nil {
		return
	}
	fn(root)
	for _, child := range root.Children() {
		Walk(child, fn)
	}
}

// Surfaces returns every Surface under root in Walk order.
func Surfaces(root Node) []Surface {
	var out []Surface
	Walk(root, func(n Node) {
		if s, ok := n.(Surface); ok {
			out = append(out, s)
		}
	})
	return out
}

// Count returns the number of nodes under root, root included.
func Count(root Node) int {
	n := 0
	Walk(root, func(Node) { n++ })
	return n
}
