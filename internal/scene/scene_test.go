package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTree() (*Group, *Mesh, *Mesh) {
	blade := NewMesh("blade")
	hilt := NewMesh("hilt")
	root := NewGroup("sword", NewGroup("socket", blade), hilt)
	return root, blade, hilt
}

func TestWalk_PreOrder(t *testing.T) {
	root, _, _ := sampleTree()

	var names []string
	Walk(root, func(n Node) { names = append(names, n.Name()) })

	require.Equal(t, []string{"sword", "socket", "blade", "hilt"}, names)
}

func TestWalk_NilRoot(t *testing.T) {
	called := false
	Walk(nil, func(Node) { called = true })
	require.False(t, called)
}

func TestSurfaces_OnlyMeshes(t *testing.T) {
	root, blade, hilt := sampleTree()

	surfaces := Surfaces(root)
	require.Len(t, surfaces, 2)
	require.Same(t, blade, surfaces[0])
	require.Same(t, hilt, surfaces[1])
	require.Equal(t, 4, Count(root))
}

func TestMesh_SetAppearanceMap(t *testing.T) {
	mesh := NewMesh("lid")
	require.Nil(t, mesh.AppearanceMap())

	tex := &Texture{Locator: "/textures/atlas.png"}
	mesh.SetAppearanceMap(tex)
	require.Same(t, tex, mesh.AppearanceMap())

	mesh.Material = nil
	require.Nil(t, mesh.AppearanceMap())
	mesh.SetAppearanceMap(tex)
	require.Same(t, tex, mesh.Material.Map)
	require.Equal(t, "lid", mesh.Material.Name)
}

func TestModel_SurfacesNilSafe(t *testing.T) {
	var m *Model
	require.Nil(t, m.Surfaces())

	root, _, _ := sampleTree()
	m = &Model{Root: root}
	require.Len(t, m.Surfaces(), 2)
}
