package formats

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/scene"
	"github.com/zjrosen/lootbox/internal/testutil"
)

func TestGLTFLoader_GLB(t *testing.T) {
	src := NewFSSource(fstest.MapFS{
		"models/level.glb": &fstest.MapFile{Data: testutil.EncodeGLB(t, testutil.MinimalGLTF("Dungeon", 3))},
	})

	model, err := NewGLTFLoader(src).LoadModel(context.Background(), "/models/level.glb")
	require.NoError(t, err)
	require.Equal(t, "gltf", model.Format)
	require.Equal(t, "level.glb", model.Root.Name())
	require.Equal(t, []string{"Dungeon"}, names(model.Root.Children()))
	require.Equal(t, []string{"Dungeon-mesh.0", "Dungeon-mesh.1", "Dungeon-mesh.2"},
		names(model.Root.Children()[0].Children()))
	require.Len(t, model.Surfaces(), 3)
}

func TestGLTFLoader_JSONHierarchy(t *testing.T) {
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scenes": []map[string]any{{"nodes": []int{0}}},
		"nodes": []map[string]any{
			{"name": "Room", "children": []int{1, 2}},
			{"name": "Floor", "mesh": 0},
			{"children": []int{}},
		},
		"meshes": []map[string]any{{"primitives": []map[string]any{{"attributes": map[string]int{}}}}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	src := NewFSSource(fstest.MapFS{"level.gltf": &fstest.MapFile{Data: data}})

	model, err := NewGLTFLoader(src).LoadModel(context.Background(), "/level.gltf")
	require.NoError(t, err)

	room := model.Root.Children()[0]
	require.Equal(t, "Room", room.Name())
	require.Equal(t, []string{"Floor", "node2"}, names(room.Children()))
	require.Equal(t, []string{"mesh0.0"}, names(room.Children()[0].Children()))
	require.Equal(t, 1, len(model.Surfaces()))
}

func TestGLTFLoader_NoScenesUsesTopLevelNodes(t *testing.T) {
	data, err := json.Marshal(map[string]any{
		"asset": map[string]any{"version": "2.0"},
		"nodes": []map[string]any{
			{"name": "Child"},
			{"name": "Parent", "children": []int{0}},
			{"name": "Other"},
		},
	})
	require.NoError(t, err)
	src := NewFSSource(fstest.MapFS{"a.gltf": &fstest.MapFile{Data: data}})

	model, err := NewGLTFLoader(src).LoadModel(context.Background(), "/a.gltf")
	require.NoError(t, err)
	require.Equal(t, []string{"Parent", "Other"}, names(model.Root.Children()))
	require.Equal(t, 4, scene.Count(model.Root))
}

func TestGLTFLoader_RejectsBadIndices(t *testing.T) {
	tests := map[string]map[string]any{
		"node out of range": {
			"asset":  map[string]any{"version": "2.0"},
			"scenes": []map[string]any{{"nodes": []int{5}}},
		},
		"mesh out of range": {
			"asset":  map[string]any{"version": "2.0"},
			"scenes": []map[string]any{{"nodes": []int{0}}},
			"nodes":  []map[string]any{{"mesh": 3}},
		},
		"cycle": {
			"asset":  map[string]any{"version": "2.0"},
			"scenes": []map[string]any{{"nodes": []int{0}}},
			"nodes":  []map[string]any{{"children": []int{1}}, {"children": []int{0}}},
		},
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(doc)
			require.NoError(t, err)
			src := NewFSSource(fstest.MapFS{"bad.gltf": &fstest.MapFile{Data: data}})

			_, err = NewGLTFLoader(src).LoadModel(context.Background(), "/bad.gltf")
			require.Error(t, err)
			require.Contains(t, err.Error(), "decode gltf /bad.gltf")
		})
	}
}

func TestGLTFLoader_Garbage(t *testing.T) {
	src := NewFSSource(fstest.MapFS{"x.glb": &fstest.MapFile{Data: []byte("glTF\x02\x00")}})
	_, err := NewGLTFLoader(src).LoadModel(context.Background(), "/x.glb")
	require.Error(t, err)
}

func TestGLTFLoader_DefaultScene(t *testing.T) {
	load := func(t *testing.T, sceneIdx int) *scene.Model {
		t.Helper()
		data, err := json.Marshal(map[string]any{
			"asset":  map[string]any{"version": "2.0"},
			"scene":  sceneIdx,
			"scenes": []map[string]any{{"nodes": []int{0}}, {"nodes": []int{1, 2}}},
			"nodes": []map[string]any{
				{"name": "Menu"},
				{"name": "Chest", "mesh": 1},
				{"name": "Lid", "mesh": 0},
			},
			"meshes": []map[string]any{
				{"name": "lid", "primitives": []map[string]any{{"attributes": map[string]int{}}}},
				{"primitives": []map[string]any{{"attributes": map[string]int{}}, {"attributes": map[string]int{}}}},
			},
		})
		require.NoError(t, err)
		src := NewFSSource(fstest.MapFS{"chest.gltf": &fstest.MapFile{Data: data}})
		model, err := NewGLTFLoader(src).LoadModel(context.Background(), "/chest.gltf")
		require.NoError(t, err)
		return model
	}

	model := load(t, 1)
	require.Equal(t, []string{"Chest", "Lid"}, names(model.Root.Children()))
	require.Equal(t, []string{"mesh1.0", "mesh1.1"}, names(model.Root.Children()[0].Children()))
	require.Equal(t, []string{"lid.0"}, names(model.Root.Children()[1].Children()))
	require.Len(t, model.Surfaces(), 3)

	// An out-of-range default scene falls back to the first one.
	model = load(t, 7)
	require.Equal(t, []string{"Menu"}, names(model.Root.Children()))
}
