package formats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/qmuntal/gltf"

	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

var glbMagic = []byte("glTF")

// GLTFLoader decodes .glb and .gltf files into a node hierarchy. Each glTF node
// becomes a Group and each mesh primitive a Mesh child of it.
type GLTFLoader struct {
	source Source
}

func NewGLTFLoader(source Source) *GLTFLoader {
	return &GLTFLoader{source: source}
}

func (l *GLTFLoader) LoadModel(ctx context.Context, locator string) (*scene.Model, error) {
	data, err := l.source.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	doc, err := decodeGLTF(data)
	if err != nil {
		return nil, fmt.Errorf("decode gltf %s: %w", locator, err)
	}
	root, err := buildGLTFScene(doc, path.Base(locator))
	if err != nil {
		return nil, fmt.Errorf("decode gltf %s: %w", locator, err)
	}
	log.Debug(log.CatFormats, "Decoded glTF", "locator", locator,
		"nodes", len(doc.Nodes), "surfaces", len(scene.Surfaces(root)))
	return &scene.Model{Root: root, Locator: locator, Format: "gltf"}, nil
}

// decodeGLTF reads binary containers with the gltf decoder. JSON documents only
// need their node graph, so external buffers are not resolved.
func decodeGLTF(data []byte) (*gltf.Document, error) {
	doc := new(gltf.Document)
	if bytes.HasPrefix(data, glbMagic) {
		if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func buildGLTFScene(doc *gltf.Document, name string) (*scene.Group, error) {
	root := scene.NewGroup(name)

	var roots []uint32
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		roots = topLevelNodes(doc)
	}

	visiting := make(map[uint32]bool)
	var build func(idx uint32) (scene.Node, error)
	build = func(idx uint32) (scene.Node, error) {
		if int(idx) >= len(doc.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
		if visiting[idx] {
			return nil, fmt.Errorf("node %d is its own ancestor", idx)
		}
		visiting[idx] = true
		defer delete(visiting, idx)

		n := doc.Nodes[idx]
		group := scene.NewGroup(nodeName(n.Name, "node", idx))
		if n.Mesh != nil {
			if int(*n.Mesh) >= len(doc.Meshes) {
				return nil, fmt.Errorf("node %d: mesh index %d out of range", idx, *n.Mesh)
			}
			m := doc.Meshes[*n.Mesh]
			for i := range m.Primitives {
				group.Add(scene.NewMesh(fmt.Sprintf("%s.%d", nodeName(m.Name, "mesh", *n.Mesh), i)))
			}
		}
		for _, child := range n.Children {
			c, err := build(child)
			if err != nil {
				return nil, err
			}
			group.Add(c)
		}
		return group, nil
	}

	for _, idx := range roots {
		n, err := build(idx)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

// topLevelNodes returns nodes that are nobody's child, for documents without scenes.
func topLevelNodes(doc *gltf.Document) []uint32 {
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var out []uint32
	for i := range doc.Nodes {
		if idx := uint32(i); !isChild[idx] {
			out = append(out, idx)
		}
	}
	return out
}

func nodeName(name, kind string, idx uint32) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s%d", kind, idx)
}
