package formats

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strings"

	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

// FBXMagic opens every binary FBX file.
const FBXMagic = "Kaydara FBX Binary  \x00"

// fbxWideVersion is the first version with 64-bit record headers.
const fbxWideVersion = 7500

var ErrNotFBX = errors.New("not a binary fbx file")

// FBXNode is one record of a binary FBX file.
type FBXNode struct {
	Name       string
	Properties []any
	Children   []*FBXNode
}

// Child returns the first child named name.
func (n *FBXNode) Child(name string) *FBXNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FBXDocument is a parsed binary FBX file.
type FBXDocument struct {
	Version uint32
	Nodes   []*FBXNode
}

// Node returns the first top-level record named name.
func (d *FBXDocument) Node(name string) *FBXNode {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// ParseFBX reads a binary FBX file. Both the 32-bit (< 7.5) and 64-bit record
// header layouts are supported.
func ParseFBX(data []byte) (*FBXDocument, error) {
	if len(data) < len(FBXMagic)+6 || string(data[:len(FBXMagic)]) != FBXMagic {
		return nil, ErrNotFBX
	}
	r := &fbxReader{data: data, pos: len(FBXMagic) + 2}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	r.wide = version >= fbxWideVersion

	doc := &FBXDocument{Version: version}
	for {
		node, end, err := r.node()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	return doc, nil
}

type fbxReader struct {
	data []byte
	pos  int
	wide bool
}

func (r *fbxReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("fbx: unexpected end of data at offset %d", r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *fbxReader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *fbxReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *fbxReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// header reads a record's end offset, property count and property list length.
func (r *fbxReader) header() (end, count, listLen uint64, err error) {
	if r.wide {
		if end, err = r.u64(); err != nil {
			return
		}
		if count, err = r.u64(); err != nil {
			return
		}
		listLen, err = r.u64()
		return
	}
	var v uint32
	if v, err = r.u32(); err != nil {
		return
	}
	end = uint64(v)
	if v, err = r.u32(); err != nil {
		return
	}
	count = uint64(v)
	if v, err = r.u32(); err != nil {
		return
	}
	listLen = uint64(v)
	return
}

// node reads one record. A zeroed header is the sentinel that closes a list.
// A file that simply runs out of data after the last top-level record is
// treated the same way.
func (r *fbxReader) node() (*FBXNode, bool, error) {
	if r.pos == len(r.data) {
		return nil, true, nil
	}
	end, count, _, err := r.header()
	if err != nil {
		return nil, false, err
	}
	if end == 0 {
		return nil, true, nil
	}
	if end > uint64(len(r.data)) || end <= uint64(r.pos) {
		return nil, false, fmt.Errorf("fbx: record end offset %d out of range", end)
	}

	nameLen, err := r.u8()
	if err != nil {
		return nil, false, err
	}
	name, err := r.take(int(nameLen))
	if err != nil {
		return nil, false, err
	}

	n := &FBXNode{Name: string(name)}
	for i := uint64(0); i < count; i++ {
		prop, err := r.property()
		if err != nil {
			return nil, false, fmt.Errorf("fbx: %s property %d: %w", n.Name, i, err)
		}
		n.Properties = append(n.Properties, prop)
	}

	for uint64(r.pos) < end {
		child, done, err := r.node()
		if err != nil {
			return nil, false, err
		}
		if done {
			break
		}
		n.Children = append(n.Children, child)
	}
	r.pos = int(end)
	return n, false, nil
}

func (r *fbxReader) property() (any, error) {
	code, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch code {
	case 'Y':
		b, err := r.take(2)
		if err != nil {
			return nil, err
		}
		return int16(binary.LittleEndian.Uint16(b)), nil
	case 'C':
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case 'I':
		v, err := r.u32()
		return int32(v), err
	case 'F':
		v, err := r.u32()
		return math.Float32frombits(v), err
	case 'D':
		v, err := r.u64()
		return math.Float64frombits(v), err
	case 'L':
		v, err := r.u64()
		return int64(v), err
	case 'S', 'R':
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		b, err := r.take(int(size))
		if err != nil {
			return nil, err
		}
		if code == 'S' {
			return string(b), nil
		}
		return bytes.Clone(b), nil
	case 'f', 'd', 'l', 'i', 'b':
		return r.array(code)
	default:
		return nil, fmt.Errorf("unknown property type %q", code)
	}
}

// maxFBXArrayBytes bounds one decoded array property.
const maxFBXArrayBytes = 256 << 20

var fbxArrayElem = map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}

func (r *fbxReader) array(code byte) (any, error) {
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := r.u32()
	if err != nil {
		return nil, err
	}
	compressed, err := r.u32()
	if err != nil {
		return nil, err
	}

	n := int(length)
	want := int64(length) * int64(fbxArrayElem[code])
	if want > maxFBXArrayBytes {
		return nil, fmt.Errorf("array of %d elements exceeds %d bytes", n, maxFBXArrayBytes)
	}
	raw, err := r.take(int(compressed))
	if err != nil {
		return nil, err
	}
	if encoding == 1 {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("inflate array: %w", err)
		}
		raw, err = io.ReadAll(io.LimitReader(zr, want+1))
		if err != nil {
			return nil, fmt.Errorf("inflate array: %w", err)
		}
		if int64(len(raw)) > want {
			return nil, fmt.Errorf("inflate array: more than %d bytes for %d elements", want, n)
		}
	}
	if int64(len(raw)) < want {
		return nil, fmt.Errorf("array of %d elements has %d bytes", n, len(raw))
	}
	switch code {
	case 'f':
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		return out, nil
	default:
		out := make([]bool, n)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	}
}

// FBXLoader decodes binary FBX files. Objects/Model records become scene nodes
// (class "Mesh" becomes a Mesh, anything else a Group) and are parented by the
// object-object links in Connections, where parent 0 is the scene root.
type FBXLoader struct {
	source Source
}

func NewFBXLoader(source Source) *FBXLoader {
	return &FBXLoader{source: source}
}

func (l *FBXLoader) LoadModel(ctx context.Context, locator string) (*scene.Model, error) {
	data, err := l.source.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	doc, err := ParseFBX(data)
	if err != nil {
		return nil, fmt.Errorf("decode fbx %s: %w", locator, err)
	}
	root := BuildFBXScene(doc, path.Base(locator))
	log.Debug(log.CatFormats, "Decoded FBX", "locator", locator,
		"version", doc.Version, "surfaces", len(scene.Surfaces(root)))
	return &scene.Model{Root: root, Locator: locator, Format: "fbx"}, nil
}

type fbxObject struct {
	node     scene.Node
	attached bool
}

// BuildFBXScene assembles the model hierarchy of doc under a root group.
// Models never linked to a parent are attached to the root in declaration order.
func BuildFBXScene(doc *FBXDocument, name string) *scene.Group {
	root := scene.NewGroup(name)

	objects := make(map[int64]*fbxObject)
	var order []int64
	if objs := doc.Node("Objects"); objs != nil {
		for _, rec := range objs.Children {
			if rec.Name != "Model" || len(rec.Properties) < 3 {
				continue
			}
			id, ok := rec.Properties[0].(int64)
			if !ok {
				continue
			}
			label, _ := rec.Properties[1].(string)
			class, _ := rec.Properties[2].(string)

			var node scene.Node
			if class == "Mesh" {
				node = scene.NewMesh(fbxObjectName(label))
			} else {
				node = scene.NewGroup(fbxObjectName(label))
			}
			objects[id] = &fbxObject{node: node}
			order = append(order, id)
		}
	}

	if conns := doc.Node("Connections"); conns != nil {
		for _, c := range conns.Children {
			if c.Name != "C" || len(c.Properties) < 3 {
				continue
			}
			if kind, _ := c.Properties[0].(string); kind != "OO" {
				continue
			}
			childID, ok1 := c.Properties[1].(int64)
			parentID, ok2 := c.Properties[2].(int64)
			child := objects[childID]
			if !ok1 || !ok2 || child == nil || child.attached {
				continue
			}
			if parentID == 0 {
				root.Add(child.node)
				child.attached = true
				continue
			}
			parent := objects[parentID]
			if parent == nil || contains(child.node, parent.node) {
				continue
			}
			if addChild(parent.node, child.node) {
				child.attached = true
			}
		}
	}

	for _, id := range order {
		if obj := objects[id]; !obj.attached {
			root.Add(obj.node)
			obj.attached = true
		}
	}
	return root
}

// contains reports whether target is root or one of its descendants.
func contains(root, target scene.Node) bool {
	found := false
	scene.Walk(root, func(n scene.Node) {
		if n == target {
			found = true
		}
	})
	return found
}

func addChild(parent, child scene.Node) bool {
	switch p := parent.(type) {
	case *scene.Group:
		p.Add(child)
	case *scene.Mesh:
		p.Add(child)
	default:
		return false
	}
	return true
}

// fbxObjectName strips the "\x00\x01Model" class suffix from an object label.
func fbxObjectName(label string) string {
	if i := strings.Index(label, "\x00\x01"); i >= 0 {
		return label[:i]
	}
	return label
}
