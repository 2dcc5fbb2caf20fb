package testutil

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/catalogue"
)

const fbxMagic = "Kaydara FBX Binary  \x00"

// FBXRecord is a node record for EncodeFBX.
type FBXRecord struct {
	Name     string
	Props    []any
	Children []FBXRecord
}

// ZlibFloat64s encodes as a compressed 'd' array.
type ZlibFloat64s []float64

// ZlibArray encodes Data compressed under an arbitrary declared element
// count, for arrays whose header disagrees with their payload.
type ZlibArray struct {
	Code   byte
	Length int
	Data   []byte
}

// FBXModel builds an Objects/Model record.
func FBXModel(id int64, name, class string) FBXRecord {
	return FBXRecord{Name: "Model", Props: []any{id, name + "\x00\x01Model", class}}
}

// FBXLink builds an object-object connection. parent 0 is the scene root.
func FBXLink(child, parent int64) FBXRecord {
	return FBXRecord{Name: "C", Props: []any{"OO", child, parent}}
}

// FBXScene builds the Objects and Connections records for models and links.
func FBXScene(models []FBXRecord, links []FBXRecord) []FBXRecord {
	return []FBXRecord{
		{Name: "FBXHeaderExtension", Children: []FBXRecord{{Name: "FBXVersion", Props: []any{int32(7400)}}}},
		{Name: "Objects", Children: models},
		{Name: "Connections", Children: links},
	}
}

// EncodeFBX writes a binary FBX file. Versions >= 7500 use 64-bit record headers.
func EncodeFBX(t *testing.T, version uint32, records ...FBXRecord) []byte {
	t.Helper()
	wide := version >= 7500

	var buf bytes.Buffer
	buf.WriteString(fbxMagic)
	buf.Write([]byte{0x1A, 0x00})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, version))
	for _, rec := range records {
		writeFBXRecord(t, &buf, rec, wide)
	}
	writeFBXNull(&buf, wide)
	return buf.Bytes()
}

func fbxHeaderSize(wide bool) int {
	if wide {
		return 24
	}
	return 12
}

func writeFBXNull(buf *bytes.Buffer, wide bool) {
	buf.Write(make([]byte, fbxHeaderSize(wide)+1))
}

func writeFBXRecord(t *testing.T, buf *bytes.Buffer, rec FBXRecord, wide bool) {
	t.Helper()
	start := buf.Len()
	buf.Write(make([]byte, fbxHeaderSize(wide)))
	buf.WriteByte(byte(len(rec.Name)))
	buf.WriteString(rec.Name)

	propStart := buf.Len()
	for _, p := range rec.Props {
		writeFBXProperty(t, buf, p)
	}
	propLen := buf.Len() - propStart

	for _, child := range rec.Children {
		writeFBXRecord(t, buf, child, wide)
	}
	if len(rec.Children) > 0 {
		writeFBXNull(buf, wide)
	}

	header := buf.Bytes()[start:]
	end := buf.Len()
	if wide {
		binary.LittleEndian.PutUint64(header[0:], uint64(end))
		binary.LittleEndian.PutUint64(header[8:], uint64(len(rec.Props)))
		binary.LittleEndian.PutUint64(header[16:], uint64(propLen))
	} else {
		binary.LittleEndian.PutUint32(header[0:], uint32(end))
		binary.LittleEndian.PutUint32(header[4:], uint32(len(rec.Props)))
		binary.LittleEndian.PutUint32(header[8:], uint32(propLen))
	}
}

func writeFBXProperty(t *testing.T, buf *bytes.Buffer, p any) {
	t.Helper()
	le := binary.LittleEndian
	switch v := p.(type) {
	case int16:
		buf.WriteByte('Y')
		require.NoError(t, binary.Write(buf, le, v))
	case bool:
		buf.WriteByte('C')
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case int32:
		buf.WriteByte('I')
		require.NoError(t, binary.Write(buf, le, v))
	case float32:
		buf.WriteByte('F')
		require.NoError(t, binary.Write(buf, le, math.Float32bits(v)))
	case float64:
		buf.WriteByte('D')
		require.NoError(t, binary.Write(buf, le, math.Float64bits(v)))
	case int64:
		buf.WriteByte('L')
		require.NoError(t, binary.Write(buf, le, v))
	case string:
		buf.WriteByte('S')
		require.NoError(t, binary.Write(buf, le, uint32(len(v))))
		buf.WriteString(v)
	case []byte:
		buf.WriteByte('R')
		require.NoError(t, binary.Write(buf, le, uint32(len(v))))
		buf.Write(v)
	case []int32:
		var raw bytes.Buffer
		require.NoError(t, binary.Write(&raw, le, v))
		writeFBXArray(t, buf, 'i', len(v), 0, raw.Bytes())
	case []float64:
		var raw bytes.Buffer
		require.NoError(t, binary.Write(&raw, le, v))
		writeFBXArray(t, buf, 'd', len(v), 0, raw.Bytes())
	case ZlibFloat64s:
		var raw bytes.Buffer
		require.NoError(t, binary.Write(&raw, le, []float64(v)))
		writeFBXArray(t, buf, 'd', len(v), 1, deflate(t, raw.Bytes()))
	case ZlibArray:
		writeFBXArray(t, buf, v.Code, v.Length, 1, deflate(t, v.Data))
	default:
		t.Fatalf("unsupported fbx property %T", p)
	}
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var packed bytes.Buffer
	zw := zlib.NewWriter(&packed)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return packed.Bytes()
}

func writeFBXArray(t *testing.T, buf *bytes.Buffer, code byte, n int, encoding uint32, data []byte) {
	t.Helper()
	buf.WriteByte(code)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []uint32{uint32(n), encoding, uint32(len(data))}))
	buf.Write(data)
}

// EncodeGLB wraps a glTF JSON document in a binary container with no BIN chunk.
func EncodeGLB(t *testing.T, doc any) []byte {
	t.Helper()
	js, err := json.Marshal(doc)
	require.NoError(t, err)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("glTF")
	require.NoError(t, binary.Write(&buf, le, []uint32{2, uint32(12 + 8 + len(js))}))
	require.NoError(t, binary.Write(&buf, le, []uint32{uint32(len(js)), 0x4E4F534A}))
	buf.Write(js)
	return buf.Bytes()
}

// MinimalGLTF returns a glTF JSON document with one node holding a mesh of
// primitives primitives.
func MinimalGLTF(name string, primitives int) map[string]any {
	prims := make([]map[string]any, primitives)
	for i := range prims {
		prims[i] = map[string]any{"attributes": map[string]int{}}
	}
	return map[string]any{
		"asset":  map[string]any{"version": "2.0"},
		"scene":  0,
		"scenes": []map[string]any{{"nodes": []int{0}}},
		"nodes":  []map[string]any{{"name": name, "mesh": 0}},
		"meshes": []map[string]any{{"name": name + "-mesh", "primitives": prims}},
	}
}

// EncodePNG returns a w x h PNG.
func EncodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// AssetTree builds an in-memory file tree with a decodable file behind every
// entry of cat. FBX models get one mesh, glTF models one mesh with two
// primitives, textures are 4x4 PNGs.
func AssetTree(t *testing.T, cat catalogue.Catalogue) fstest.MapFS {
	t.Helper()
	tree := fstest.MapFS{}
	for _, d := range cat.Entries() {
		var data []byte
		switch {
		case d.Kind == catalogue.KindTexture:
			data = EncodePNG(t, 4, 4)
		case d.Variant == catalogue.VariantGLTF:
			data = EncodeGLB(t, MinimalGLTF(d.Name, 2))
		default:
			data = EncodeFBX(t, 7400, FBXScene(
				[]FBXRecord{FBXModel(100, d.Name, "Mesh")},
				[]FBXRecord{FBXLink(100, 0)},
			)...)
		}
		tree[trimRoot(d.Locator)] = &fstest.MapFile{Data: data, Mode: 0o644}
	}
	return tree
}

func trimRoot(locator string) string {
	for len(locator) > 0 && locator[0] == '/' {
		locator = locator[1:]
	}
	return locator
}
