package formats

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/testutil"
)

func TestImageLoader_LoadTexture(t *testing.T) {
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, image.NewGray(image.Rect(0, 0, 16, 8)), nil))

	src := NewFSSource(fstest.MapFS{
		"textures/atlas.png": &fstest.MapFile{Data: testutil.EncodePNG(t, 32, 64)},
		"textures/photo.jpg": &fstest.MapFile{Data: jpg.Bytes()},
		"textures/bad.png":   &fstest.MapFile{Data: []byte("nope")},
	})
	loader := NewImageLoader(src)

	tex, err := loader.LoadTexture(context.Background(), "/textures/atlas.png")
	require.NoError(t, err)
	require.Equal(t, "png", tex.Format)
	require.Equal(t, 32, tex.Width)
	require.Equal(t, 64, tex.Height)
	require.Equal(t, "/textures/atlas.png", tex.Locator)

	tex, err = loader.LoadTexture(context.Background(), "/textures/photo.jpg")
	require.NoError(t, err)
	require.Equal(t, "jpeg", tex.Format)
	require.Equal(t, 16, tex.Width)

	_, err = loader.LoadTexture(context.Background(), "/textures/bad.png")
	require.ErrorIs(t, err, image.ErrFormat)

	_, err = loader.LoadTexture(context.Background(), "/textures/none.png")
	require.ErrorIs(t, err, ErrNotFound)
}
