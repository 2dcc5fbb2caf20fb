package testutil

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/scene"
)

func TestNewTestDB_AppliesSchema(t *testing.T) {
	db := NewTestDB(t, `CREATE TABLE things (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`)

	_, err := db.Exec(`INSERT INTO things (name) VALUES (?)`, "chest")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM things`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestCatalogueBuilder_Defaults(t *testing.T) {
	cat := NewCatalogue(t).
		WithModel("chest").
		WithModel("level", GLTF()).
		WithModel("coins", Loot(), Locator("/models/SM_Item_Coins_04.fbx")).
		WithTexture("atlas", ColorSpace(scene.ColorSpaceSRGB)).
		Build()

	entries := cat.Entries()
	require.Len(t, entries, 4)
	require.Equal(t, "/models/chest.fbx", entries[0].Locator)
	require.Equal(t, catalogue.VariantFBX, entries[0].Variant)
	require.Equal(t, "/models/level.glb", entries[1].Locator)
	require.Equal(t, catalogue.VariantGLTF, entries[1].Variant)
	require.True(t, entries[2].Loot)
	require.Equal(t, "/models/SM_Item_Coins_04.fbx", entries[2].Locator)
	require.Equal(t, catalogue.KindTexture, entries[3].Kind)
	require.Equal(t, scene.ColorSpaceSRGB, entries[3].ColorSpace)
}

func TestWithLootScene(t *testing.T) {
	cat := NewCatalogue(t).WithLootScene().Build()
	require.Equal(t, 7, cat.Len())
	require.Equal(t, []string{"coins", "potion-1", "sword-1"}, cat.LootNames())
}

func TestFakeLoader_GateHoldsUntilRelease(t *testing.T) {
	fake := NewFakeLoader()
	release := fake.Gate("/a")

	done := make(chan *scene.Model, 1)
	go func() {
		m, _ := fake.LoadModel(context.Background(), "/a")
		done <- m
	}()

	select {
	case <-done:
		t.Fatal("gated request returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()
	m := <-done
	require.NotNil(t, m)
	require.Len(t, m.Surfaces(), 1)
	require.Equal(t, []string{"/a"}, fake.Calls())
}

func TestFakeLoader_FailAndHang(t *testing.T) {
	fake := NewFakeLoader()
	boom := errors.New("boom")
	fake.Fail("/bad", boom)
	fake.Hang("/stuck")

	_, err := fake.LoadTexture(context.Background(), "/bad")
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = fake.LoadModel(ctx, "/stuck")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncodeFBX_Header(t *testing.T) {
	data := EncodeFBX(t, 7400, FBXScene([]FBXRecord{FBXModel(1, "a", "Mesh")}, []FBXRecord{FBXLink(1, 0)})...)
	require.Equal(t, fbxMagic, string(data[:len(fbxMagic)]))
	require.Equal(t, byte(0x1A), data[len(fbxMagic)])
}

func TestEncodePNG(t *testing.T) {
	cfg, err := png.DecodeConfig(bytes.NewReader(EncodePNG(t, 8, 2)))
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Width)
	require.Equal(t, 2, cfg.Height)
}

func TestAssetTree_FileForEveryEntry(t *testing.T) {
	cat := NewCatalogue(t).WithLootScene().Build()
	tree := AssetTree(t, cat)

	for _, d := range cat.Entries() {
		_, ok := tree[d.Locator[1:]]
		require.True(t, ok, "missing file for %s", d.Name)
	}
	require.Equal(t, "glTF", string(tree["models/level.glb"].Data[:4]))
}
