package presentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/lootbox/internal/catalogue"
	"github.com/zjrosen/lootbox/internal/journal"
	"github.com/zjrosen/lootbox/internal/loader"
)

func sampleReport() loader.Report {
	start := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return loader.Report{
		SessionID:  "s-1",
		Total:      3,
		Loaded:     2,
		Failures:   []loader.Failure{{Name: "potion-1", Locator: "/models/potion-1.fbx", Err: errors.New("asset not found")}},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}

func TestFromReport(t *testing.T) {
	dto := FromReport(sampleReport(), nil, []string{"potion-1"})

	require.Equal(t, "s-1", dto.SessionID)
	require.Equal(t, 1, dto.Failed)
	require.Equal(t, int64(1500), dto.DurationMs)
	require.Equal(t, []FailureDTO{{Name: "potion-1", Locator: "/models/potion-1.fbx", Error: "asset not found"}}, dto.Failures)
	require.NotNil(t, dto.Loot, "loot encodes as [] rather than null")
	require.Equal(t, []string{"potion-1"}, dto.Missing)
}

func TestFormatter_ReportJSON(t *testing.T) {
	var buf bytes.Buffer
	dto := FromReport(sampleReport(), []string{"coins"}, nil)
	dto.Bindings = []BindingDTO{{Model: "coins", Texture: "atlas", Found: true, Surfaces: 2}}

	require.NoError(t, NewJSONFormatter(&buf).FormatReport(dto))

	var decoded ReportDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, dto, decoded)
}

func TestFormatter_ReportTable(t *testing.T) {
	var buf bytes.Buffer
	dto := FromReport(sampleReport(), []string{"coins"}, []string{"potion-1"})
	dto.Bindings = []BindingDTO{{Model: "coins", Texture: "missing", Found: false}}

	require.NoError(t, NewFormatter(&buf).FormatReport(dto))

	out := buf.String()
	require.Contains(t, out, "session s-1: 2/3 loaded in 1500ms")
	require.Contains(t, out, "/models/potion-1.fbx")
	require.Contains(t, out, "loot: [coins]")
	require.Contains(t, out, "missing loot models: [potion-1]")
	require.Contains(t, out, "MODEL")
	require.Contains(t, out, "missing")
}

func TestFormatter_Catalogue(t *testing.T) {
	cat := catalogue.MustNew(
		catalogue.AssetDescriptor{Name: "level", Locator: "/models/level.glb", Kind: catalogue.KindModel, Variant: catalogue.VariantGLTF},
		catalogue.AssetDescriptor{Name: "coins", Locator: "/models/coins.fbx", Kind: catalogue.KindModel, Variant: catalogue.VariantFBX, Loot: true},
	)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatCatalogue(FromCatalogue(cat)))
	out := buf.String()
	require.Less(t, bytes.Index(buf.Bytes(), []byte("level")), bytes.Index(buf.Bytes(), []byte("coins")), "declaration order")
	require.Contains(t, out, "/models/coins.fbx")
	require.Contains(t, out, "yes")

	buf.Reset()
	require.NoError(t, NewJSONFormatter(&buf).FormatCatalogue(FromCatalogue(cat)))
	var decoded []CatalogueEntryDTO
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "gltf", decoded[0].Variant)
	require.True(t, decoded[1].Loot)
}

func TestFormatter_History(t *testing.T) {
	finished := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := FromHistory([]journal.Entry{
		{SessionID: "s-2", Total: 3, Loaded: 3, StartedAt: finished.Add(-time.Second), FinishedAt: finished},
	})
	require.Equal(t, int64(1000), entries[0].DurationMs)

	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatHistory(entries))
	require.Contains(t, buf.String(), "s-2")
	require.Contains(t, buf.String(), "2025-01-02 03:04:05")

	buf.Reset()
	require.NoError(t, NewFormatter(&buf).FormatHistory(nil))
	require.Equal(t, "no sessions recorded\n", buf.String())
}

func TestFormatter_Failures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(&buf).FormatFailures(nil))
	require.Equal(t, "no failures\n", buf.String())

	buf.Reset()
	require.NoError(t, NewFormatter(&buf).FormatFailures([]FailureDTO{{Name: "a", Locator: "/a", Error: "boom"}}))
	require.Contains(t, buf.String(), "boom")
}
