package shade

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beautycare/backend/internal/domain"
)

func newDefault(t *testing.T) *Normalizer {
	t.Helper()
	dir := t.TempDir()
	n, err := NewNormalizer(filepath.Join(dir, "shade_map.json"), filepath.Join(dir, "shade_neighbors.json"))
	require.NoError(t, err)
	return n
}

func TestNormalize(t *testing.T) {
	n := newDefault(t)

	tests := []struct {
		name   string
		raw    string
		wantID string
	}{
		{"exact", "porcelain", "found_001"},
		{"case insensitive", "  IVORY ", "found_002"},
		{"multi word exact", "Light   Medium", "found_005"},
		{"fuzzy prefers longest key", "light medium beige", "found_005"},
		{"fuzzy contained", "warm coral", "lip_003"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantID, n.Normalize(tt.raw).ShadeID)
		})
	}

	t.Run("unknown names get a deterministic id", func(t *testing.T) {
		a := n.Normalize("Sable 420")
		b := n.Normalize("sable 420")
		assert.True(t, strings.HasPrefix(a.ShadeID, "unknown_"))
		assert.Len(t, a.ShadeID, len("unknown_000"))
		assert.Equal(t, a.ShadeID, b.ShadeID)
		assert.Equal(t, "Sable 420", a.RawName)
	})
}

func TestNeighborsAndUniversals(t *testing.T) {
	n := newDefault(t)

	assert.Equal(t, []string{"found_003", "found_005"}, n.GetShadeNeighbors("found_004"))
	assert.Empty(t, n.GetShadeNeighbors("lip_001"))

	assert.Equal(t, []string{"found_004", "found_005", "lip_003"}, n.SeasonUniversals(domain.SeasonSpring))
	assert.Equal(t, []string{"found_001", "found_008", "lip_005"}, n.SeasonUniversals("Winter"))
	assert.Equal(t, []string{"found_004", "found_006"}, n.SeasonUniversals(""))

	// Returned slices are copies
	got := n.GetShadeNeighbors("found_004")
	got[0] = "mutated"
	assert.Equal(t, "found_003", n.GetShadeNeighbors("found_004")[0])
}

func TestByID(t *testing.T) {
	n := newDefault(t)

	info, ok := n.ByID("found_008")
	require.True(t, ok)
	assert.Equal(t, domain.DepthDeep, info.Depth)
	assert.Equal(t, "deep", info.RawName)

	_, ok = n.ByID("nope")
	assert.False(t, ok)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "shade_map.json")
	neighborsPath := filepath.Join(dir, "shade_neighbors.json")

	require.NoError(t, os.WriteFile(mapPath, []byte(`{
		"Warm Beige 30": {"shade_id": "wb_030", "undertone": "Warm", "depth": "medium", "hex": "#C9A27E"},
		"Sand 20": {"shade_id": "sd_020", "undertone": "neutral", "depth": "light"}
	}`), 0o644))
	require.NoError(t, os.WriteFile(neighborsPath, []byte(`{"wb_030": ["sd_020"]}`), 0o644))

	n, err := NewNormalizer(mapPath, neighborsPath)
	require.NoError(t, err)

	info := n.Normalize("warm beige 30")
	assert.Equal(t, "wb_030", info.ShadeID)
	assert.Equal(t, domain.UndertoneWarm, info.Undertone)
	assert.Equal(t, "#C9A27E", info.Hex)
	assert.Equal(t, []string{"sd_020"}, n.GetShadeNeighbors("wb_030"))

	// Defaults are not mixed in once a map file exists
	assert.True(t, strings.HasPrefix(n.Normalize("porcelain").ShadeID, "unknown_"))
}

func TestMalformedFile(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "shade_map.json")
	require.NoError(t, os.WriteFile(mapPath, []byte(`{not json`), 0o644))

	_, err := NewNormalizer(mapPath, "")
	assert.Error(t, err)
}

func TestAddAndSave(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "nested", "shade_map.json")
	neighborsPath := filepath.Join(dir, "nested", "shade_neighbors.json")

	n, err := NewNormalizer(mapPath, neighborsPath)
	require.NoError(t, err)

	require.NoError(t, n.AddShade("Golden 45", domain.ShadeInfo{ShadeID: "gd_045", Undertone: domain.UndertoneWarm, Depth: domain.DepthMedium}))
	n.SetNeighbors("gd_045", []string{"found_006"})
	assert.Equal(t, "gd_045", n.Normalize("golden 45").ShadeID)

	assert.ErrorIs(t, n.AddShade("", domain.ShadeInfo{ShadeID: "x"}), domain.ErrInvalidRequest)

	require.NoError(t, n.Save())

	reloaded, err := NewNormalizer(mapPath, neighborsPath)
	require.NoError(t, err)
	assert.Equal(t, "gd_045", reloaded.Normalize("Golden 45").ShadeID)
	assert.Equal(t, "found_001", reloaded.Normalize("porcelain").ShadeID)
	assert.Equal(t, []string{"found_006"}, reloaded.GetShadeNeighbors("gd_045"))
	assert.Equal(t, []string{"found_007"}, reloaded.GetShadeNeighbors("found_008"))
}
