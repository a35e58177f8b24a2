package worldstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/geom"
)

func defaultGates(t *testing.T) (*gate.Template, *gate.Template) {
	t.Helper()
	templates, err := gate.Defaults(blocks.DefaultCatalog(), nil)
	require.NoError(t, err)
	return templates[0], templates[1]
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	p := geom.Point{X: 1, Y: 2, Z: 3}

	assert.Equal(t, blocks.Air, m.BlockAt(p))

	m.Set(p, "STONE")
	m.Set(geom.Point{Y: 1}, "GLASS")
	assert.Equal(t, blocks.Type("STONE"), m.BlockAt(p))
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []geom.Point{{Y: 1}, p}, m.Points())

	m.Set(p, blocks.Air)
	assert.Equal(t, 1, m.Len())

	m.SetDefault("WATER")
	assert.Equal(t, blocks.Type("WATER"), m.BlockAt(p))
	m.SetDefault("")
	assert.Equal(t, blocks.Air, m.Default())
}

func TestStamp(t *testing.T) {
	nether, water := defaultGates(t)
	origin := geom.Point{X: 5, Y: 64, Z: -5}

	for _, o := range geom.Orientations {
		m := NewMemory()
		Stamp(m, nether, origin, o.AxisX, o.AxisZ, false)
		assert.True(t, nether.Matches(gate.LookupIn(m), origin, o.AxisX, o.AxisZ, true))
		assert.Equal(t, 10, m.Len(), "interior air is not stored")
	}

	m := NewMemory()
	Stamp(m, water, origin, 1, 0, true)
	assert.Equal(t, blocks.Type("KELP_PLANT"), m.BlockAt(geom.Offset(1, 1).Translate(origin, 1, 0)))
	assert.True(t, water.Matches(gate.LookupIn(m), origin, 1, 0, true))
}

func TestStamp_CategoryAndLearned(t *testing.T) {
	cat := blocks.DefaultCatalog()
	p := gate.NewParser(cat, cat, nil, nil)
	tmpl, err := p.ParseString(context.Background(), "wool.gate", "W=#wool\n-=OBSIDIAN\n\n-WW-\n")
	require.NoError(t, err)

	m := NewMemory()
	Stamp(m, tmpl, geom.Point{}, 1, 0, false)
	assert.True(t, tmpl.Matches(gate.LookupIn(m), geom.Point{}, 1, 0, true))

	learned, err := gate.New("learned.gate", []string{"-YY-"}, map[rune]gate.SymbolRule{
		gate.SymbolControl: gate.ExactType("OBSIDIAN"),
	})
	require.NoError(t, err)

	m = NewMemory()
	Stamp(m, learned, geom.Point{}, 1, 0, false)
	assert.True(t, learned.Matches(gate.LookupIn(m), geom.Point{}, 1, 0, true))
}

func TestRegion_RoundTrip(t *testing.T) {
	cat := blocks.DefaultCatalog()
	nether, _ := defaultGates(t)

	m := NewMemory()
	Stamp(m, nether, geom.Point{X: -3, Y: 70, Z: 12}, 0, 1, true)

	for _, name := range []string{"region.yaml", "region.yaml.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, WriteRegionFile(path, m))

			loaded, err := ReadRegionFile(path, cat)
			require.NoError(t, err)
			assert.Equal(t, m.Points(), loaded.Points())
			for _, p := range m.Points() {
				assert.Equal(t, m.BlockAt(p), loaded.BlockAt(p))
			}
		})
	}
}

func TestRegion_CompressedIsNotPlainYAML(t *testing.T) {
	m := NewMemory()
	m.Set(geom.Point{}, "OBSIDIAN")

	path := filepath.Join(t.TempDir(), "r.yaml.zst")
	require.NoError(t, WriteRegionFile(path, m))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "OBSIDIAN")
	// zstd frame magic number
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4])
}

func TestReadRegion(t *testing.T) {
	cat := blocks.DefaultCatalog()

	m, err := ReadRegion(strings.NewReader(`default: water
blocks:
  - pos: [0, 0, 0]
    block: sea_lantern
  - pos: [1, 0, 0]
    block: WATER
`), cat)
	require.NoError(t, err)
	assert.Equal(t, blocks.Type("SEA_LANTERN"), m.BlockAt(geom.Point{}))
	assert.Equal(t, blocks.Type("WATER"), m.BlockAt(geom.Point{X: 1}))
	assert.Equal(t, blocks.Type("WATER"), m.BlockAt(geom.Point{X: 9}))
	assert.Equal(t, 1, m.Len())

	var buf bytes.Buffer
	require.NoError(t, WriteRegion(&buf, m))
	assert.Contains(t, buf.String(), "default: WATER")
	assert.Contains(t, buf.String(), "pos: [0, 0, 0]")

	empty, err := ReadRegion(strings.NewReader(""), cat)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	_, err = ReadRegion(strings.NewReader("blocks:\n  - pos: [0, 0, 0]\n    block: UNOBTAINIUM\n"), cat)
	assert.Equal(t, gerrors.KindUnknownBlockType, gerrors.KindOf(err))

	_, err = ReadRegion(strings.NewReader("blocks: []\ncolour: red\n"), cat)
	assert.Error(t, err)

	_, err = ReadRegionFile(filepath.Join(t.TempDir(), "missing.yaml"), cat)
	assert.Equal(t, gerrors.KindIO, gerrors.KindOf(err))
}

func TestSQLite(t *testing.T) {
	ctx := context.Background()
	nether, _ := defaultGates(t)
	origin := geom.Point{X: 100, Y: 5, Z: 100}

	m := NewMemory()
	Stamp(m, nether, origin, -1, 0, false)

	path := filepath.Join(t.TempDir(), "world.db")
	db, err := Open(ctx, path)
	require.NoError(t, err)

	require.NoError(t, db.Import(ctx, m))
	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.Len(), n)

	assert.True(t, nether.Matches(gate.LookupIn(db), origin, -1, 0, true))
	assert.Equal(t, blocks.Air, db.BlockAt(geom.Point{X: -1, Y: -1, Z: -1}))
	require.NoError(t, db.Err())
	require.NoError(t, db.Close())

	// Reopen and import over the same positions.
	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	m2 := NewMemory()
	m2.SetDefault("WATER")
	m2.Set(geom.Offset(0, 1).Translate(origin, -1, 0), "STONE")
	require.NoError(t, db.Import(ctx, m2))

	assert.False(t, nether.Matches(gate.LookupIn(db), origin, -1, 0, true))
	assert.Equal(t, blocks.Type("WATER"), db.BlockAt(geom.Point{X: -1, Y: -1, Z: -1}))

	n, err = db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, m.Len(), n)
}

func TestOpenWorld(t *testing.T) {
	ctx := context.Background()
	cat := blocks.DefaultCatalog()
	dir := t.TempDir()

	m := NewMemory()
	m.Set(geom.Point{X: 2}, "OBSIDIAN")

	region := filepath.Join(dir, "w.yaml")
	require.NoError(t, WriteRegionFile(region, m))

	w, err := OpenWorld(ctx, region, cat)
	require.NoError(t, err)
	assert.Equal(t, blocks.Type("OBSIDIAN"), w.BlockAt(geom.Point{X: 2}))
	require.NoError(t, w.Close())

	dbPath := filepath.Join(dir, "w.sqlite")
	w, err = OpenWorld(ctx, dbPath, cat)
	require.NoError(t, err)
	assert.Equal(t, blocks.Air, w.BlockAt(geom.Point{X: 2}))
	require.NoError(t, w.Close())

	assert.True(t, IsDatabase("x.DB"))
	assert.False(t, IsDatabase("x.yaml.zst"))
}
