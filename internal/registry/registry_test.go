package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/logging"
)

const obsidianGate = `portal-open=NETHER_PORTAL
portal-closed=AIR
X=OBSIDIAN
-=OBSIDIAN

 XX
X..X
-..-
X*.X
 XX
`

const brokenCostGate = `usecost=abc
X=STONE_BRICKS
-=STONE_BUTTON

X-X-
`

func newRegistry(t *testing.T) (*TemplateRegistry, *logging.Recorder) {
	t.Helper()
	rec := logging.NewRecorder()
	cat := blocks.DefaultCatalog()
	parser := gate.NewParser(cat, cat, nil, rec)
	return NewTemplateRegistry(parser, rec), rec
}

func writeGate(t *testing.T, dir, name, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
}

func TestNewTemplateRegistry(t *testing.T) {
	r, _ := newRegistry(t)

	assert.NotNil(t, r)
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.All())
	assert.Empty(t, r.LookupByControlBlockType("OBSIDIAN"))

	_, ok := r.LookupByIdentity("nethergate.gate")
	assert.False(t, ok)
}

func TestLoadAll_MissingDirectoryProvisionsDefaults(t *testing.T) {
	r, rec := newRegistry(t)
	dir := filepath.Join(t.TempDir(), "gates")

	require.NoError(t, r.LoadAll(context.Background(), dir))

	assert.Equal(t, 2, r.Count())
	for _, name := range []string{gate.NetherGateIdentity, gate.WaterGateIdentity} {
		tmpl, ok := r.LookupByIdentity(name)
		require.True(t, ok, name)

		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, string(gate.Serialize(tmpl)), string(data))
	}

	assert.Len(t, r.LookupByControlBlockType("OBSIDIAN"), 1)
	assert.Len(t, r.LookupByControlBlockType("SEA_LANTERN"), 1)
	assert.Empty(t, rec.AtLevel(logging.LevelError))
}

func TestLoadAll_DefaultsWithoutTypeRegistry(t *testing.T) {
	r := NewTemplateRegistry(gate.NewParser(nil, nil, nil, nil), nil)
	dir := filepath.Join(t.TempDir(), "gates")

	require.NotPanics(t, func() {
		err := r.LoadAll(context.Background(), dir)
		assert.Error(t, err)
	})
	assert.Equal(t, 0, r.Count())
}

func TestLoadAll_ExistingEmptyDirectory(t *testing.T) {
	r, _ := newRegistry(t)
	dir := t.TempDir()

	require.NoError(t, r.LoadAll(context.Background(), dir))
	assert.Equal(t, 0, r.Count())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "defaults are only written into a new directory")
}

func TestLoadAll_MalformedSettingStillRegisters(t *testing.T) {
	r, rec := newRegistry(t)
	dir := t.TempDir()
	writeGate(t, dir, "good.gate", obsidianGate)
	writeGate(t, dir, "soft.gate", brokenCostGate)

	require.NoError(t, r.LoadAll(context.Background(), dir))

	assert.Equal(t, 2, r.Count())

	soft, ok := r.LookupByIdentity("soft.gate")
	require.True(t, ok)
	_, set := soft.OwnUseCost()
	assert.False(t, set)

	warns := rec.AtLevel(logging.LevelWarn)
	require.Len(t, warns, 1)
	assert.True(t, errors.Is(warns[0].Err, gerrors.KindMalformedNumber))
	assert.Equal(t, "soft.gate", warns[0].Fields["gate"])

	assert.Equal(t, []string{"soft.gate"}, r.Failures().Identities())
	assert.Empty(t, r.Failures().Failed())

	// The canonical rewrite drops the malformed value.
	data, err := os.ReadFile(filepath.Join(dir, "soft.gate"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "usecost")
}

func TestLoadAll_SkipsBrokenFiles(t *testing.T) {
	r, rec := newRegistry(t)
	dir := t.TempDir()
	writeGate(t, dir, "good.gate", obsidianGate)
	writeGate(t, dir, "three.gate", "-=OBSIDIAN\n\n-.-.-\n")
	writeGate(t, dir, "unknown.gate", "-=OBSIDIAN\n\n-QQ-\n")
	writeGate(t, dir, "notes.txt", "not a gate")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.gate"), 0o755))

	require.NoError(t, r.LoadAll(context.Background(), dir))

	assert.Equal(t, 1, r.Count())
	_, ok := r.LookupByIdentity("good.gate")
	assert.True(t, ok)

	assert.Equal(t, []string{"three.gate", "unknown.gate"}, r.Failures().Failed())
	assert.True(t, errors.Is(r.Failures().Errors("three.gate")[0], gerrors.KindInvalidControlPointCount))
	assert.True(t, errors.Is(r.Failures().Errors("unknown.gate")[0], gerrors.KindUnknownSymbol))

	assert.Len(t, rec.AtLevel(logging.LevelError), 2)

	// Broken files are left untouched.
	data, err := os.ReadFile(filepath.Join(dir, "three.gate"))
	require.NoError(t, err)
	assert.Equal(t, "-=OBSIDIAN\n\n-.-.-\n", string(data))
}

func TestLoadAll_NotADirectory(t *testing.T) {
	r, _ := newRegistry(t)
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	err := r.LoadAll(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, gerrors.KindIO, gerrors.KindOf(err))
}

func TestLoadAll_Cancelled(t *testing.T) {
	r, _ := newRegistry(t)
	dir := t.TempDir()
	writeGate(t, dir, "good.gate", obsidianGate)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.LoadAll(ctx, dir), context.Canceled)
	assert.Equal(t, 0, r.Count())
}

func TestLoadAll_CustomExtension(t *testing.T) {
	rec := logging.NewRecorder()
	cat := blocks.DefaultCatalog()
	r := NewTemplateRegistry(gate.NewParser(cat, cat, nil, rec), rec, WithExtension("portal"))

	dir := t.TempDir()
	writeGate(t, dir, "a.portal", obsidianGate)
	writeGate(t, dir, "b.gate", obsidianGate)

	require.NoError(t, r.LoadAll(context.Background(), dir))
	assert.Equal(t, 1, r.Count())
	_, ok := r.LookupByIdentity("a.portal")
	assert.True(t, ok)
}

func TestLookupByControlBlockType_Order(t *testing.T) {
	r, _ := newRegistry(t)
	dir := t.TempDir()
	writeGate(t, dir, "c.gate", obsidianGate)
	writeGate(t, dir, "a.gate", obsidianGate)
	writeGate(t, dir, "b.gate", obsidianGate)

	require.NoError(t, r.LoadAll(context.Background(), dir))

	var names []string
	for _, tmpl := range r.LookupByControlBlockType("OBSIDIAN") {
		names = append(names, tmpl.Identity())
	}
	assert.Equal(t, []string{"a.gate", "b.gate", "c.gate"}, names)

	// The returned slice is a copy.
	list := r.LookupByControlBlockType("OBSIDIAN")
	list[0] = nil
	assert.NotNil(t, r.LookupByControlBlockType("OBSIDIAN")[0])
}

func TestRegister_ReplacesIdentity(t *testing.T) {
	r, _ := newRegistry(t)
	cat := blocks.DefaultCatalog()
	parser := gate.NewParser(cat, cat, nil, nil)

	first, err := parser.ParseString(context.Background(), "swap.gate", obsidianGate)
	require.NoError(t, err)
	second, err := parser.ParseString(context.Background(), "swap.gate", "X=OBSIDIAN\n-=GLOWSTONE\n\nX-.-X\n")
	require.NoError(t, err)

	events := r.Watch()
	r.Register(first)
	r.Register(second)

	assert.Equal(t, 1, r.Count())
	assert.Empty(t, r.LookupByControlBlockType("OBSIDIAN"))
	assert.Equal(t, []*gate.Template{second}, r.LookupByControlBlockType("GLOWSTONE"))

	assert.Equal(t, EventTypeAdded, (<-events).Type)
	assert.Equal(t, EventTypeUpdated, (<-events).Type)

	r.UnWatch(events)
	_, open := <-events
	assert.False(t, open)
}

func TestRegister_CategoryControl(t *testing.T) {
	r, _ := newRegistry(t)
	cat := blocks.DefaultCatalog()
	parser := gate.NewParser(cat, cat, nil, nil)

	tmpl, err := parser.ParseString(context.Background(), "button.gate", "X=OBSIDIAN\n-=#wooden_buttons\n\nX-.-X\n")
	require.NoError(t, err)
	r.Register(tmpl)

	assert.Equal(t, []*gate.Template{tmpl}, r.LookupByControlBlockType("OAK_BUTTON"))
	assert.Equal(t, []*gate.Template{tmpl}, r.LookupByControlBlockType("BIRCH_BUTTON"))
	assert.Empty(t, r.LookupByControlBlockType("STONE_BUTTON"))
}

func TestClear(t *testing.T) {
	r, _ := newRegistry(t)
	dir := t.TempDir()
	writeGate(t, dir, "good.gate", obsidianGate)
	writeGate(t, dir, "bad.gate", "-=OBSIDIAN\n\n-\n")
	require.NoError(t, r.LoadAll(context.Background(), dir))
	require.Equal(t, 1, r.Count())
	require.True(t, r.Failures().HasErrors())

	events := r.Watch()
	r.Clear()

	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.All())
	assert.Empty(t, r.LookupByControlBlockType("OBSIDIAN"))
	assert.False(t, r.Failures().HasErrors())
	assert.Equal(t, EventTypeCleared, (<-events).Type)

	// Clear then reload restores the same state.
	require.NoError(t, r.LoadAll(context.Background(), dir))
	assert.Equal(t, 1, r.Count())
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "added", EventTypeAdded.String())
	assert.Equal(t, "updated", EventTypeUpdated.String())
	assert.Equal(t, "cleared", EventTypeCleared.String())
	assert.Equal(t, "unknown", EventType(42).String())
}
