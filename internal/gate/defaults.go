package gate

import (
	"fmt"

	"github.com/conneroisu/gatesmith/internal/blocks"
)

// Identities of the built-in templates.
const (
	NetherGateIdentity = "nethergate" + FileExtension
	WaterGateIdentity  = "water" + FileExtension
)

// defaultLayout is shared by both built-in templates.
var defaultLayout = []string{
	" XX ",
	"X..X",
	"-..-",
	"X*.X",
	" XX ",
}

type builtinGate struct {
	identity string
	frame    blocks.Type
	open     blocks.Type
	closed   blocks.Type
}

var builtinGates = []builtinGate{
	{identity: NetherGateIdentity, frame: "OBSIDIAN", open: DefaultPortalOpen, closed: DefaultPortalClosed},
	{identity: WaterGateIdentity, frame: "SEA_LANTERN", open: "KELP_PLANT", closed: "WATER"},
}

// Defaults builds the two templates written into a fresh gate directory: an
// obsidian nether gate and a sea lantern water gate. Every block they use
// must be known to types.
func Defaults(types blocks.TypeRegistry, economy EconomyDefaults, opts ...Option) ([]*Template, error) {
	if types == nil {
		return nil, fmt.Errorf("default gates need a block type registry")
	}
	out := make([]*Template, 0, len(builtinGates))

	for _, bg := range builtinGates {
		resolved := make(map[blocks.Type]blocks.Type, 3)
		for _, name := range []blocks.Type{bg.frame, bg.open, bg.closed} {
			t, ok := types.Lookup(name.String())
			if !ok {
				return nil, fmt.Errorf("default gate %s: block type %s is not registered", bg.identity, name)
			}
			resolved[name] = t
		}

		frame := RuleForType(resolved[bg.frame])
		rules := map[rune]SymbolRule{
			'X':           frame,
			SymbolControl: frame,
		}

		all := append([]Option{
			WithPortalBlocks(resolved[bg.open], resolved[bg.closed]),
			WithEconomy(economy),
			WithTypes(types),
			WithSymbolOrder([]rune{'X', SymbolControl}),
		}, opts...)

		t, err := New(bg.identity, defaultLayout, rules, all...)
		if err != nil {
			return nil, fmt.Errorf("default gate %s: %w", bg.identity, err)
		}
		out = append(out, t)
	}

	return out, nil
}
