package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/gatesmith/internal/blocks"
	"github.com/conneroisu/gatesmith/internal/geom"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// mapWorld is an in-memory world; unset positions are air.
type mapWorld map[geom.Point]blocks.Type

func (w mapWorld) BlockAt(p geom.Point) blocks.Type {
	if b, ok := w[p]; ok {
		return b
	}
	return blocks.Air
}

// build places tmpl into w: structural cells get their rule's block, interior
// cells get interior.
func build(w mapWorld, tmpl *Template, origin geom.Point, axisX, axisZ int, interior blocks.Type) {
	for y, row := range tmpl.Rows() {
		for x, sym := range row {
			off := geom.Offset(x, y)
			pos := off.Translate(origin, axisX, axisZ)
			switch sym {
			case SymbolAnything:
			case SymbolEntrance, SymbolExit:
				w[pos] = interior
			default:
				rule, _ := tmpl.Rule(sym)
				switch rule.Kind {
				case RuleCategory:
					w[pos] = rule.Category.Members()[0]
				default:
					w[pos] = rule.Type
				}
			}
		}
	}
}

const netherGateText = `portal-open=NETHER_PORTAL
portal-closed=AIR
toowner=false
X=OBSIDIAN
-=OBSIDIAN

 XX
X..X
-..-
X*.X
 XX
`

func newTestParser(t *testing.T) (*Parser, *logging.Recorder) {
	t.Helper()
	rec := logging.NewRecorder()
	cat := blocks.DefaultCatalog()
	return NewParser(cat, cat, fixedEconomy{use: 5, create: 10, destroy: 2}, rec), rec
}

func mustParse(t *testing.T, p *Parser, identity, text string) *Template {
	t.Helper()
	tmpl, err := p.ParseString(context.Background(), identity, text)
	require.NoError(t, err)
	return tmpl
}

type fixedEconomy struct {
	use, create, destroy int
	toOwner              bool
}

func (e fixedEconomy) UseCost() int     { return e.use }
func (e fixedEconomy) CreateCost() int  { return e.create }
func (e fixedEconomy) DestroyCost() int { return e.destroy }
func (e fixedEconomy) ToOwner() bool    { return e.toOwner }
