package worldstore

import (
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/geom"
)

// Stamp writes a correctly built frame of t into m at origin, facing
// (axisX, axisZ). Interior cells get the open or closed portal block.
// Category cells get the category's first member. Cells of learned symbols
// are left at the world default, which keeps every occurrence consistent.
func Stamp(m *Memory, t *gate.Template, origin geom.Point, axisX, axisZ int, open bool) {
	interior := t.PortalClosed()
	if open {
		interior = t.PortalOpen()
	}

	for y, row := range t.Rows() {
		for x, sym := range row {
			pos := geom.Offset(x, y).Translate(origin, axisX, axisZ)

			switch sym {
			case gate.SymbolAnything:
				continue
			case gate.SymbolEntrance, gate.SymbolExit:
				m.Set(pos, interior)
				continue
			}

			rule, _ := t.Rule(sym)
			switch rule.Kind {
			case gate.RuleExact, gate.RuleFamily:
				m.Set(pos, rule.Type)
			case gate.RuleCategory:
				if members := rule.Category.Members(); len(members) > 0 {
					m.Set(pos, members[0])
				}
			}
		}
	}
}
