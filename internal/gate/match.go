package gate

import (
	"context"
	"fmt"

	"github.com/conneroisu/gatesmith/internal/blocks"
	"github.com/conneroisu/gatesmith/internal/geom"
)

// World answers block queries at absolute coordinates.
type World interface {
	BlockAt(p geom.Point) blocks.Type
}

// WorldLookup resolves a diagram cell, placed at origin in the orientation
// (axisX, axisZ), to the block found there.
type WorldLookup func(off geom.RelativeOffset, origin geom.Point, axisX, axisZ int) blocks.Type

// LookupIn adapts a World to a WorldLookup using RelativeOffset.Translate.
func LookupIn(w World) WorldLookup {
	return func(off geom.RelativeOffset, origin geom.Point, axisX, axisZ int) blocks.Type {
		return w.BlockAt(off.Translate(origin, axisX, axisZ))
	}
}

// MatchOptions tunes a structural match.
type MatchOptions struct {
	// Creating relaxes the entrance check for a gate that is being built:
	// interior cells may also hold air, not only the open or closed block.
	Creating bool
	// IgnoreEntrance skips interior cells entirely.
	IgnoreEntrance bool
}

// MismatchReason says which check rejected a cell.
type MismatchReason string

const (
	ReasonEntrance MismatchReason = "entrance"
	ReasonType     MismatchReason = "type"
	ReasonCategory MismatchReason = "category"
	ReasonLearned  MismatchReason = "learned"
)

// Mismatch describes the first cell that failed a match.
type Mismatch struct {
	Offset   geom.RelativeOffset
	Position geom.Point
	Symbol   rune
	Reason   MismatchReason
	Expected string
	Actual   blocks.Type
}

func (m *Mismatch) String() string {
	return fmt.Sprintf("%s mismatch at %s (world %s, symbol %q): expected %s, found %s",
		m.Reason, m.Offset, m.Position, m.Symbol, m.Expected, m.Actual)
}

// MatchResult is the outcome of a match. Mismatch is nil when Matched.
type MatchResult struct {
	Matched  bool
	Mismatch *Mismatch
}

// Matches reports whether the world around origin holds this gate.
// strictEntranceCheck=false is the relaxed check used while a gate is built.
func (t *Template) Matches(lookup WorldLookup, origin geom.Point, axisX, axisZ int, strictEntranceCheck bool) bool {
	return t.Match(lookup, origin, axisX, axisZ, MatchOptions{Creating: !strictEntranceCheck}).Matched
}

// Match walks the diagram row by row and stops at the first cell the world
// does not satisfy. Symbols with a Learned rule are bound in a map local to
// this call; the template itself is never modified.
func (t *Template) Match(lookup WorldLookup, origin geom.Point, axisX, axisZ int, opts MatchOptions) MatchResult {
	var learned map[rune]blocks.Type

	for y, row := range t.rows {
		for x, sym := range row {
			if sym == SymbolAnything {
				continue
			}

			off := geom.Offset(x, y)

			if sym == SymbolEntrance || sym == SymbolExit {
				if opts.IgnoreEntrance {
					continue
				}

				actual := lookup(off, origin, axisX, axisZ)
				if t.isAir(actual) {
					actual = blocks.Air
				}

				ok := actual == t.portalClosed || actual == t.portalOpen
				if !ok && opts.Creating && actual == blocks.Air {
					ok = true
				}
				if !ok {
					return t.fail(off, origin, axisX, axisZ, sym, ReasonEntrance,
						fmt.Sprintf("%s or %s", t.portalClosed, t.portalOpen), actual)
				}
				continue
			}

			actual := lookup(off, origin, axisX, axisZ)
			rule := t.rules[sym]

			switch rule.Kind {
			case RuleExact:
				if actual != rule.Type {
					return t.fail(off, origin, axisX, axisZ, sym, ReasonType, rule.String(), actual)
				}
			case RuleFamily:
				if actual != rule.Type && !actual.InFamily(rule.Family) {
					return t.fail(off, origin, axisX, axisZ, sym, ReasonType, rule.String(), actual)
				}
			case RuleCategory:
				if rule.Category == nil || !rule.Category.Contains(actual) {
					return t.fail(off, origin, axisX, axisZ, sym, ReasonCategory, rule.Value(), actual)
				}
			case RuleLearned:
				if learned == nil {
					learned = make(map[rune]blocks.Type)
				}
				want, seen := learned[sym]
				if !seen {
					learned[sym] = actual
					continue
				}
				if actual != want {
					return t.fail(off, origin, axisX, axisZ, sym, ReasonLearned, want.String(), actual)
				}
			}
		}
	}

	return MatchResult{Matched: true}
}

func (t *Template) fail(off geom.RelativeOffset, origin geom.Point, axisX, axisZ int, sym rune,
	reason MismatchReason, expected string, actual blocks.Type,
) MatchResult {
	m := &Mismatch{
		Offset:   off,
		Position: off.Translate(origin, axisX, axisZ),
		Symbol:   sym,
		Reason:   reason,
		Expected: expected,
		Actual:   actual,
	}

	t.logger.Debug(context.Background(), "gate does not match",
		"gate", t.identity,
		"reason", string(reason),
		"offset", off.String(),
		"expected", expected,
		"actual", actual.String(),
	)

	return MatchResult{Mismatch: m}
}

// FindOrientation tries every compass orientation and returns the first that
// matches.
func (t *Template) FindOrientation(lookup WorldLookup, origin geom.Point, opts MatchOptions) (geom.Orientation, bool) {
	for _, o := range geom.Orientations {
		if t.Match(lookup, origin, o.AxisX, o.AxisZ, opts).Matched {
			return o, true
		}
	}
	return geom.Orientation{}, false
}
