//go:build property
// +build property

package gate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/geom"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// TestGateProperties checks parser and matcher properties over random diagrams.
func TestGateProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	cat := blocks.DefaultCatalog()
	parser := NewParser(cat, cat, nil, logging.Nop())
	ctx := context.Background()

	diagram := gen.SliceOfN(4, gen.RegexMatch(`^[X. -]{1,6}$`))

	// Property: a diagram loads only with exactly two control points
	properties.Property("control point invariant", prop.ForAll(
		func(rows []string) bool {
			text := "X=OBSIDIAN\n-=OBSIDIAN\n\n" + strings.Join(rows, "\n") + "\n"
			tmpl, err := parser.ParseString(ctx, "prop.gate", text)

			controls := strings.Count(strings.Join(rows, ""), "-")
			if strings.TrimSpace(strings.Join(rows, "")) == "" {
				return err != nil
			}
			if controls == 2 {
				return err == nil && len(tmpl.Controls()) == 2
			}
			return errors.Is(err, gerrors.KindInvalidControlPointCount)
		},
		diagram,
	))

	// Property: the canonical form is a fixed point of parse and serialize
	properties.Property("serialize round trip", prop.ForAll(
		func(rows []string, useCost int) bool {
			rows = append([]string{"-XX-"}, rows...)
			for i, row := range rows[1:] {
				rows[i+1] = strings.ReplaceAll(row, "-", "X")
			}
			text := "usecost=" + strconv.Itoa(useCost) + "\nX=OBSIDIAN\n-=OBSIDIAN\n\n" + strings.Join(rows, "\n") + "\n"

			first, err := parser.ParseString(ctx, "prop.gate", text)
			if err != nil {
				return false
			}
			canonical := string(Serialize(first))
			second, err := parser.ParseString(ctx, "prop.gate", canonical)
			if err != nil {
				return false
			}
			return canonical == string(Serialize(second))
		},
		diagram,
		gen.IntRange(0, 1000),
	))

	// Property: a frame built from the template matches in every orientation
	properties.Property("built frames match", prop.ForAll(
		func(rows []string, x, y, z int) bool {
			rows = append([]string{"-XX-"}, rows...)
			for i, row := range rows[1:] {
				rows[i+1] = strings.ReplaceAll(row, "-", "X")
			}
			tmpl, err := New("prop.gate", rows, map[rune]SymbolRule{
				'X':           ExactType("OBSIDIAN"),
				SymbolControl: ExactType("OBSIDIAN"),
			})
			if err != nil {
				return false
			}

			origin := geom.Point{X: x, Y: y, Z: z}
			for _, o := range geom.Orientations {
				w := mapWorld{}
				build(w, tmpl, origin, o.AxisX, o.AxisZ, blocks.Air)
				if !tmpl.Matches(LookupIn(w), origin, o.AxisX, o.AxisZ, true) {
					return false
				}
			}
			return true
		},
		diagram,
		gen.IntRange(-1000, 1000),
		gen.IntRange(-64, 320),
		gen.IntRange(-1000, 1000),
	))

	properties.TestingRun(t)
}
