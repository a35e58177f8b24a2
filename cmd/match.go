package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/geom"
	"github.com/conneroisu/gatesmith/internal/worldstore"
)

var matchCmd = &cobra.Command{
	Use:     "match <gate>",
	Aliases: []string{"m"},
	Short:   "Check whether a world holds a gate at a position",
	Long: `Load a world file and check whether the gate's frame stands at the given
origin. The origin is the world position of the top-left diagram cell; --axis
gives the direction the diagram's columns run in. With --any all four compass
directions are tried.

World files may be YAML regions (.yaml), zstd compressed regions (.yaml.zst)
or SQLite worlds (.db, .sqlite, .sqlite3).

Examples:
  gatesmith match nethergate --world region.yaml --origin 0,64,0
  gatesmith match water.gate --world capture.db --origin 10,60,-4 --axis 0,1
  gatesmith match nethergate --world region.yaml.zst --origin 0,64,0 --any
  gatesmith match nethergate --world region.yaml --origin 0,64,0 --create`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

var (
	matchFlags          *StandardFlags
	matchAny            bool
	matchCreate         bool
	matchIgnoreEntrance bool
	matchFormat         string
)

// errNoMatch makes the command exit non-zero when the frame is not found.
var errNoMatch = errors.New("gate not found")

func init() {
	rootCmd.AddCommand(matchCmd)

	matchFlags = AddStandardFlags(matchCmd, "world", "placement")
	matchCmd.Flags().BoolVar(&matchAny, "any", false, "Try all four orientations")
	matchCmd.Flags().BoolVar(&matchCreate, "create", false, "Relaxed entrance check for a gate being built (air is accepted)")
	matchCmd.Flags().BoolVar(&matchIgnoreEntrance, "ignore-entrance", false, "Do not check interior cells")
	matchCmd.Flags().StringVarP(&matchFormat, "format", "f", "text", "Output format (text, json)")

	matchCmd.MarkFlagRequired("world")
	matchCmd.MarkFlagsMutuallyExclusive("any", "axis")
}

// MatchReport is the outcome for one orientation.
type MatchReport struct {
	Gate     string `json:"gate"`
	Origin   string `json:"origin"`
	AxisX    int    `json:"axis_x"`
	AxisZ    int    `json:"axis_z"`
	Matched  bool   `json:"matched"`
	Mismatch string `json:"mismatch,omitempty"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	if err := ValidateFormat(matchFormat, []string{"text", "json"}); err != nil {
		return err
	}

	origin, err := matchFlags.OriginPoint()
	if err != nil {
		return err
	}
	orientations := geom.Orientations
	if !matchAny {
		o, err := matchFlags.Orientation()
		if err != nil {
			return err
		}
		orientations = []geom.Orientation{o}
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if err := a.load(ctx); err != nil {
		return err
	}

	t, err := a.template(args[0])
	if err != nil {
		return err
	}

	world, err := worldstore.OpenWorld(ctx, matchFlags.World, a.catalog)
	if err != nil {
		return fmt.Errorf("failed to open world %s: %w", matchFlags.World, err)
	}
	defer world.Close()

	opts := a.cfg.MatchOptions()
	if matchCreate {
		opts.Creating = true
	}
	if matchIgnoreEntrance {
		opts.IgnoreEntrance = true
	}

	reports := matchOrientations(t, gate.LookupIn(world), origin, orientations, opts)

	if db, ok := world.(*worldstore.SQLite); ok {
		if err := db.Err(); err != nil {
			return fmt.Errorf("world query failed: %w", err)
		}
	}

	if err := printMatchReports(cmd.OutOrStdout(), reports); err != nil {
		return err
	}

	for _, r := range reports {
		if r.Matched {
			return nil
		}
	}
	return errNoMatch
}

// matchOrientations matches t in each orientation. With several orientations
// it stops at the first match.
func matchOrientations(t *gate.Template, lookup gate.WorldLookup, origin geom.Point,
	orientations []geom.Orientation, opts gate.MatchOptions,
) []MatchReport {
	reports := make([]MatchReport, 0, len(orientations))
	for _, o := range orientations {
		res := t.Match(lookup, origin, o.AxisX, o.AxisZ, opts)
		r := MatchReport{
			Gate:    t.Identity(),
			Origin:  origin.String(),
			AxisX:   o.AxisX,
			AxisZ:   o.AxisZ,
			Matched: res.Matched,
		}
		if res.Mismatch != nil {
			r.Mismatch = res.Mismatch.String()
		}
		reports = append(reports, r)
		if res.Matched {
			break
		}
	}
	return reports
}

func printMatchReports(w io.Writer, reports []MatchReport) error {
	if strings.EqualFold(matchFormat, "json") {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reports)
	}

	for _, r := range reports {
		if r.Matched {
			fmt.Fprintf(w, "%s matches at %s facing %d,%d\n", r.Gate, r.Origin, r.AxisX, r.AxisZ)
			continue
		}
		fmt.Fprintf(w, "%s does not match at %s facing %d,%d: %s\n", r.Gate, r.Origin, r.AxisX, r.AxisZ, r.Mismatch)
	}
	return nil
}
