package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/conneroisu/gatesmith/internal/geom"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Output flags
	OutputFormat string `flag:"output,o" desc:"Output format (table|json|yaml)" default:"table"`
	Verbose      bool   `flag:"verbose,v" desc:"Enable verbose output" default:"false"`
	Quiet        bool   `flag:"quiet,q" desc:"Suppress output" default:"false"`

	// World and placement flags
	World  string `flag:"world" desc:"World file (.yaml, .yaml.zst, .db)" default:""`
	Origin string `flag:"origin" desc:"Gate origin as x,y,z" default:"0,0,0"`
	Axis   string `flag:"axis" desc:"Facing as ax,az" default:"1,0"`
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd, flags)
		case "world":
			addWorldFlags(cmd, flags)
		case "placement":
			addPlacementFlags(cmd, flags)
		}
	}

	return flags
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress output")
}

func addWorldFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.World, "world", "", "World file (.yaml, .yaml.zst, .db)")
}

func addPlacementFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVar(&flags.Origin, "origin", "0,0,0", "Gate origin as x,y,z")
	cmd.Flags().StringVar(&flags.Axis, "axis", "1,0", "Facing as ax,az")
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.OutputFormat != "" {
		if err := ValidateFormat(f.OutputFormat, []string{"table", "json", "yaml"}); err != nil {
			return err
		}
	}

	// Quiet and verbose are mutually exclusive
	if f.Quiet && f.Verbose {
		return fmt.Errorf("cannot specify both --quiet and --verbose")
	}

	return nil
}

// OriginPoint parses --origin.
func (f *StandardFlags) OriginPoint() (geom.Point, error) {
	return ParsePoint(f.Origin)
}

// Orientation parses --axis.
func (f *StandardFlags) Orientation() (geom.Orientation, error) {
	return ParseAxis(f.Axis)
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	originalSet := flag.Value.Set

	flag.Value = &validatingValue{
		Value:       flag.Value,
		validator:   validator,
		originalSet: originalSet,
	}
}

type validatingValue struct {
	pflag.Value
	validator   func(string) error
	originalSet func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.originalSet(val)
}

// ValidateFormat checks format against the supported output formats.
func ValidateFormat(format string, valid []string) error {
	for _, v := range valid {
		if strings.EqualFold(format, v) {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %s, must be one of: %s", format, strings.Join(valid, ", "))
}

// ParsePoint parses "x,y,z".
func ParsePoint(s string) (geom.Point, error) {
	v, err := parseInts(s, 3)
	if err != nil {
		return geom.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return geom.Point{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ParseAxis parses "ax,az" and requires one of the four compass directions.
func ParseAxis(s string) (geom.Orientation, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return geom.Orientation{}, fmt.Errorf("invalid axis %q: %w", s, err)
	}
	o := geom.Orientation{AxisX: v[0], AxisZ: v[1]}
	for _, known := range geom.Orientations {
		if o == known {
			return o, nil
		}
	}
	return geom.Orientation{}, fmt.Errorf("invalid axis %q: must be one of 1,0 -1,0 0,1 0,-1", s)
}

func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated integers", n)
	}
	out := make([]int, n)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
