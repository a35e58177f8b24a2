package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/gatesmith/internal/gate"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List all loaded gates",
	Long: `List every gate in the gate directory with its size, control blocks,
portal blocks and effective costs. A missing gate directory is created and
filled with the built-in gates first.

Examples:
  gatesmith list                  # List all gates in table format
  gatesmith list -o json          # Output as JSON
  gatesmith list -o yaml          # Output as YAML
  gatesmith list -v               # Include the diagram of each gate`,
	RunE: runList,
}

var listFlags *StandardFlags

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output")

	AddFlagValidation(listCmd, "output", func(format string) error {
		return ValidateFormat(format, []string{"table", "json", "yaml"})
	})
}

// GateSummary is the listing entry of a single gate.
type GateSummary struct {
	Identity     string   `json:"identity" yaml:"identity"`
	Width        int      `json:"width" yaml:"width"`
	Height       int      `json:"height" yaml:"height"`
	Controls     []string `json:"controls" yaml:"controls"`
	PortalOpen   string   `json:"portal_open" yaml:"portal_open"`
	PortalClosed string   `json:"portal_closed" yaml:"portal_closed"`
	UseCost      int      `json:"usecost" yaml:"usecost"`
	CreateCost   int      `json:"createcost" yaml:"createcost"`
	DestroyCost  int      `json:"destroycost" yaml:"destroycost"`
	ToOwner      bool     `json:"toowner" yaml:"toowner"`
	Rows         []string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

func summarize(t *gate.Template, withRows bool) GateSummary {
	controls := make([]string, 0)
	for _, bt := range t.ControlTypes() {
		controls = append(controls, bt.String())
	}

	s := GateSummary{
		Identity:     t.Identity(),
		Width:        t.Width(),
		Height:       t.Height(),
		Controls:     controls,
		PortalOpen:   t.PortalOpen().String(),
		PortalClosed: t.PortalClosed().String(),
		UseCost:      t.UseCost(),
		CreateCost:   t.CreateCost(),
		DestroyCost:  t.DestroyCost(),
		ToOwner:      t.ToOwner(),
	}
	if withRows {
		s.Rows = t.Rows()
	}
	return s
}

func runList(cmd *cobra.Command, args []string) error {
	if err := listFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if err := a.load(commandContext(cmd)); err != nil {
		return err
	}

	templates := a.registry.All()
	out := cmd.OutOrStdout()

	if len(templates) == 0 {
		if !listFlags.Quiet {
			fmt.Fprintln(out, "No gates found.")
		}
		return nil
	}

	summaries := make([]GateSummary, len(templates))
	for i, t := range templates {
		summaries[i] = summarize(t, listFlags.Verbose)
	}

	switch strings.ToLower(listFlags.OutputFormat) {
	case "json":
		return outputListJSON(out, summaries)
	case "yaml":
		return outputListYAML(out, summaries)
	case "table", "":
		return outputListTable(out, summaries)
	default:
		return fmt.Errorf("unsupported format: %s", listFlags.OutputFormat)
	}
}

func outputListJSON(w io.Writer, summaries []GateSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summaries)
}

func outputListYAML(w io.Writer, summaries []GateSummary) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()
	return encoder.Encode(summaries)
}

func outputListTable(w io.Writer, summaries []GateSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "GATE\tSIZE\tCONTROL\tOPEN\tCLOSED\tUSE\tCREATE\tDESTROY\tTOOWNER")
	fmt.Fprintln(tw, "----\t----\t-------\t----\t------\t---\t------\t-------\t-------")

	for _, s := range summaries {
		control := strings.Join(s.Controls, ",")
		if len(s.Controls) > 3 {
			control = fmt.Sprintf("%s,... (%d)", strings.Join(s.Controls[:3], ","), len(s.Controls))
		}
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			s.Identity, s.Width, s.Height, control,
			s.PortalOpen, s.PortalClosed,
			s.UseCost, s.CreateCost, s.DestroyCost, s.ToOwner)

		for _, row := range s.Rows {
			fmt.Fprintf(tw, "  |%s|\n", row)
		}
	}

	fmt.Fprintf(tw, "\nTotal: %d gates\n", len(summaries))
	return tw.Flush()
}
