package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gatesmith/internal/gate"
)

var defaultsForce bool

var defaultsCmd = &cobra.Command{
	Use:   "defaults [dir]",
	Short: "Write the built-in gates",
	Long: `Write the built-in nethergate.gate and water.gate templates into a
directory (the configured gate directory when none is given). Existing files
are kept unless --force is set.

Examples:
  gatesmith defaults              # Write into the gate directory
  gatesmith defaults ./portals    # Write into ./portals
  gatesmith defaults --force      # Overwrite existing files`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDefaults,
}

func init() {
	rootCmd.AddCommand(defaultsCmd)

	defaultsCmd.Flags().BoolVar(&defaultsForce, "force", false, "Overwrite existing gate files")
}

func runDefaults(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	dir := a.cfg.Gates.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	templates, err := gate.Defaults(a.catalog, a.cfg.Economy, gate.WithLogger(a.logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, t := range templates {
		path := filepath.Join(dir, t.Identity())
		if _, err := os.Stat(path); err == nil && !defaultsForce {
			fmt.Fprintf(out, "skipped %s (exists)\n", path)
			continue
		}
		if err := t.Save(dir); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", path)
	}
	return nil
}
