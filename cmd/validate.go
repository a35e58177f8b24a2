package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	gerrors "github.com/conneroisu/gatesmith/internal/errors"
)

var validateFormat string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:     "validate [file...]",
	Aliases: []string{"v"},
	Short:   "Validate gate files without loading them",
	Long: `Parse gate files and report every problem found, including:

- Unknown symbols in the diagram
- Invalid symbol definitions (unknown blocks, redefined built-ins)
- A control point count other than two
- Malformed numbers, booleans and portal blocks (warnings)

Files are never rewritten. With no arguments every gate in the gate directory
is checked. The command fails if any file is invalid.

Examples:
  gatesmith validate                        # Validate the gate directory
  gatesmith validate gates/water.gate       # Validate one file
  gatesmith validate --format json          # Output results as JSON`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().
		StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

// ValidationResult is the outcome for one gate file.
type ValidationResult struct {
	File     string   `json:"file"`
	Valid    bool     `json:"valid"`
	Kind     string   `json:"kind,omitempty"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidationSummary aggregates the results of a validate run.
type ValidationSummary struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Results []ValidationResult `json:"results"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if err := ValidateFormat(validateFormat, []string{"text", "json"}); err != nil {
		return err
	}

	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files, err = gateFiles(a.cfg.Gates.Dir, a.cfg.Gates.Extension)
		if err != nil {
			return err
		}
	}

	summary := ValidationSummary{Results: make([]ValidationResult, 0, len(files))}
	for _, file := range files {
		result := ValidationResult{File: file, Valid: true, Errors: []string{}, Warnings: []string{}}

		t, err := a.parser.ParseFile(commandContext(cmd), file)
		if err != nil {
			result.Valid = false
			result.Kind = string(gerrors.KindOf(err))
			result.Errors = append(result.Errors, err.Error())
		} else {
			for _, w := range t.Warnings() {
				result.Warnings = append(result.Warnings, w.Error())
			}
		}

		summary.Total++
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		summary.Results = append(summary.Results, result)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(validateFormat) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(summary); err != nil {
			return err
		}
	default:
		printValidationText(out, summary)
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("%d of %d gate files are invalid", summary.Invalid, summary.Total)
	}
	return nil
}

func printValidationText(w io.Writer, summary ValidationSummary) {
	for _, r := range summary.Results {
		status := "ok"
		if !r.Valid {
			status = "INVALID"
		}
		fmt.Fprintf(w, "%-8s %s\n", status, r.File)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  error:   %s\n", e)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
	}
	fmt.Fprintf(w, "\n%d files, %d valid, %d invalid\n", summary.Total, summary.Valid, summary.Invalid)
}

// gateFiles lists the gate files in dir, sorted by name.
func gateFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, gerrors.NewIOError("could not read gate directory "+dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
