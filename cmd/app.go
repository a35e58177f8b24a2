package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gatesmith/internal/blocks"
	"github.com/conneroisu/gatesmith/internal/config"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/logging"
	"github.com/conneroisu/gatesmith/internal/registry"
)

// app bundles the services every command works with.
type app struct {
	cfg      *config.Config
	catalog  *blocks.Catalog
	logger   logging.Logger
	parser   *gate.Parser
	registry *registry.TemplateRegistry
}

// newApp loads the configuration and wires the catalog, logger, parser and
// registry. Log output goes to stderr so command output stays parseable.
func newApp(stderr io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load block catalog: %w", err)
	}

	if stderr == nil {
		stderr = os.Stderr
	}
	lc := cfg.LoggerConfig()
	lc.Output = stderr
	logger := logging.NewLogger(lc)

	parser := gate.NewParser(catalog, catalog, cfg.Economy, logger)
	reg := registry.NewTemplateRegistry(parser, logger, registry.WithExtension(cfg.Gates.Extension))

	return &app{
		cfg:      cfg,
		catalog:  catalog,
		logger:   logger,
		parser:   parser,
		registry: reg,
	}, nil
}

// load fills the registry from the configured gate directory.
func (a *app) load(ctx context.Context) error {
	if err := a.registry.LoadAll(ctx, a.cfg.Gates.Dir); err != nil {
		return fmt.Errorf("failed to load gates from %s: %w", a.cfg.Gates.Dir, err)
	}
	return nil
}

// template resolves a gate by identity. The extension may be omitted.
func (a *app) template(name string) (*gate.Template, error) {
	if t, ok := a.registry.LookupByIdentity(name); ok {
		return t, nil
	}
	if t, ok := a.registry.LookupByIdentity(name + a.cfg.Gates.Extension); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown gate %q (%d gates loaded from %s)", name, a.registry.Count(), a.cfg.Gates.Dir)
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
