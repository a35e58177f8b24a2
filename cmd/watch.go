package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/gatesmith/internal/registry"
	"github.com/conneroisu/gatesmith/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Reload the gate directory whenever a gate file changes",
	Long: `Load the gate directory, then watch it and reload every gate whenever a
gate file is created, edited or removed. Broken files are reported and skipped
without stopping the loop.

Examples:
  gatesmith watch                 # Watch the configured gate directory
  gatesmith watch --verbose       # Also print every changed file and registry event`,
	RunE: runWatch,
}

var watchVerbose bool

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
}

// reloader serialises reloads of a shared registry and every line written
// to out.
type reloader struct {
	mu    sync.Mutex
	outMu sync.Mutex
	app   *app
	dir   string
	out   io.Writer
}

func (r *reloader) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// reload clears the registry and loads the directory again.
func (r *reloader) reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.app.registry.Clear()
	if err := r.app.registry.LoadAll(ctx, r.dir); err != nil {
		return err
	}

	failed := r.app.registry.Failures().Failed()
	if len(failed) > 0 {
		r.printf("%d gates loaded, %d failed: %v\n", r.app.registry.Count(), len(failed), failed)
		return nil
	}
	r.printf("%d gates loaded\n", r.app.registry.Count())
	return nil
}

// handler returns the change handler that reloads on every debounced batch.
func (r *reloader) handler(ctx context.Context) watcher.ChangeHandler {
	return func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			for _, event := range events {
				r.printf("   %s: %s\n", event.Type, event.Path)
			}
		} else {
			r.printf("%d file(s) changed\n", len(events))
		}
		return r.reload(ctx)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r := &reloader{app: a, dir: a.cfg.Gates.Dir, out: cmd.OutOrStdout()}

	if watchVerbose {
		events := a.registry.Watch()
		defer func() {
			r.mu.Lock()
			a.registry.UnWatch(events)
			r.mu.Unlock()
		}()
		go r.printEvents(ctx, events)
	}

	// The first load also creates a missing directory, which must exist
	// before it can be watched.
	if err := r.reload(ctx); err != nil {
		return err
	}

	fileWatcher, err := watcher.NewFileWatcher(a.cfg.Watch.Debounce, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fileWatcher.AddFilter(watcher.GateFilter(a.cfg.Gates.Extension))
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoBackupFilter)
	fileWatcher.AddHandler(r.handler(ctx))

	if err := fileWatcher.AddPath(a.cfg.Gates.Dir); err != nil {
		_ = fileWatcher.Stop()
		return fmt.Errorf("failed to watch %s: %w", a.cfg.Gates.Dir, err)
	}

	r.printf("Watching %s for changes... (Press Ctrl+C to stop)\n", a.cfg.Gates.Dir)
	return fileWatcher.Run(ctx)
}

func (r *reloader) printEvents(ctx context.Context, events <-chan registry.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Template != nil {
				r.printf("   registry %s: %s\n", event.Type, event.Template.Identity())
			} else {
				r.printf("   registry %s\n", event.Type)
			}
		}
	}
}
