// Package registry holds the loaded gate templates, indexed by identity and
// by the block types that can act as their control block.
//
// A TemplateRegistry does no locking of its own. Callers that share one
// between goroutines must serialise LoadAll, Clear and Register against the
// lookups.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// TemplateRegistry manages the loaded templates.
type TemplateRegistry struct {
	parser    *gate.Parser
	logger    logging.Logger
	extension string

	byIdentity map[string]*gate.Template
	byControl  map[blocks.Type][]*gate.Template
	failures   *gerrors.Collector
	watchers   []chan Event
}

// Event reports a change in the registry.
type Event struct {
	Type      EventType
	Template  *gate.Template
	Timestamp time.Time
}

// EventType represents the type of registry event.
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeCleared
)

func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Option configures a TemplateRegistry.
type Option func(*TemplateRegistry)

// WithExtension changes the file suffix LoadAll looks for.
func WithExtension(ext string) Option {
	return func(r *TemplateRegistry) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != "" {
			r.extension = ext
		}
	}
}

// NewTemplateRegistry creates an empty registry that loads files with parser.
func NewTemplateRegistry(parser *gate.Parser, logger logging.Logger, opts ...Option) *TemplateRegistry {
	if logger == nil {
		logger = logging.Nop()
	}
	r := &TemplateRegistry{
		parser:     parser,
		logger:     logger.WithComponent("registry"),
		extension:  gate.FileExtension,
		byIdentity: make(map[string]*gate.Template),
		byControl:  make(map[blocks.Type][]*gate.Template),
		failures:   gerrors.NewCollector(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadAll loads every template file in dir. A file that fails to parse is
// logged and skipped. Each loaded template is rewritten in canonical form;
// a failed rewrite is logged and the template stays registered.
//
// When dir does not exist it is created and the built-in templates are
// written into it and registered.
func (r *TemplateRegistry) LoadAll(ctx context.Context, dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return r.provisionDefaults(ctx, dir)
	}
	if err != nil {
		return gerrors.NewIOError("could not stat gate directory "+dir, err)
	}
	if !info.IsDir() {
		return gerrors.NewIOError("gate path is not a directory: "+dir, nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return gerrors.NewIOError("could not read gate directory "+dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), r.extension) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		t, err := r.parser.ParseFile(ctx, path)
		if err != nil {
			r.failures.Add(entry.Name(), err)
			r.logger.Error(ctx, err, "could not load gate, skipping", "file", path)
			continue
		}
		for _, warning := range t.Warnings() {
			r.failures.Add(t.Identity(), warning)
		}

		if err := t.Save(dir); err != nil {
			r.logger.Warn(ctx, err, "could not rewrite gate in canonical form", "gate", t.Identity())
		}

		r.Register(t)
		loaded++
	}

	r.logger.Info(ctx, "loaded gates",
		"dir", dir,
		"loaded", loaded,
		"failed", len(r.failures.Failed()),
	)

	return nil
}

func (r *TemplateRegistry) provisionDefaults(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gerrors.NewIOError("could not create gate directory "+dir, err)
	}

	defaults, err := gate.Defaults(r.parser.Types, r.parser.Economy, gate.WithLogger(r.parser.Logger))
	if err != nil {
		return err
	}

	for _, t := range defaults {
		if err := t.Save(dir); err != nil {
			r.logger.Warn(ctx, err, "could not save default gate", "gate", t.Identity())
		}
		r.Register(t)
	}

	r.logger.Info(ctx, "created gate directory with default gates", "dir", dir, "count", len(defaults))
	return nil
}

// Register adds t, replacing any template with the same identity.
func (r *TemplateRegistry) Register(t *gate.Template) {
	eventType := EventTypeAdded
	if old, exists := r.byIdentity[t.Identity()]; exists {
		eventType = EventTypeUpdated
		r.unindex(old)
	}

	r.byIdentity[t.Identity()] = t
	for _, bt := range t.ControlTypes() {
		r.byControl[bt] = append(r.byControl[bt], t)
	}

	r.notify(Event{Type: eventType, Template: t, Timestamp: time.Now()})
}

func (r *TemplateRegistry) unindex(old *gate.Template) {
	for _, bt := range old.ControlTypes() {
		list := r.byControl[bt]
		kept := list[:0]
		for _, t := range list {
			if t != old {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(r.byControl, bt)
		} else {
			r.byControl[bt] = kept
		}
	}
}

// Clear empties both indices and forgets recorded load failures.
func (r *TemplateRegistry) Clear() {
	r.byIdentity = make(map[string]*gate.Template)
	r.byControl = make(map[blocks.Type][]*gate.Template)
	r.failures.Clear()

	r.notify(Event{Type: EventTypeCleared, Timestamp: time.Now()})
}

// LookupByIdentity returns the template registered under name.
func (r *TemplateRegistry) LookupByIdentity(name string) (*gate.Template, bool) {
	t, ok := r.byIdentity[name]
	return t, ok
}

// LookupByControlBlockType returns every template whose control block can be
// bt, in registration order.
func (r *TemplateRegistry) LookupByControlBlockType(bt blocks.Type) []*gate.Template {
	list := r.byControl[bt]
	out := make([]*gate.Template, len(list))
	copy(out, list)
	return out
}

// Count returns the number of registered templates.
func (r *TemplateRegistry) Count() int {
	return len(r.byIdentity)
}

// All returns every registered template sorted by identity.
func (r *TemplateRegistry) All() []*gate.Template {
	out := make([]*gate.Template, 0, len(r.byIdentity))
	for _, t := range r.byIdentity {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity() < out[j].Identity() })
	return out
}

// Failures returns the problems recorded by LoadAll since the last Clear:
// fatal errors for skipped files and warnings for loaded ones.
func (r *TemplateRegistry) Failures() *gerrors.Collector {
	return r.failures
}

// Watch returns a channel that receives registry events. Events are dropped
// when the channel is full.
func (r *TemplateRegistry) Watch() <-chan Event {
	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it.
func (r *TemplateRegistry) UnWatch(ch <-chan Event) {
	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

func (r *TemplateRegistry) notify(event Event) {
	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
