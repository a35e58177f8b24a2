package logging

import (
	"context"
	"sync"
)

// Entry is one log call captured by a Recorder.
type Entry struct {
	Level     LogLevel
	Component string
	Message   string
	Err       error
	Fields    map[string]interface{}
}

// Recorder is a Logger that keeps every entry in memory. Tests use it to
// assert on diagnostics.
type Recorder struct {
	shared    *recorderState
	component string
	fields    []interface{}
}

type recorderState struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{shared: &recorderState{}}
}

func (r *Recorder) Debug(ctx context.Context, msg string, fields ...interface{}) {
	r.record(LevelDebug, nil, msg, fields)
}

func (r *Recorder) Info(ctx context.Context, msg string, fields ...interface{}) {
	r.record(LevelInfo, nil, msg, fields)
}

func (r *Recorder) Warn(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.record(LevelWarn, err, msg, fields)
}

func (r *Recorder) Error(ctx context.Context, err error, msg string, fields ...interface{}) {
	r.record(LevelError, err, msg, fields)
}

func (r *Recorder) With(fields ...interface{}) Logger {
	merged := append(append([]interface{}{}, r.fields...), fields...)
	return &Recorder{shared: r.shared, component: r.component, fields: merged}
}

func (r *Recorder) WithComponent(component string) Logger {
	return &Recorder{shared: r.shared, component: component, fields: r.fields}
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()

	out := make([]Entry, len(r.shared.entries))
	copy(out, r.shared.entries)
	return out
}

// AtLevel returns the entries recorded at exactly level.
func (r *Recorder) AtLevel(level LogLevel) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) record(level LogLevel, err error, msg string, fields []interface{}) {
	m := make(map[string]interface{})
	for _, set := range [][]interface{}{r.fields, fields} {
		for i := 0; i+1 < len(set); i += 2 {
			if key, ok := set[i].(string); ok {
				m[key] = set[i+1]
			}
		}
	}

	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	r.shared.entries = append(r.shared.entries, Entry{
		Level:     level,
		Component: r.component,
		Message:   msg,
		Err:       err,
		Fields:    m,
	})
}
