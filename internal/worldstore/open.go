package worldstore

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/conneroisu/gatesmith/internal/blocks"
	"github.com/conneroisu/gatesmith/internal/gate"
)

// World is a gate.World that may hold resources.
type World interface {
	gate.World
	io.Closer
}

type memoryWorld struct{ *Memory }

func (memoryWorld) Close() error { return nil }

// IsDatabase reports whether path names a SQLite world by its extension.
func IsDatabase(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// OpenWorld opens a world file: a SQLite database for .db, .sqlite and
// .sqlite3, otherwise a region file.
func OpenWorld(ctx context.Context, path string, types blocks.TypeRegistry) (World, error) {
	if IsDatabase(path) {
		db, err := Open(ctx, path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}

	m, err := ReadRegionFile(path, types)
	if err != nil {
		return nil, err
	}
	return memoryWorld{m}, nil
}
