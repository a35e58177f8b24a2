package worldstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/geom"
)

// SQLite is a world stored in a SQLite database: one row per non-default
// block plus the default block in the meta table.
type SQLite struct {
	db   *sql.DB
	def  blocks.Type
	stmt *sql.Stmt

	mu      sync.Mutex
	lastErr error
}

var _ gate.World = (*SQLite)(nil)

// Open opens or creates the world database at path.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, gerrors.NewIOError("could not create world directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, gerrors.NewIOError("could not open world "+path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLite{db: db, def: blocks.Air}
	if err := s.loadDefault(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.stmt, err = db.PrepareContext(ctx, `SELECT block FROM blocks WHERE x = ? AND y = ? AND z = ?`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func initPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blocks (
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			block TEXT NOT NULL,
			PRIMARY KEY (x, y, z)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLite) loadDefault(ctx context.Context) error {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'default'`).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return err
	}
	s.def = blocks.Type(value)
	return nil
}

// Import copies every block of m, and its default block, into the database.
// Existing blocks at the same positions are replaced.
func (s *SQLite) Import(ctx context.Context, m *Memory) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('default', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, m.Default().String()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO blocks(x, y, z, block) VALUES(?, ?, ?, ?)
		 ON CONFLICT(x, y, z) DO UPDATE SET block = excluded.block`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range m.Points() {
		if _, err = stmt.ExecContext(ctx, p.X, p.Y, p.Z, m.BlockAt(p).String()); err != nil {
			return fmt.Errorf("insert block at %s: %w", p, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.def = m.Default()
	return nil
}

// BlockAt implements gate.World. A failed query reads as the default block
// and is kept for Err.
func (s *SQLite) BlockAt(p geom.Point) blocks.Type {
	var name string
	err := s.stmt.QueryRow(p.X, p.Y, p.Z).Scan(&name)
	switch {
	case err == nil:
		return blocks.Type(name)
	case errors.Is(err, sql.ErrNoRows):
		return s.def
	default:
		s.mu.Lock()
		if s.lastErr == nil {
			s.lastErr = err
		}
		s.mu.Unlock()
		return s.def
	}
}

// Count returns the number of stored blocks.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blocks`).Scan(&n)
	return n, err
}

// Err returns the first query error seen by BlockAt.
func (s *SQLite) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close releases the database.
func (s *SQLite) Close() error {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	return s.db.Close()
}
