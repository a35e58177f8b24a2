// Package worldstore provides concrete worlds for gate matching outside a
// game server: a sparse in-memory world, YAML region files (optionally zstd
// compressed) and SQLite-backed captures of larger areas.
package worldstore

import (
	"sort"

	"github.com/conneroisu/gatesmith/internal/blocks"
	"github.com/conneroisu/gatesmith/internal/gate"
	"github.com/conneroisu/gatesmith/internal/geom"
)

// Memory is a sparse world. Positions that were never set hold the default
// block, which starts as air.
type Memory struct {
	cells map[geom.Point]blocks.Type
	def   blocks.Type
}

var _ gate.World = (*Memory)(nil)

// NewMemory creates an empty world.
func NewMemory() *Memory {
	return &Memory{
		cells: make(map[geom.Point]blocks.Type),
		def:   blocks.Air,
	}
}

// BlockAt implements gate.World.
func (m *Memory) BlockAt(p geom.Point) blocks.Type {
	if b, ok := m.cells[p]; ok {
		return b
	}
	return m.def
}

// Set places b at p. Setting the default block removes the cell.
func (m *Memory) Set(p geom.Point, b blocks.Type) {
	if b == m.def {
		delete(m.cells, p)
		return
	}
	m.cells[p] = b
}

// Default is the block read at unset positions.
func (m *Memory) Default() blocks.Type { return m.def }

// SetDefault changes the block read at unset positions.
func (m *Memory) SetDefault(b blocks.Type) {
	if b == "" {
		b = blocks.Air
	}
	m.def = b
	for p, cell := range m.cells {
		if cell == b {
			delete(m.cells, p)
		}
	}
}

// Len is the number of explicitly set positions.
func (m *Memory) Len() int { return len(m.cells) }

// Points returns the set positions ordered by Y, then Z, then X.
func (m *Memory) Points() []geom.Point {
	out := make([]geom.Point, 0, len(m.cells))
	for p := range m.cells {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return out
}
