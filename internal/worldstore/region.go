package worldstore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/geom"
)

// CompressedSuffix marks a zstd-compressed region file.
const CompressedSuffix = ".zst"

type regionDoc struct {
	Default string        `yaml:"default,omitempty"`
	Blocks  []regionBlock `yaml:"blocks"`
}

type regionBlock struct {
	Pos   [3]int `yaml:"pos,flow"`
	Block string `yaml:"block"`
}

// ReadRegion decodes a YAML region document. Every block name must be known
// to types.
func ReadRegion(r io.Reader, types blocks.TypeRegistry) (*Memory, error) {
	var doc regionDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode region: %w", err)
	}

	resolve := func(name string) (blocks.Type, error) {
		t, ok := types.Lookup(name)
		if !ok {
			return "", gerrors.Newf(gerrors.KindUnknownBlockType, "region uses unknown block type %s", name)
		}
		return t, nil
	}

	m := NewMemory()
	if doc.Default != "" {
		def, err := resolve(doc.Default)
		if err != nil {
			return nil, err
		}
		m.SetDefault(def)
	}

	for _, b := range doc.Blocks {
		t, err := resolve(b.Block)
		if err != nil {
			return nil, err
		}
		m.Set(geom.Point{X: b.Pos[0], Y: b.Pos[1], Z: b.Pos[2]}, t)
	}

	return m, nil
}

// WriteRegion encodes m as a YAML region document.
func WriteRegion(w io.Writer, m *Memory) error {
	doc := regionDoc{Blocks: make([]regionBlock, 0, m.Len())}
	if m.Default() != blocks.Air {
		doc.Default = m.Default().String()
	}
	for _, p := range m.Points() {
		doc.Blocks = append(doc.Blocks, regionBlock{
			Pos:   [3]int{p.X, p.Y, p.Z},
			Block: m.BlockAt(p).String(),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode region: %w", err)
	}
	return enc.Close()
}

// ReadRegionFile reads a region file, decompressing it when the name ends
// in .zst.
func ReadRegionFile(path string, types blocks.TypeRegistry) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gerrors.NewIOError("could not open region "+path, err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, CompressedSuffix) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, gerrors.NewIOError("could not open zstd stream "+path, err)
		}
		defer dec.Close()
		r = dec
	}

	return ReadRegion(r, types)
}

// WriteRegionFile writes m to path, compressing it when the name ends in
// .zst.
func WriteRegionFile(path string, m *Memory) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return gerrors.NewIOError("could not create region directory", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return gerrors.NewIOError("could not create region "+path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = gerrors.NewIOError("could not close region "+path, cerr)
		}
	}()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return WriteRegion(f, m)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return gerrors.NewIOError("could not start zstd stream", err)
	}
	if err := WriteRegion(enc, m); err != nil {
		_ = enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return gerrors.NewIOError("could not finish zstd stream", err)
	}
	return nil
}
