// Package internal contains the core implementation packages for gatesmith.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - geom: Diagram offsets, world points and the orientation transform
//   - blocks: Block types, categories and the YAML block catalog
//   - errors: Structured gate errors and per-file error collection
//   - logging: slog-backed structured logging
//   - gate: Templates, the text format, matching and the built-in gates
//   - registry: Loaded templates indexed by identity and control block
//   - config: Viper configuration with validation
//   - watcher: File system monitoring with debouncing
//   - worldstore: In-memory, region file and SQLite worlds
//   - version: Build information
//
// # Data Flow
//
//	gate files -> gate.Parser -> registry.TemplateRegistry -> Template.Match(world)
//
// The registry does no locking of its own; the watch command serialises
// reloads against lookups.
package internal
