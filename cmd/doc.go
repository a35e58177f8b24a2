// Package cmd provides the command-line interface for gatesmith, built on
// Cobra with one file per command.
//
// # Available Commands
//
//   - list: List the loaded gates with their blocks and costs
//   - validate: Parse gate files and report problems without rewriting them
//   - match: Check a world file for a gate frame at a position
//   - defaults: Write the built-in gates
//   - world import / world stamp: Build and convert world files
//   - watch: Reload the gate directory on every change
//   - version: Show build information
//
// # Command Examples
//
//	// List gates as JSON
//	gatesmith list -o json
//
//	// Validate the gate directory
//	gatesmith validate
//
//	// Match in every orientation against a compressed region
//	gatesmith match nethergate --world region.yaml.zst --origin 0,64,0 --any
//
//	// Stamp a frame into a SQLite world
//	gatesmith world stamp water capture.db --origin 8,60,8 --axis 0,1
//
// # Configuration Integration
//
// Commands respect configuration from multiple sources in order of precedence:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables (GATESMITH_*)
//  3. Configuration file (.gatesmith.yml)
//  4. Default values (lowest priority)
//
// # Error Handling
//
// Broken gate files never stop a command that loads the whole directory: they
// are logged at error level and skipped. validate and match exit non-zero when
// a file is invalid or no frame is found.
package cmd
