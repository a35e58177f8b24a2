// Package blocks models the host's block vocabulary: block types, the
// registry that resolves names to types, and named categories (tags) of types.
//
// Gate templates only ever talk to the TypeRegistry and CategoryRegistry
// interfaces. Catalog is the implementation used by the CLI and the tests; a
// game server embedding gatesmith would provide its own.
package blocks

import "strings"

// Type identifies a block type by its canonical upper-case name.
type Type string

// Air is the canonical empty block. Every air-like variant normalises to it
// before entrance cells are compared.
const Air Type = "AIR"

// LegacyPrefix marks a type name as a family wildcard.
const LegacyPrefix = "LEGACY_"

func (t Type) String() string {
	return string(t)
}

// Family returns the family token of a legacy type and whether t is one.
// LEGACY_CONCRETE has the family token CONCRETE.
func (t Type) Family() (string, bool) {
	name := string(t)
	if !strings.HasPrefix(name, LegacyPrefix) || len(name) == len(LegacyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(name, LegacyPrefix), true
}

// InFamily reports whether t's name contains the family token.
func (t Type) InFamily(token string) bool {
	return token != "" && strings.Contains(string(t), token)
}

// TypeRegistry resolves block type names.
type TypeRegistry interface {
	// Lookup resolves a name to a known type.
	Lookup(name string) (Type, bool)
	// IsAir reports whether t is an air-like variant.
	IsAir(t Type) bool
}

// Category is a named group of block types.
type Category interface {
	Name() string
	Contains(t Type) bool
	Members() []Type
}

// CategoryRegistry resolves category names.
type CategoryRegistry interface {
	Category(name string) (Category, bool)
}
