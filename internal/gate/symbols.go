package gate

import (
	"fmt"

	"github.com/conneroisu/gatesmith/internal/blocks"
)

// Built-in diagram symbols.
const (
	SymbolAnything = ' '
	SymbolEntrance = '.'
	SymbolExit     = '*'
	SymbolControl  = '-'
	// SymbolReserved can never appear in a diagram.
	SymbolReserved = '?'
)

// isBuiltin reports whether r has a fixed meaning and cannot be declared.
// The control symbol is not included: it needs a declared block type.
func isBuiltin(r rune) bool {
	return r == SymbolAnything || r == SymbolEntrance || r == SymbolExit
}

// RuleKind selects how a structural symbol is compared with the world.
type RuleKind int

const (
	// RuleExact requires the observed block to be exactly Type.
	RuleExact RuleKind = iota
	// RuleFamily accepts Type exactly, or any block whose name contains Family.
	RuleFamily
	// RuleCategory requires the observed block to be a member of Category.
	RuleCategory
	// RuleLearned binds the symbol to the first block observed for it during
	// one match; later occurrences in the same match must agree.
	RuleLearned
)

func (k RuleKind) String() string {
	switch k {
	case RuleExact:
		return "exact"
	case RuleFamily:
		return "family"
	case RuleCategory:
		return "category"
	case RuleLearned:
		return "learned"
	default:
		return "unknown"
	}
}

// SymbolRule is the resolved meaning of one structural symbol.
type SymbolRule struct {
	Kind     RuleKind
	Type     blocks.Type
	Family   string
	Category blocks.Category
}

// ExactType builds a rule that requires t.
func ExactType(t blocks.Type) SymbolRule {
	return SymbolRule{Kind: RuleExact, Type: t}
}

// FamilyMatch builds a rule that accepts t or any type in the family token.
func FamilyMatch(t blocks.Type, token string) SymbolRule {
	return SymbolRule{Kind: RuleFamily, Type: t, Family: token}
}

// CategoryRule builds a rule that requires membership of c.
func CategoryRule(c blocks.Category) SymbolRule {
	return SymbolRule{Kind: RuleCategory, Category: c}
}

// Learned builds a rule that is resolved during matching.
func Learned() SymbolRule {
	return SymbolRule{Kind: RuleLearned}
}

// RuleForType picks ExactType or FamilyMatch depending on the type name.
func RuleForType(t blocks.Type) SymbolRule {
	if token, ok := t.Family(); ok {
		return FamilyMatch(t, token)
	}
	return ExactType(t)
}

// Value renders the rule the way it is written in a template file. Learned
// rules have no file form and render as "".
func (r SymbolRule) Value() string {
	switch r.Kind {
	case RuleExact, RuleFamily:
		return r.Type.String()
	case RuleCategory:
		if r.Category == nil {
			return ""
		}
		return "#" + r.Category.Name()
	default:
		return ""
	}
}

func (r SymbolRule) String() string {
	switch r.Kind {
	case RuleFamily:
		return fmt.Sprintf("%s (family %s)", r.Type, r.Family)
	case RuleLearned:
		return "learned"
	default:
		return r.Value()
	}
}

// Equal compares two rules. Categories compare by name.
func (r SymbolRule) Equal(o SymbolRule) bool {
	if r.Kind != o.Kind || r.Type != o.Type || r.Family != o.Family {
		return false
	}
	if r.Kind != RuleCategory {
		return true
	}
	if r.Category == nil || o.Category == nil {
		return r.Category == nil && o.Category == nil
	}
	return r.Category.Name() == o.Category.Name()
}
