// Package gate implements gate templates: parameterised 2-D diagrams of the
// block layout that makes up a portal frame, the text format they are stored
// in, and the structural match of a template against a world.
//
// A diagram is a grid of symbols. Rows map to the vertical axis and columns to
// a horizontal axis chosen at match time, so one diagram covers all four
// compass rotations.
package gate

import (
	"sort"
	"unicode/utf8"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/geom"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// CostUnset marks a cost the template does not override.
const CostUnset = -1

// Default portal blocks.
const (
	DefaultPortalOpen   blocks.Type = "NETHER_PORTAL"
	DefaultPortalClosed blocks.Type = blocks.Air
)

// EconomyDefaults supplies the global values a template inherits when it does
// not set its own.
type EconomyDefaults interface {
	UseCost() int
	CreateCost() int
	DestroyCost() int
	ToOwner() bool
}

// Template is a parsed gate diagram with its symbol rules and settings.
//
// The diagram and rules never change after construction. Portal blocks and
// economy settings have setters for admin tooling; callers must not use them
// while matches against the same template are running.
type Template struct {
	identity string
	rows     [][]rune
	width    int

	rules       map[rune]SymbolRule
	symbolOrder []rune

	entrances   []geom.RelativeOffset
	border      []geom.RelativeOffset
	controls    []geom.RelativeOffset
	exit        *geom.RelativeOffset
	exitColumns map[geom.RelativeOffset]int
	exitByCol   []*geom.RelativeOffset

	portalOpen   blocks.Type
	portalClosed blocks.Type

	useCost     int
	createCost  int
	destroyCost int
	toOwner     *bool
	extra       map[string]string

	economy  EconomyDefaults
	types    blocks.TypeRegistry
	logger   logging.Logger
	warnings []error
}

// Option configures a Template at construction.
type Option func(*Template)

// WithPortalBlocks sets the open and closed portal blocks.
func WithPortalBlocks(open, closed blocks.Type) Option {
	return func(t *Template) {
		t.portalOpen = open
		t.portalClosed = closed
	}
}

// WithEconomy sets the provider for inherited economy values.
func WithEconomy(e EconomyDefaults) Option {
	return func(t *Template) {
		t.economy = e
	}
}

// WithTypes sets the registry used to recognise air-like blocks.
func WithTypes(r blocks.TypeRegistry) Option {
	return func(t *Template) {
		t.types = r
	}
}

// WithLogger sets the sink for match diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(t *Template) {
		t.logger = l
	}
}

// WithSymbolOrder fixes the order symbol lines are written in. Symbols not
// listed follow in order of first appearance.
func WithSymbolOrder(order []rune) Option {
	return func(t *Template) {
		t.symbolOrder = append([]rune(nil), order...)
	}
}

// New builds a template from diagram rows and symbol rules. Rows are
// right-padded with the unconstrained symbol to the widest row. Structural
// symbols without a rule get the Learned rule.
func New(identity string, rows []string, rules map[rune]SymbolRule, opts ...Option) (*Template, error) {
	t := &Template{
		identity:     identity,
		rules:        make(map[rune]SymbolRule, len(rules)),
		portalOpen:   DefaultPortalOpen,
		portalClosed: DefaultPortalClosed,
		useCost:      CostUnset,
		createCost:   CostUnset,
		destroyCost:  CostUnset,
		extra:        make(map[string]string),
	}

	for sym, rule := range rules {
		if isBuiltin(sym) || sym == SymbolReserved {
			return nil, gerrors.New(gerrors.KindInvalidSymbolDefinition, "built-in symbols cannot be redefined").
				WithIdentity(identity).WithSymbol(sym)
		}
		t.rules[sym] = rule
	}

	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logging.Nop()
	}

	if len(rows) == 0 {
		return nil, gerrors.New(gerrors.KindEmptyGrid, "diagram has no rows").WithIdentity(identity)
	}

	for _, row := range rows {
		if n := utf8.RuneCountInString(row); n > t.width {
			t.width = n
		}
	}
	if t.width == 0 {
		return nil, gerrors.New(gerrors.KindEmptyGrid, "diagram has no columns").WithIdentity(identity)
	}

	t.rows = make([][]rune, len(rows))
	for y, row := range rows {
		cells := make([]rune, t.width)
		for x := range cells {
			cells[x] = SymbolAnything
		}
		copy(cells, []rune(row))
		t.rows[y] = cells

		for _, sym := range cells {
			if sym == SymbolReserved {
				return nil, gerrors.New(gerrors.KindUnknownSymbol, "reserved symbol in diagram").
					WithIdentity(identity).WithLine(y + 1).WithSymbol(sym)
			}
			if isBuiltin(sym) {
				continue
			}
			if _, ok := t.rules[sym]; !ok {
				t.rules[sym] = Learned()
			}
		}
	}

	t.populateCoordinates()
	t.orderSymbols()

	if len(t.controls) != 2 {
		return nil, gerrors.Newf(gerrors.KindInvalidControlPointCount,
			"gates must have exactly 2 control points, found %d", len(t.controls)).WithIdentity(identity)
	}

	return t, nil
}

// populateCoordinates derives the cell index from the diagram.
func (t *Template) populateCoordinates() {
	depth := make([]int, t.width)
	interior := make([]bool, t.width)

	for y, row := range t.rows {
		for x, sym := range row {
			off := geom.Offset(x, y)

			switch sym {
			case SymbolAnything:
			case SymbolEntrance, SymbolExit:
				t.entrances = append(t.entrances, off)
				depth[x] = y
				interior[x] = true
				if sym == SymbolExit {
					exit := off
					t.exit = &exit
				}
			case SymbolControl:
				t.controls = append(t.controls, off)
			default:
				t.border = append(t.border, off)
			}
		}
	}

	t.exitColumns = make(map[geom.RelativeOffset]int)
	t.exitByCol = make([]*geom.RelativeOffset, t.width)

	var last *geom.RelativeOffset
	for x := t.width - 1; x >= 0; x-- {
		if interior[x] {
			off := geom.Offset(x, depth[x])
			last = &off
			if depth[x] > 0 {
				t.exitColumns[off] = x
			}
		}
		t.exitByCol[x] = last
	}
}

// orderSymbols completes symbolOrder with every ruled symbol, in order of
// first appearance in the diagram.
func (t *Template) orderSymbols() {
	seen := make(map[rune]bool, len(t.rules))
	order := make([]rune, 0, len(t.rules))

	for _, sym := range t.symbolOrder {
		if _, ok := t.rules[sym]; ok && !seen[sym] {
			seen[sym] = true
			order = append(order, sym)
		}
	}
	for _, row := range t.rows {
		for _, sym := range row {
			if _, ok := t.rules[sym]; ok && !seen[sym] {
				seen[sym] = true
				order = append(order, sym)
			}
		}
	}

	var rest []rune
	for sym := range t.rules {
		if !seen[sym] {
			rest = append(rest, sym)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	t.symbolOrder = append(order, rest...)
}

// Identity is the template's registry key (its file name).
func (t *Template) Identity() string { return t.identity }

// Height is the number of diagram rows.
func (t *Template) Height() int { return len(t.rows) }

// Width is the number of diagram columns.
func (t *Template) Width() int { return t.width }

// Rows returns the padded diagram.
func (t *Template) Rows() []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = string(row)
	}
	return out
}

// SymbolAt returns the symbol at a diagram offset.
func (t *Template) SymbolAt(off geom.RelativeOffset) (rune, bool) {
	if off.Y < 0 || off.Y >= len(t.rows) || off.X < 0 || off.X >= t.width || off.Z != 0 {
		return 0, false
	}
	return t.rows[off.Y][off.X], true
}

// Rule returns the rule for a structural symbol.
func (t *Template) Rule(sym rune) (SymbolRule, bool) {
	r, ok := t.rules[sym]
	return r, ok
}

// Symbols returns the structural symbols in file order.
func (t *Template) Symbols() []rune {
	return append([]rune(nil), t.symbolOrder...)
}

// Entrances returns the interior cells (entrance and exit symbols).
func (t *Template) Entrances() []geom.RelativeOffset { return cloneOffsets(t.entrances) }

// Border returns the frame cells.
func (t *Template) Border() []geom.RelativeOffset { return cloneOffsets(t.border) }

// Controls returns the two control cells.
func (t *Template) Controls() []geom.RelativeOffset { return cloneOffsets(t.controls) }

// Exit returns the designated exit cell, if the diagram has one.
func (t *Template) Exit() (geom.RelativeOffset, bool) {
	if t.exit == nil {
		return geom.RelativeOffset{}, false
	}
	return *t.exit, true
}

// ExitColumns maps the deepest interior cell of each interior column to the
// column index. Columns whose deepest cell is in row 0 are left out.
func (t *Template) ExitColumns() map[geom.RelativeOffset]int {
	out := make(map[geom.RelativeOffset]int, len(t.exitColumns))
	for k, v := range t.exitColumns {
		out[k] = v
	}
	return out
}

// ExitFor returns the exit cell a column routes to: the deepest interior
// cell of the column, or of the nearest interior column to its right.
func (t *Template) ExitFor(col int) (geom.RelativeOffset, bool) {
	if col < 0 || col >= len(t.exitByCol) || t.exitByCol[col] == nil {
		return geom.RelativeOffset{}, false
	}
	return *t.exitByCol[col], true
}

// ControlBlock returns the exact control block type, when the control symbol
// has a type rule.
func (t *Template) ControlBlock() (blocks.Type, bool) {
	r, ok := t.rules[SymbolControl]
	if !ok || (r.Kind != RuleExact && r.Kind != RuleFamily) {
		return "", false
	}
	return r.Type, true
}

// ControlTypes lists every block type that can act as this gate's control
// block: the exact type, or every member of the control category.
func (t *Template) ControlTypes() []blocks.Type {
	r, ok := t.rules[SymbolControl]
	if !ok {
		return nil
	}
	switch r.Kind {
	case RuleExact, RuleFamily:
		return []blocks.Type{r.Type}
	case RuleCategory:
		if r.Category != nil {
			return r.Category.Members()
		}
	}
	return nil
}

// PortalOpen is the block that fills an active portal.
func (t *Template) PortalOpen() blocks.Type { return t.portalOpen }

// PortalClosed is the block that fills an inactive portal.
func (t *Template) PortalClosed() blocks.Type { return t.portalClosed }

// SetPortalOpen changes the open portal block.
func (t *Template) SetPortalOpen(b blocks.Type) { t.portalOpen = b }

// SetPortalClosed changes the closed portal block.
func (t *Template) SetPortalClosed(b blocks.Type) { t.portalClosed = b }

// UseCost is the cost of using the gate, inherited when unset.
func (t *Template) UseCost() int { return t.resolveCost(t.useCost, EconomyDefaults.UseCost) }

// CreateCost is the cost of building the gate, inherited when unset.
func (t *Template) CreateCost() int { return t.resolveCost(t.createCost, EconomyDefaults.CreateCost) }

// DestroyCost is the cost of destroying the gate, inherited when unset.
func (t *Template) DestroyCost() int { return t.resolveCost(t.destroyCost, EconomyDefaults.DestroyCost) }

// ToOwner reports whether use fees go to the gate owner, inherited when unset.
func (t *Template) ToOwner() bool {
	if t.toOwner != nil {
		return *t.toOwner
	}
	if t.economy != nil {
		return t.economy.ToOwner()
	}
	return false
}

// OwnUseCost returns the template's own use cost and whether it is set.
func (t *Template) OwnUseCost() (int, bool) { return t.useCost, t.useCost != CostUnset }

// OwnCreateCost returns the template's own create cost and whether it is set.
func (t *Template) OwnCreateCost() (int, bool) { return t.createCost, t.createCost != CostUnset }

// OwnDestroyCost returns the template's own destroy cost and whether it is set.
func (t *Template) OwnDestroyCost() (int, bool) { return t.destroyCost, t.destroyCost != CostUnset }

// OwnToOwner returns the template's own toowner flag and whether it is set.
func (t *Template) OwnToOwner() (bool, bool) {
	if t.toOwner == nil {
		return false, false
	}
	return *t.toOwner, true
}

// SetUseCost overrides the use cost. A negative value unsets it.
func (t *Template) SetUseCost(v int) { t.useCost = normalizeCost(v) }

// SetCreateCost overrides the create cost. A negative value unsets it.
func (t *Template) SetCreateCost(v int) { t.createCost = normalizeCost(v) }

// SetDestroyCost overrides the destroy cost. A negative value unsets it.
func (t *Template) SetDestroyCost(v int) { t.destroyCost = normalizeCost(v) }

// SetToOwner overrides the toowner flag.
func (t *Template) SetToOwner(v bool) { t.toOwner = &v }

// UnsetToOwner makes the template inherit the toowner flag again.
func (t *Template) UnsetToOwner() { t.toOwner = nil }

// Extra returns a setting the template file carried that gatesmith does not
// interpret.
func (t *Template) Extra(key string) (string, bool) {
	v, ok := t.extra[key]
	return v, ok
}

// ExtraKeys lists the uninterpreted settings, sorted.
func (t *Template) ExtraKeys() []string {
	keys := make([]string, 0, len(t.extra))
	for k := range t.extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Warnings returns the non-fatal problems found while loading the template.
func (t *Template) Warnings() []error {
	return append([]error(nil), t.warnings...)
}

func (t *Template) resolveCost(own int, inherited func(EconomyDefaults) int) int {
	if own >= 0 {
		return own
	}
	if t.economy != nil {
		return inherited(t.economy)
	}
	return 0
}

func (t *Template) isAir(b blocks.Type) bool {
	if b == blocks.Air {
		return true
	}
	return t.types != nil && t.types.IsAir(b)
}

func normalizeCost(v int) int {
	if v < 0 {
		return CostUnset
	}
	return v
}

func cloneOffsets(in []geom.RelativeOffset) []geom.RelativeOffset {
	return append([]geom.RelativeOffset(nil), in...)
}
