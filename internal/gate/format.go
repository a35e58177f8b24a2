package gate

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/conneroisu/gatesmith/internal/blocks"
	gerrors "github.com/conneroisu/gatesmith/internal/errors"
	"github.com/conneroisu/gatesmith/internal/logging"
)

// FileExtension is the suffix of template files.
const FileExtension = ".gate"

// Setting keys understood in the config block.
const (
	keyPortalOpen   = "portal-open"
	keyPortalClosed = "portal-closed"
	keyUseCost      = "usecost"
	keyCreateCost   = "createcost"
	keyDestroyCost  = "destroycost"
	keyToOwner      = "toowner"
)

// Parser turns template files into Templates.
type Parser struct {
	Types      blocks.TypeRegistry
	Categories blocks.CategoryRegistry
	Economy    EconomyDefaults
	Logger     logging.Logger
}

// NewParser creates a parser over the host registries.
func NewParser(types blocks.TypeRegistry, categories blocks.CategoryRegistry, economy EconomyDefaults, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Parser{
		Types:      types,
		Categories: categories,
		Economy:    economy,
		Logger:     logger.WithComponent("gate"),
	}
}

// ParseFile parses the template at path. The file name is the identity.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gerrors.NewIOError("could not open template", err).WithIdentity(filepath.Base(path))
	}
	defer f.Close()

	return p.Parse(ctx, filepath.Base(path), f)
}

// ParseString parses template text held in memory.
func (p *Parser) ParseString(ctx context.Context, identity, text string) (*Template, error) {
	return p.Parse(ctx, identity, strings.NewReader(text))
}

// Parse reads a template: key=value settings and symbol definitions, a line
// without '=' (usually blank), then the diagram. Every line after the
// separator is a diagram row, empty ones included. Malformed settings are logged and fall back to
// their defaults. Fatal problems are returned, not logged; reporting them is
// up to the caller.
func (p *Parser) Parse(ctx context.Context, identity string, r io.Reader) (*Template, error) {
	logger := p.Logger.With("gate", identity)

	var (
		rows      []string
		designing bool
		lineNo    int
		config    = make(map[string]string)
		keys      []string
		rules     = make(map[rune]SymbolRule)
		order     []rune
		warnings  []error
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		if designing {
			if err := checkRow(identity, line, lineNo, rules); err != nil {
				return nil, err
			}
			rows = append(rows, line)
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			// The first line without a separator ends the config block and
			// is not part of the diagram.
			designing = true
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if utf8.RuneCountInString(key) != 1 {
			if key == "" {
				return nil, gerrors.New(gerrors.KindInvalidSymbolDefinition, "definition without a symbol").
					WithIdentity(identity).WithLine(lineNo)
			}
			if _, dup := config[key]; !dup {
				keys = append(keys, key)
			}
			config[key] = value
			continue
		}

		sym, _ := utf8.DecodeRuneInString(key)
		rule, err := p.resolveSymbol(identity, lineNo, sym, value)
		if err != nil {
			return nil, err
		}
		if _, dup := rules[sym]; !dup {
			order = append(order, sym)
		}
		rules[sym] = rule
	}

	if err := scanner.Err(); err != nil {
		return nil, gerrors.NewIOError("could not read template", err).WithIdentity(identity)
	}

	warn := func(err *gerrors.GateError) {
		err.WithIdentity(identity)
		warnings = append(warnings, err)
		logger.Warn(ctx, err, "malformed template setting, using default")
	}

	open := p.readType(config, keyPortalOpen, DefaultPortalOpen, warn)
	closed := p.readType(config, keyPortalClosed, DefaultPortalClosed, warn)

	t, err := New(identity, rows, rules,
		WithPortalBlocks(open, closed),
		WithEconomy(p.Economy),
		WithTypes(p.Types),
		WithLogger(p.Logger),
		WithSymbolOrder(order),
	)
	if err != nil {
		return nil, err
	}

	t.useCost = readCost(config, keyUseCost, warn)
	t.createCost = readCost(config, keyCreateCost, warn)
	t.destroyCost = readCost(config, keyDestroyCost, warn)

	if raw, ok := config[keyToOwner]; ok {
		switch strings.ToLower(raw) {
		case "true":
			t.SetToOwner(true)
		case "false":
			t.SetToOwner(false)
		default:
			warn(gerrors.NewWarning(gerrors.KindMalformedBoolean, fmt.Sprintf("%s=%q is not a boolean", keyToOwner, raw)))
		}
	}

	for _, key := range keys {
		switch key {
		case keyPortalOpen, keyPortalClosed, keyUseCost, keyCreateCost, keyDestroyCost, keyToOwner:
		default:
			t.extra[key] = config[key]
			logger.Debug(ctx, "keeping unrecognised template setting", "key", key)
		}
	}

	t.warnings = warnings
	return t, nil
}

func checkRow(identity, line string, lineNo int, rules map[rune]SymbolRule) error {
	for _, sym := range line {
		if sym == SymbolReserved || (!isBuiltin(sym) && !hasRule(rules, sym)) {
			return gerrors.New(gerrors.KindUnknownSymbol, "unknown symbol in diagram").
				WithIdentity(identity).WithLine(lineNo).WithSymbol(sym)
		}
	}
	return nil
}

func (p *Parser) resolveSymbol(identity string, lineNo int, sym rune, value string) (SymbolRule, error) {
	invalid := func(msg string) error {
		return gerrors.New(gerrors.KindInvalidSymbolDefinition, msg).
			WithIdentity(identity).WithLine(lineNo).WithSymbol(sym)
	}

	if isBuiltin(sym) || sym == SymbolReserved {
		return SymbolRule{}, invalid("built-in symbols cannot be redefined")
	}
	if value == "" {
		return SymbolRule{}, invalid("symbol has no block type or category")
	}

	if strings.HasPrefix(value, "#") {
		if p.Categories != nil {
			if c, ok := p.Categories.Category(value); ok {
				return CategoryRule(c), nil
			}
		}
		return SymbolRule{}, invalid(fmt.Sprintf("invalid category %s", value))
	}

	if p.Types != nil {
		if t, ok := p.Types.Lookup(value); ok {
			return RuleForType(t), nil
		}
	}
	return SymbolRule{}, invalid(fmt.Sprintf("invalid block type %s", value))
}

func (p *Parser) readType(config map[string]string, key string, def blocks.Type, warn func(*gerrors.GateError)) blocks.Type {
	raw, ok := config[key]
	if !ok {
		return def
	}
	if p.Types != nil {
		if t, ok := p.Types.Lookup(raw); ok {
			return t
		}
	}
	warn(gerrors.NewWarning(gerrors.KindUnknownBlockType, fmt.Sprintf("%s=%q is not a block type", key, raw)))
	return def
}

func readCost(config map[string]string, key string, warn func(*gerrors.GateError)) int {
	raw, ok := config[key]
	if !ok {
		return CostUnset
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warn(gerrors.NewWarning(gerrors.KindMalformedNumber, fmt.Sprintf("%s=%q is not numeric", key, raw)))
		return CostUnset
	}
	return normalizeCost(v)
}

func hasRule(rules map[rune]SymbolRule, sym rune) bool {
	_, ok := rules[sym]
	return ok
}

// Serialize renders t in canonical form: settings, symbol definitions, a
// blank line, then the diagram rows including their padding.
func Serialize(t *Template) []byte {
	var buf bytes.Buffer
	_, _ = t.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the canonical form of t to w.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	fmt.Fprintf(cw, "%s=%s\n", keyPortalOpen, t.portalOpen)
	fmt.Fprintf(cw, "%s=%s\n", keyPortalClosed, t.portalClosed)
	if t.useCost != CostUnset {
		fmt.Fprintf(cw, "%s=%d\n", keyUseCost, t.useCost)
	}
	if t.createCost != CostUnset {
		fmt.Fprintf(cw, "%s=%d\n", keyCreateCost, t.createCost)
	}
	if t.destroyCost != CostUnset {
		fmt.Fprintf(cw, "%s=%d\n", keyDestroyCost, t.destroyCost)
	}
	fmt.Fprintf(cw, "%s=%t\n", keyToOwner, t.ToOwner())

	for _, key := range t.ExtraKeys() {
		fmt.Fprintf(cw, "%s=%s\n", key, t.extra[key])
	}

	for _, sym := range t.symbolOrder {
		rule := t.rules[sym]
		if rule.Kind == RuleLearned {
			continue
		}
		fmt.Fprintf(cw, "%c=%s\n", sym, rule.Value())
	}

	fmt.Fprintln(cw)
	for _, row := range t.rows {
		fmt.Fprintln(cw, string(row))
	}

	if cw.err != nil {
		return cw.n, cw.err
	}
	return cw.n, bw.Flush()
}

// Save writes the canonical form of t to dir/<identity>. A file that
// already holds exactly that text is left untouched, so reloading a
// canonical directory does not produce change events.
//
// Templates with learned symbols cannot be saved: their text would not load.
func (t *Template) Save(dir string) error {
	for _, sym := range t.symbolOrder {
		if t.rules[sym].Kind == RuleLearned {
			return gerrors.New(gerrors.KindUnknownSymbol, "learned symbol has no definition to save").
				WithIdentity(t.identity).WithSymbol(sym)
		}
	}

	path := filepath.Join(dir, t.identity)
	data := Serialize(t)
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return gerrors.NewIOError("could not save gate", err).WithIdentity(t.identity)
	}
	return nil
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
