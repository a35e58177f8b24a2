package blocks

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	gerrors "github.com/conneroisu/gatesmith/internal/errors"
)

//go:embed catalog.schema.json
var catalogSchemaJSON string

//go:embed default_catalog.yaml
var defaultCatalogYAML []byte

const defaultNamespace = "minecraft:"

var catalogSchema = jsonschema.MustCompileString("catalog.schema.json", catalogSchemaJSON)

// Catalog is a static TypeRegistry and CategoryRegistry.
type Catalog struct {
	Palette    []Type
	index      map[Type]struct{}
	air        map[Type]struct{}
	categories map[string]*tag
}

type catalogDoc struct {
	Blocks     []string            `yaml:"blocks"`
	Air        []string            `yaml:"air"`
	Categories map[string][]string `yaml:"categories"`
}

type tag struct {
	name    string
	members []Type
	set     map[Type]struct{}
}

func (t *tag) Name() string { return t.name }

func (t *tag) Contains(bt Type) bool {
	_, ok := t.set[bt]
	return ok
}

func (t *tag) Members() []Type {
	out := make([]Type, len(t.members))
	copy(out, t.members)
	return out
}

// NormalizeTypeName turns a user-written type name into its canonical form.
func NormalizeTypeName(name string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(name))
}

// NormalizeCategoryName strips the category marker and default namespace and
// lower-cases the rest: "#minecraft:WOOL" becomes "wool".
func NormalizeCategoryName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "#")
	name = cases.Lower(language.Und).String(name)
	return strings.TrimPrefix(name, defaultNamespace)
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
	if err != nil {
		panic(fmt.Sprintf("built-in block catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalogFile reads a catalog document from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gerrors.NewIOError("could not open block catalog "+path, err)
	}
	defer f.Close()

	return LoadCatalog(f)
}

// LoadCatalog parses and validates a YAML catalog document.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, gerrors.NewIOError("could not read block catalog", err)
	}

	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, invalidCatalog("catalog is not valid YAML", err)
	}
	if err := catalogSchema.Validate(generic); err != nil {
		return nil, invalidCatalog("catalog does not match schema", err)
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, invalidCatalog("catalog is not valid YAML", err)
	}

	return newCatalog(doc)
}

func newCatalog(doc catalogDoc) (*Catalog, error) {
	c := &Catalog{
		index:      make(map[Type]struct{}, len(doc.Blocks)+1),
		air:        make(map[Type]struct{}),
		categories: make(map[string]*tag, len(doc.Categories)),
	}

	// AIR always exists and is palette entry 0.
	c.add(Air)
	for _, name := range doc.Blocks {
		c.add(Type(NormalizeTypeName(name)))
	}

	c.air[Air] = struct{}{}
	for _, name := range doc.Air {
		t := Type(NormalizeTypeName(name))
		if _, ok := c.index[t]; !ok {
			return nil, invalidCatalog(fmt.Sprintf("air variant %s is not a declared block", t), nil)
		}
		c.air[t] = struct{}{}
	}

	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, raw := range names {
		name := NormalizeCategoryName(raw)
		tg := &tag{name: name, set: make(map[Type]struct{})}
		for _, member := range doc.Categories[raw] {
			t := Type(NormalizeTypeName(member))
			if _, ok := c.index[t]; !ok {
				return nil, invalidCatalog(fmt.Sprintf("category %s lists unknown block %s", name, t), nil)
			}
			if _, dup := tg.set[t]; dup {
				continue
			}
			tg.set[t] = struct{}{}
			tg.members = append(tg.members, t)
		}
		c.categories[name] = tg
	}

	return c, nil
}

func (c *Catalog) add(t Type) {
	if _, ok := c.index[t]; ok {
		return
	}
	c.index[t] = struct{}{}
	c.Palette = append(c.Palette, t)
}

// Lookup implements TypeRegistry.
func (c *Catalog) Lookup(name string) (Type, bool) {
	t := Type(NormalizeTypeName(name))
	if _, ok := c.index[t]; !ok {
		return "", false
	}
	return t, true
}

// IsAir implements TypeRegistry.
func (c *Catalog) IsAir(t Type) bool {
	_, ok := c.air[t]
	return ok
}

// Category implements CategoryRegistry.
func (c *Catalog) Category(name string) (Category, bool) {
	tg, ok := c.categories[NormalizeCategoryName(name)]
	if !ok {
		return nil, false
	}
	return tg, true
}

// CategoryNames lists every category, sorted.
func (c *Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.categories))
	for name := range c.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func invalidCatalog(message string, cause error) *gerrors.GateError {
	err := gerrors.New(gerrors.KindInvalidCatalog, message)
	err.Cause = cause
	return err
}
