package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition describes a condition for display. Definitions never change
// rules math; the engine reacts only to the names in this package's vocabulary.
type Definition struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	DefaultRounds *int   `yaml:"default_rounds"` // nil = until removed
}

// Catalog holds Definitions keyed by lower-cased name.
type Catalog struct {
	defs map[string]*Definition
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{defs: make(map[string]*Definition)}
}

// Register adds def, overwriting any existing entry with the same name.
// Precondition: def must not be nil and def.Name must not be empty.
func (c *Catalog) Register(def *Definition) {
	def.Name = strings.ToLower(def.Name)
	c.defs[def.Name] = def
}

// Get returns the Definition for name, ignoring case, or (nil, false).
func (c *Catalog) Get(name string) (*Definition, bool) {
	d, ok := c.defs[strings.ToLower(name)]
	return d, ok
}

// All returns every Definition sorted by name.
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Describe returns the description for name, or name itself when unknown.
func (c *Catalog) Describe(name string) string {
	if d, ok := c.Get(name); ok && d.Description != "" {
		return d.Description
	}
	return name
}

// LoadCatalog reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Catalog.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to parse.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if def.Name == "" {
			return nil, fmt.Errorf("parsing %q: name must not be empty", path)
		}
		cat.Register(&def)
	}
	return cat, nil
}
