// Package catalog holds the static lookups the composer needs before it can
// talk to the backend: category ids, the fallback studio list and seed
// templates.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the parsed catalog file.
type Catalog struct {
	Categories []domain.Category `yaml:"categories"`
	Studios    []domain.Studio   `yaml:"studios"`
	Templates  []domain.Template `yaml:"templates"`

	byName map[string]string
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, falling back to the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates catalog YAML.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.byName = make(map[string]string, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.ID == "" || cat.Name == "" {
			return nil, fmt.Errorf("catalog category requires id and name")
		}
		c.byName[strings.ToLower(cat.Name)] = cat.ID
	}
	seen := make(map[string]struct{}, len(c.Templates))
	for i := range c.Templates {
		tmpl := &c.Templates[i]
		if tmpl.ID == "" {
			return nil, fmt.Errorf("catalog template %q requires id", tmpl.Name)
		}
		if _, dup := seen[tmpl.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog template %q", tmpl.ID)
		}
		seen[tmpl.ID] = struct{}{}
		if tmpl.Priority == "" {
			tmpl.Priority = domain.TicketPriorityMedium
		}
		if !tmpl.Priority.Valid() {
			return nil, fmt.Errorf("catalog template %q has unknown priority %q", tmpl.ID, tmpl.Priority)
		}
	}
	return &c, nil
}

// CategoryID resolves a category name to its backend identifier.
func (c *Catalog) CategoryID(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	id, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// FallbackStudios returns a copy of the static studio list.
func (c *Catalog) FallbackStudios() []domain.Studio {
	if c == nil {
		return nil
	}
	return append([]domain.Studio(nil), c.Studios...)
}
