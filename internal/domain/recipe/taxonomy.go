package recipe

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomyYAML []byte

// Category is one top-level taxonomy entry with its declared subcategories.
type Category struct {
	Name          string
	Subcategories []string
}

// HasSubcategory reports whether name is declared under the category.
func (c Category) HasSubcategory(name string) bool {
	for _, s := range c.Subcategories {
		if s == name {
			return true
		}
	}
	return false
}

// Taxonomy is the fixed, ordered category -> subcategory mapping known at
// start. Its shape never changes after construction.
type Taxonomy struct {
	categories []Category
	index      map[string]int
}

// NewTaxonomy validates and indexes the given categories, keeping their order.
func NewTaxonomy(categories []Category) (*Taxonomy, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	t := &Taxonomy{index: make(map[string]int, len(categories))}
	for _, c := range categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}

		seen := make(map[string]struct{}, len(c.Subcategories))
		subs := make([]string, 0, len(c.Subcategories))
		for _, s := range c.Subcategories {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil, ErrEmptyName
			}
			if _, dup := seen[s]; dup {
				return nil, fmt.Errorf("%w: %q in %q", ErrDuplicateSub, s, name)
			}
			seen[s] = struct{}{}
			subs = append(subs, s)
		}

		t.index[name] = len(t.categories)
		t.categories = append(t.categories, Category{Name: name, Subcategories: subs})
	}
	return t, nil
}

// ParseTaxonomy reads a YAML mapping of category to subcategory list. Key
// order in the document is the declared order.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyTaxonomy
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, ErrMalformedTaxonomy
	}

	categories := make([]Category, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || value.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("%w (line %d)", ErrMalformedTaxonomy, key.Line)
		}

		var subs []string
		if err := value.Decode(&subs); err != nil {
			return nil, fmt.Errorf("decode subcategories of %q: %w", key.Value, err)
		}
		categories = append(categories, Category{Name: key.Value, Subcategories: subs})
	}

	return NewTaxonomy(categories)
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomyYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
	}
	return t
}

// Categories returns the categories in declared order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.categories))
	for i, c := range t.categories {
		out[i] = Category{Name: c.Name, Subcategories: append([]string(nil), c.Subcategories...)}
	}
	return out
}

// Category looks up a category by exact name.
func (t *Taxonomy) Category(name string) (Category, bool) {
	i, ok := t.index[name]
	if !ok {
		return Category{}, false
	}
	return t.categories[i], true
}

// HasCategory reports whether name is a declared category.
func (t *Taxonomy) HasCategory(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ResolveSubcategory returns the bucket a record for (category, subcategory)
// belongs to. Unknown or empty subcategories resolve to General when the
// category declares it. substituted is true when the result differs from
// the request.
func (t *Taxonomy) ResolveSubcategory(category, subcategory string) (effective string, substituted bool, err error) {
	c, ok := t.Category(category)
	if !ok {
		return "", false, ErrCategoryNotFound
	}
	if subcategory != "" && c.HasSubcategory(subcategory) {
		return subcategory, false, nil
	}
	if c.HasSubcategory(GeneralSubcategory) {
		return GeneralSubcategory, subcategory != GeneralSubcategory, nil
	}
	return "", false, ErrSubcategoryNotFound
}
