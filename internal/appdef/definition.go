// Package appdef loads and validates application definitions: title,
// header/footer content, data sources and the module layout.
package appdef

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/microcosm-cc/bluemonday"

	"github.com/facetlabs/facet/internal/domain/module"
)

// Definition is the declarative shape of a facet application.
type Definition struct {
	Title  string   `yaml:"title"`
	Header string   `yaml:"header"`
	Footer string   `yaml:"footer"`
	Data   DataSpec `yaml:"data"`
	Layout []Node   `yaml:"layout"`
}

// DataSpec declares where datasets come from. An empty source map means the
// application waits for data that arrives by other means (e.g. after
// interactive credentials).
type DataSpec struct {
	Sources map[string]string `yaml:"sources"`
}

// Node mirrors the two-level module layout: a leaf or a tab group.
type Leaf struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Kind     string   `yaml:"kind"`
	Datasets []string `yaml:"datasets"`
	Reporter bool     `yaml:"reporter"`
}

// Group is a tab group of leaves.
type Group struct {
	Title    string `yaml:"title"`
	Children []Leaf `yaml:"children"`
}

// Node is a tagged union; exactly one field may be set.
type Node struct {
	Leaf  *Leaf  `yaml:"leaf,omitempty"`
	Group *Group `yaml:"group,omitempty"`
}

// Factory builds the module behind a declared leaf kind.
type Factory func(decl Leaf) (module.Module, error)

// Catalog maps leaf kinds to module factories.
type Catalog map[string]Factory

// Load reads and validates a definition file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read app definition: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML definition.
func Parse(raw []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("parse app definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def.sanitize()
	return &def, nil
}

// Validate rejects malformed definitions with descriptive errors. These are
// caller bugs, caught at setup time, never at runtime.
func (d *Definition) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("app definition: title is required")
	}
	if len(d.Layout) == 0 {
		return fmt.Errorf("app definition %q: layout must declare at least one module", d.Title)
	}
	for i, node := range d.Layout {
		switch {
		case node.Leaf != nil && node.Group != nil:
			return fmt.Errorf("app definition %q: layout node %d declares both leaf and group", d.Title, i)
		case node.Leaf == nil && node.Group == nil:
			return fmt.Errorf("app definition %q: layout node %d is empty", d.Title, i)
		case node.Leaf != nil:
			if err := validateLeaf(d.Title, node.Leaf); err != nil {
				return err
			}
		case node.Group != nil:
			if node.Group.Title == "" {
				return fmt.Errorf("app definition %q: layout node %d group needs a title", d.Title, i)
			}
			if len(node.Group.Children) == 0 {
				return fmt.Errorf("app definition %q: group %q has no children", d.Title, node.Group.Title)
			}
			for j := range node.Group.Children {
				if err := validateLeaf(d.Title, &node.Group.Children[j]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validateLeaf(app string, leaf *Leaf) error {
	if leaf.ID == "" {
		return fmt.Errorf("app definition %q: leaf with empty id", app)
	}
	if leaf.Kind == "" {
		return fmt.Errorf("app definition %q: leaf %s needs a kind", app, leaf.ID)
	}
	return nil
}

// sanitize strips unsafe markup from rich display content. Plain strings
// pass through unchanged.
func (d *Definition) sanitize() {
	policy := bluemonday.UGCPolicy()
	d.Title = policy.Sanitize(d.Title)
	d.Header = policy.Sanitize(d.Header)
	d.Footer = policy.Sanitize(d.Footer)
}

// BuildTree materializes the module tree from the layout using the factory
// catalog. Unknown kinds fail fast.
func (d *Definition) BuildTree(catalog Catalog) (module.Tree, error) {
	buildLeaf := func(decl Leaf) (module.Leaf, error) {
		factory, ok := catalog[decl.Kind]
		if !ok {
			return module.Leaf{}, fmt.Errorf("app definition %q: leaf %s has unknown kind %q", d.Title, decl.ID, decl.Kind)
		}
		mod, err := factory(decl)
		if err != nil {
			return module.Leaf{}, fmt.Errorf("app definition %q: leaf %s: %w", d.Title, decl.ID, err)
		}
		return module.Leaf{
			ID:           decl.ID,
			Title:        decl.Title,
			Datasets:     decl.Datasets,
			UsesReporter: decl.Reporter,
			Module:       mod,
		}, nil
	}

	tree := module.Tree{Title: d.Title}
	for _, node := range d.Layout {
		if node.Leaf != nil {
			leaf, err := buildLeaf(*node.Leaf)
			if err != nil {
				return module.Tree{}, err
			}
			tree.Nodes = append(tree.Nodes, module.Node{Leaf: &leaf})
		}
		if node.Group != nil {
			group := module.Group{Title: node.Group.Title}
			for _, child := range node.Group.Children {
				leaf, err := buildLeaf(child)
				if err != nil {
					return module.Tree{}, err
				}
				group.Children = append(group.Children, leaf)
			}
			tree.Nodes = append(tree.Nodes, module.Node{Group: &group})
		}
	}
	if err := tree.Validate(); err != nil {
		return module.Tree{}, err
	}
	return tree, nil
}
