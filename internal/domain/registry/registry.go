// Package registry builds the per-session dataset registry: one filtered
// view per module-tree leaf over a resolved data bundle.
package registry

import (
	"fmt"
	"sort"

	"github.com/facetlabs/facet/internal/domain/data"
	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/module"
)

// View is a leaf-scoped window over the bundle. Views referencing the same
// dataset share the underlying table storage; they differ only in which
// filter predicates apply. Filtering is read-through: predicates are
// re-read from the shared filter state on every Rows call.
type View struct {
	leafID  string
	tables  map[string]*data.Table
	filters *filter.State
}

// LeafID returns the owning leaf's ID.
func (v *View) LeafID() string { return v.leafID }

// Names returns the dataset names visible to this view, sorted.
func (v *View) Names() []string {
	names := make([]string, 0, len(v.tables))
	for name := range v.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the column names of a visible dataset.
func (v *View) Columns(dataset string) ([]string, error) {
	table, ok := v.tables[dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s not visible to leaf %s", dataset, v.leafID)
	}
	return append([]string(nil), table.Columns...), nil
}

// Rows returns the rows of a visible dataset with the current filter
// predicates applied. Predicates naming unknown columns are skipped.
func (v *View) Rows(dataset string) ([][]any, error) {
	table, ok := v.tables[dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s not visible to leaf %s", dataset, v.leafID)
	}
	preds := v.filters.For(dataset)
	if len(preds) == 0 {
		return append([][]any(nil), table.Rows...), nil
	}

	var out [][]any
	for _, row := range table.Rows {
		if matchAll(table, row, preds) {
			out = append(out, row)
		}
	}
	return out, nil
}

// storage returns the shared table pointer, for storage-identity tests.
func (v *View) storage(dataset string) *data.Table {
	return v.tables[dataset]
}

func matchAll(table *data.Table, row []any, preds []filter.Predicate) bool {
	for _, p := range preds {
		idx := table.ColumnIndex(p.Column)
		if idx < 0 {
			continue
		}
		if !p.Match(row[idx]) {
			return false
		}
	}
	return true
}

// Registry holds one view per module-tree leaf. Built at most once per
// session, only from a non-empty bundle.
type Registry struct {
	views       map[string]*View
	fingerprint string
}

// Build walks the tree depth-first and constructs a view per leaf. Progress
// is reported through sink after each leaf, proportional to leaves
// processed, and sink is closed on every path. Any error is fatal: no
// partial registry is returned.
func Build(bundle *data.Bundle, tree module.Tree, filters *filter.State, sink Sink) (*Registry, error) {
	defer sink.Close()

	if bundle.Empty() {
		return nil, fmt.Errorf("registry requires a non-empty bundle")
	}

	leaves := tree.Leaves()
	reg := &Registry{
		views:       make(map[string]*View, len(leaves)),
		fingerprint: bundle.Fingerprint(),
	}

	// Memoized so sibling views share table storage rather than copying.
	shared := make(map[string]*data.Table)

	total := len(leaves)
	for i, leaf := range leaves {
		view := &View{
			leafID:  leaf.ID,
			tables:  make(map[string]*data.Table, len(leaf.Datasets)),
			filters: filters,
		}
		for _, name := range leaf.Datasets {
			table, ok := shared[name]
			if !ok {
				table, ok = bundle.Table(name)
				if !ok {
					return nil, fmt.Errorf("leaf %s needs dataset %s, not in bundle", leaf.ID, name)
				}
				shared[name] = table
			}
			view.tables[name] = table
		}
		reg.views[leaf.ID] = view
		sink.Advance(float64(i+1)/float64(total), leaf.ID)
	}
	if total == 0 {
		sink.Advance(1.0, "empty tree")
	}

	return reg, nil
}

// View returns the view scoped to a leaf.
func (r *Registry) View(leafID string) (*View, bool) {
	v, ok := r.views[leafID]
	return v, ok
}

// Len returns the number of leaf-scoped views.
func (r *Registry) Len() int { return len(r.views) }

// Fingerprint returns the digest of the bundle the registry was built from.
func (r *Registry) Fingerprint() string { return r.fingerprint }
