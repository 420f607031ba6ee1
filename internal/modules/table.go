package modules

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/facetlabs/facet/internal/appdef"
	"github.com/facetlabs/facet/internal/domain/module"
)

// previewRows caps how many rows the table module renders per dataset.
const previewRows = 20

// TableView renders a bounded preview of each declared dataset.
type TableView struct {
	mu       sync.Mutex
	previews map[string][][]any
}

// NewTableView creates an inactive table module.
func NewTableView() *TableView {
	return &TableView{}
}

// Activate snapshots a preview of each dataset in the leaf's view.
func (t *TableView) Activate(ctx context.Context, act module.Activation) error {
	previews := make(map[string][][]any)
	var lines []string
	for _, dataset := range act.View.Names() {
		rows, err := act.View.Rows(dataset)
		if err != nil {
			return err
		}
		n := len(rows)
		if n > previewRows {
			rows = rows[:previewRows]
		}
		previews[dataset] = rows
		lines = append(lines, fmt.Sprintf("%s: %d rows (%d shown)", dataset, n, len(rows)))
	}

	t.mu.Lock()
	t.previews = previews
	t.mu.Unlock()

	if act.Reporter != nil {
		act.Reporter.AddCard(
			fmt.Sprintf("Tables: %s", act.LeafID),
			strings.Join(lines, "\n"),
		)
	}
	return nil
}

// Preview returns the captured rows for a dataset.
func (t *TableView) Preview(dataset string) [][]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.previews[dataset]
}

// DefaultCatalog maps the built-in leaf kinds to their factories.
func DefaultCatalog() appdef.Catalog {
	return appdef.Catalog{
		"summary": func(appdef.Leaf) (module.Module, error) { return NewSummary(), nil },
		"table":   func(appdef.Leaf) (module.Module, error) { return NewTableView(), nil },
	}
}
