package module

import (
	"context"
	"io"

	"github.com/facetlabs/facet/internal/domain/filter"
)

// DataView is the dataset surface a leaf receives at activation: the subset
// of the resolved bundle the leaf declared, with session filters applied
// read-through on every access.
type DataView interface {
	Names() []string
	Columns(dataset string) ([]string, error)
	Rows(dataset string) ([][]any, error)
}

// Reporter is the cross-module report-collection capability. Injected into
// a leaf's activation only when the leaf declared it.
type Reporter interface {
	AddCard(title, body string) string
	Cards() int
	Reset()
	Archive(w io.Writer) error
}

// Activation carries everything a leaf's business logic receives, exactly
// once per session.
type Activation struct {
	LeafID   string
	View     DataView
	Tree     Meta
	Reporter Reporter // nil unless the leaf declared reporter use
	Filters  *filter.State
}

// Module is an opaque pluggable analysis unit behind a tree leaf.
type Module interface {
	Activate(ctx context.Context, act Activation) error
}

// Meta is the tree metadata passed to every activated leaf.
type Meta struct {
	Title   string
	LeafIDs []string
}

// Func adapts a plain function to the Module interface.
type Func func(ctx context.Context, act Activation) error

// Activate implements Module.
func (f Func) Activate(ctx context.Context, act Activation) error {
	return f(ctx, act)
}
