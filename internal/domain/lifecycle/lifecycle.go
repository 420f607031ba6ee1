package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/facetlabs/facet/internal/domain/data"
	"github.com/facetlabs/facet/internal/domain/filter"
	"github.com/facetlabs/facet/internal/domain/module"
	"github.com/facetlabs/facet/internal/domain/registry"
)

// State is a lifecycle phase. Transitions only move forward; Active is
// terminal for the remainder of the session.
type State string

const (
	StateAwaitingData     State = "awaiting_data"
	StateBuildingRegistry State = "building_registry"
	StateActive           State = "active"
)

// Tab is one entry of the composed UI descriptor.
type Tab struct {
	Title  string    `json:"title"`
	Leaves []TabLeaf `json:"leaves"`
}

// TabLeaf describes one leaf slot inside a tab.
type TabLeaf struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Datasets     []string `json:"datasets,omitempty"`
	UsesReporter bool     `json:"uses_reporter,omitempty"`
}

// Composition is the tab-and-filter UI descriptor that replaces the splash.
type Composition struct {
	Title  string `json:"title"`
	Header string `json:"header,omitempty"`
	Footer string `json:"footer,omitempty"`
	Tabs   []Tab  `json:"tabs"`
}

// Presenter performs the splash-to-UI swap. Swap must complete its
// input-binding synchronously: default input values in the new UI have to be
// registered before any observer that depends on them runs, which is why
// activation only starts after Swap returns.
type Presenter interface {
	Swap(c Composition) error
}

// Config assembles a lifecycle. Title, Header and Footer are pre-validated
// display content; Bookmark is the raw filter snapshot to restore, if any.
type Config struct {
	Title         string
	Header        string
	Footer        string
	Tree          module.Tree
	DefaultFilter *filter.State
	Bookmark      any
	Reporter      module.Reporter
	Presenter     Presenter
	Sink          registry.Sink
}

// Lifecycle is the single-fire state machine gating the transition from
// splash to live UI. One instance per session.
type Lifecycle struct {
	mu    sync.Mutex
	state State
	fired bool

	cfg      Config
	tree     module.Tree
	filters  *filter.State
	registry *registry.Registry
}

// New validates the configuration and returns a lifecycle in AwaitingData.
// Configuration errors are caller bugs and fail fast.
func New(cfg Config) (*Lifecycle, error) {
	if cfg.Presenter == nil {
		return nil, fmt.Errorf("lifecycle: presenter is required")
	}
	if cfg.DefaultFilter == nil {
		return nil, fmt.Errorf("lifecycle: default filter state is required")
	}
	if err := cfg.Tree.Validate(); err != nil {
		return nil, fmt.Errorf("lifecycle: %w", err)
	}
	if cfg.Sink == nil {
		cfg.Sink = registry.NopSink{}
	}
	return &Lifecycle{state: StateAwaitingData, cfg: cfg}, nil
}

// State returns the current phase.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Registry returns the built registry once Active, else nil.
func (l *Lifecycle) Registry() *registry.Registry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registry
}

// Filters returns the restored filter state once Active, else nil.
func (l *Lifecycle) Filters() *filter.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// Tree returns the activated tree (with any injected previewer) once
// Active, else the configured tree.
func (l *Lifecycle) Tree() module.Tree {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fired {
		return l.tree
	}
	return l.cfg.Tree
}

// Watch consumes resolver emissions until the first non-empty bundle, then
// performs the one-shot build, UI swap and module activation. The loop
// returns after the transition, so later emissions are structurally
// incapable of re-firing it. Empty emissions are skipped; a channel that
// closes (or a cancelled context) leaves the session in AwaitingData.
func (l *Lifecycle) Watch(ctx context.Context, emissions <-chan *data.Bundle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case bundle, ok := <-emissions:
			if !ok {
				return nil
			}
			if bundle.Empty() {
				continue
			}
			return l.fire(ctx, bundle)
		}
	}
}

// fire runs the AwaitingData → BuildingRegistry → Active transition. The
// consumed flag is belt-and-braces: Watch already guarantees single entry.
func (l *Lifecycle) fire(ctx context.Context, bundle *data.Bundle) error {
	l.mu.Lock()
	if l.fired {
		l.mu.Unlock()
		return nil
	}
	l.fired = true
	l.state = StateBuildingRegistry
	l.mu.Unlock()

	filters := filter.Restore(l.cfg.Bookmark, l.cfg.DefaultFilter)
	tree := module.WithReporterPreview(l.cfg.Tree)

	// Build closes the sink on every path, error included.
	reg, err := registry.Build(bundle, tree, filters, l.cfg.Sink)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	// Swap before activation: no module observer may run until the new
	// UI's inputs are bound.
	if err := l.cfg.Presenter.Swap(l.compose(tree)); err != nil {
		return fmt.Errorf("ui swap: %w", err)
	}

	l.mu.Lock()
	l.state = StateActive
	l.tree = tree
	l.filters = filters
	l.registry = reg
	l.mu.Unlock()

	return l.activate(ctx, tree, reg, filters)
}

// activate starts each leaf's business logic exactly once.
func (l *Lifecycle) activate(ctx context.Context, tree module.Tree, reg *registry.Registry, filters *filter.State) error {
	meta := tree.Meta()
	for _, leaf := range tree.Leaves() {
		view, ok := reg.View(leaf.ID)
		if !ok {
			return fmt.Errorf("activate %s: no registry view", leaf.ID)
		}
		act := module.Activation{
			LeafID:  leaf.ID,
			View:    view,
			Tree:    meta,
			Filters: filters,
		}
		if leaf.UsesReporter {
			act.Reporter = l.cfg.Reporter
		}
		if err := leaf.Module.Activate(ctx, act); err != nil {
			return fmt.Errorf("activate %s: %w", leaf.ID, err)
		}
	}
	return nil
}

// compose flattens the tree into the UI descriptor sent on swap.
func (l *Lifecycle) compose(tree module.Tree) Composition {
	c := Composition{
		Title:  l.cfg.Title,
		Header: l.cfg.Header,
		Footer: l.cfg.Footer,
	}
	toTabLeaf := func(leaf *module.Leaf) TabLeaf {
		return TabLeaf{
			ID:           leaf.ID,
			Title:        leaf.Title,
			Datasets:     leaf.Datasets,
			UsesReporter: leaf.UsesReporter,
		}
	}
	for i := range tree.Nodes {
		node := tree.Nodes[i]
		if node.Leaf != nil {
			c.Tabs = append(c.Tabs, Tab{
				Title:  node.Leaf.Title,
				Leaves: []TabLeaf{toTabLeaf(node.Leaf)},
			})
		}
		if node.Group != nil {
			tab := Tab{Title: node.Group.Title}
			for j := range node.Group.Children {
				tab.Leaves = append(tab.Leaves, toTabLeaf(&node.Group.Children[j]))
			}
			c.Tabs = append(c.Tabs, tab)
		}
	}
	return c
}
