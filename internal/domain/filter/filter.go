package filter

import (
	"strings"
	"sync"
)

// Op identifies a predicate comparison.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpGt       Op = "gt"
	OpLt       Op = "lt"
	OpContains Op = "contains"
	OpIn       Op = "in"
)

// ValidOp reports whether op is a known comparison.
func ValidOp(op Op) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpLt, OpContains, OpIn:
		return true
	}
	return false
}

// Predicate is a single row filter scoped to one dataset column.
type Predicate struct {
	Dataset string `json:"dataset"`
	Column  string `json:"column"`
	Op      Op     `json:"op"`
	Value   any    `json:"value"`
}

// Match evaluates the predicate against a cell value.
func (p Predicate) Match(cell any) bool {
	switch p.Op {
	case OpEq:
		return equal(cell, p.Value)
	case OpNe:
		return !equal(cell, p.Value)
	case OpGt:
		a, aok := asFloat(cell)
		b, bok := asFloat(p.Value)
		return aok && bok && a > b
	case OpLt:
		a, aok := asFloat(cell)
		b, bok := asFloat(p.Value)
		return aok && bok && a < b
	case OpContains:
		cs, csok := cell.(string)
		vs, vsok := p.Value.(string)
		return csok && vsok && strings.Contains(cs, vs)
	case OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return false
		}
		for _, v := range values {
			if equal(cell, v) {
				return true
			}
		}
	}
	return false
}

// State is the session-wide filter state: ordered per-dataset predicate
// slices under an opaque app_id namespace. It is the only broadly mutable
// resource shared across registry views; every mutation bumps the version
// and is observed read-through on the next row access.
type State struct {
	mu      sync.RWMutex
	appID   string
	version uint64
	order   []string
	preds   map[string][]Predicate
}

// NewState creates an empty filter state namespaced by appID.
func NewState(appID string) *State {
	return &State{
		appID: appID,
		preds: make(map[string][]Predicate),
	}
}

// AppID returns the namespace used for persisted snapshots.
func (s *State) AppID() string { return s.appID }

// Version returns the mutation counter.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Add appends a predicate to its dataset's slice.
func (s *State) Add(p Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.preds[p.Dataset]; !seen {
		s.order = append(s.order, p.Dataset)
	}
	s.preds[p.Dataset] = append(s.preds[p.Dataset], p)
	s.version++
}

// Replace swaps the full predicate slice for one dataset.
func (s *State) Replace(dataset string, preds []Predicate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.preds[dataset]; !seen {
		s.order = append(s.order, dataset)
	}
	s.preds[dataset] = append([]Predicate(nil), preds...)
	s.version++
}

// Clear removes all predicates for a dataset.
func (s *State) Clear(dataset string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.preds[dataset]; !seen {
		return
	}
	delete(s.preds, dataset)
	for i, name := range s.order {
		if name == dataset {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.version++
}

// For returns a copy of the predicate slice for one dataset.
func (s *State) For(dataset string) []Predicate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Predicate(nil), s.preds[dataset]...)
}

// Datasets returns dataset names in insertion order.
func (s *State) Datasets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Snapshot captures the state in a serializable, restorable form.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		AppID:   s.appID,
		Filters: make(map[string][]Predicate, len(s.preds)),
	}
	for name, preds := range s.preds {
		snap.Filters[name] = append([]Predicate(nil), preds...)
	}
	return snap
}

func equal(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
