package filter

import "testing"

func TestPredicateMatch(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
		cell any
		want bool
	}{
		{"eq string", Predicate{Op: OpEq, Value: "setosa"}, "setosa", true},
		{"eq mismatch", Predicate{Op: OpEq, Value: "setosa"}, "virginica", false},
		{"eq numeric coercion", Predicate{Op: OpEq, Value: 4}, 4.0, true},
		{"ne", Predicate{Op: OpNe, Value: "setosa"}, "virginica", true},
		{"gt", Predicate{Op: OpGt, Value: 1.0}, 2.1, true},
		{"gt equal", Predicate{Op: OpGt, Value: 2.1}, 2.1, false},
		{"gt non-numeric", Predicate{Op: OpGt, Value: 1.0}, "setosa", false},
		{"lt", Predicate{Op: OpLt, Value: 1.0}, 0.2, true},
		{"contains", Predicate{Op: OpContains, Value: "osa"}, "setosa", true},
		{"contains non-string", Predicate{Op: OpContains, Value: "osa"}, 1.0, false},
		{"in", Predicate{Op: OpIn, Value: []any{"setosa", "virginica"}}, "virginica", true},
		{"in miss", Predicate{Op: OpIn, Value: []any{"setosa"}}, "virginica", false},
		{"unknown op", Predicate{Op: Op("regex"), Value: "x"}, "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Match(tt.cell); got != tt.want {
				t.Errorf("Match(%v) = %v, want %v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestValidOp(t *testing.T) {
	for _, op := range []Op{OpEq, OpNe, OpGt, OpLt, OpContains, OpIn} {
		if !ValidOp(op) {
			t.Errorf("Op %s should be valid", op)
		}
	}
	if ValidOp(Op("regex")) {
		t.Error("Unknown op should be invalid")
	}
}

func TestStateVersionBumps(t *testing.T) {
	s := NewState("demo")
	if s.Version() != 0 {
		t.Fatalf("Fresh state should be at version 0, got %d", s.Version())
	}

	s.Add(Predicate{Dataset: "iris", Column: "species", Op: OpEq, Value: "setosa"})
	if s.Version() != 1 {
		t.Errorf("Expected version 1 after Add, got %d", s.Version())
	}

	s.Replace("iris", []Predicate{{Dataset: "iris", Column: "petal_width", Op: OpGt, Value: 1.0}})
	if s.Version() != 2 {
		t.Errorf("Expected version 2 after Replace, got %d", s.Version())
	}

	s.Clear("iris")
	if s.Version() != 3 {
		t.Errorf("Expected version 3 after Clear, got %d", s.Version())
	}

	// Clearing an untouched dataset is a no-op.
	s.Clear("mtcars")
	if s.Version() != 3 {
		t.Errorf("Clear of unknown dataset should not bump version, got %d", s.Version())
	}
}

func TestStateDatasetOrder(t *testing.T) {
	s := NewState("demo")
	s.Add(Predicate{Dataset: "mtcars", Column: "mpg", Op: OpGt, Value: 20.0})
	s.Add(Predicate{Dataset: "iris", Column: "species", Op: OpEq, Value: "setosa"})
	s.Add(Predicate{Dataset: "mtcars", Column: "cyl", Op: OpEq, Value: 4.0})

	order := s.Datasets()
	if len(order) != 2 || order[0] != "mtcars" || order[1] != "iris" {
		t.Errorf("Expected insertion order [mtcars iris], got %v", order)
	}

	if got := len(s.For("mtcars")); got != 2 {
		t.Errorf("Expected 2 mtcars predicates, got %d", got)
	}
}

func TestForReturnsCopy(t *testing.T) {
	s := NewState("demo")
	s.Add(Predicate{Dataset: "iris", Column: "species", Op: OpEq, Value: "setosa"})

	preds := s.For("iris")
	preds[0].Value = "mutated"

	if s.For("iris")[0].Value != "setosa" {
		t.Error("For should return a copy, not shared storage")
	}
}
