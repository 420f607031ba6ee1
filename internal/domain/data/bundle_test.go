package data

import "testing"

func mustTable(t *testing.T, name string, columns []string, rows [][]any) *Table {
	t.Helper()
	table, err := NewTable(name, columns, rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return table
}

func TestNewTableValidation(t *testing.T) {
	if _, err := NewTable("", []string{"a"}, nil); err == nil {
		t.Error("Expected error for empty table name")
	}

	if _, err := NewTable("bad", []string{"a", "b"}, [][]any{{1.0}}); err == nil {
		t.Error("Expected error for row width mismatch")
	}
}

func TestColumnIndex(t *testing.T) {
	table := mustTable(t, "iris", []string{"species", "petal_width"}, nil)

	if idx := table.ColumnIndex("petal_width"); idx != 1 {
		t.Errorf("Expected index 1, got %d", idx)
	}
	if idx := table.ColumnIndex("missing"); idx != -1 {
		t.Errorf("Expected -1 for unknown column, got %d", idx)
	}
}

func TestNewBundleRejectsDuplicates(t *testing.T) {
	a := mustTable(t, "iris", []string{"x"}, nil)
	b := mustTable(t, "iris", []string{"y"}, nil)

	if _, err := NewBundle(a, b); err == nil {
		t.Error("Expected error for duplicate table name")
	}
}

func TestBundleEmpty(t *testing.T) {
	empty, err := NewBundle()
	if err != nil {
		t.Fatalf("NewBundle failed: %v", err)
	}
	if !empty.Empty() {
		t.Error("Bundle with no tables should be empty")
	}

	var nilBundle *Bundle
	if !nilBundle.Empty() {
		t.Error("Nil bundle should be empty")
	}

	full, _ := NewBundle(mustTable(t, "iris", []string{"x"}, nil))
	if full.Empty() {
		t.Error("Bundle with a table should not be empty")
	}
}

func TestBundleNamesSorted(t *testing.T) {
	bundle, _ := NewBundle(
		mustTable(t, "mtcars", []string{"mpg"}, nil),
		mustTable(t, "iris", []string{"species"}, nil),
	)

	names := bundle.Names()
	if len(names) != 2 || names[0] != "iris" || names[1] != "mtcars" {
		t.Errorf("Expected sorted names [iris mtcars], got %v", names)
	}
}

func TestFingerprint(t *testing.T) {
	rows := [][]any{{"setosa", 0.2}}
	a, _ := NewBundle(mustTable(t, "iris", []string{"species", "petal_width"}, rows))
	b, _ := NewBundle(mustTable(t, "iris", []string{"species", "petal_width"}, rows))

	if a.Fingerprint() == "" {
		t.Fatal("Fingerprint should not be empty")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("Identical contents should produce identical fingerprints")
	}

	c, _ := NewBundle(mustTable(t, "iris", []string{"species", "petal_width"}, [][]any{{"virginica", 2.1}}))
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("Different contents should produce different fingerprints")
	}
}
