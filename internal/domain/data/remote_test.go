package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDecodeTableCSV(t *testing.T) {
	payload := []byte("species,petal_width\nsetosa,0.2\nvirginica,2.1\n")

	table, err := decodeTable("iris", payload)
	if err != nil {
		t.Fatalf("decodeTable failed: %v", err)
	}
	if len(table.Columns) != 2 || table.Columns[0] != "species" {
		t.Errorf("Unexpected columns %v", table.Columns)
	}
	if table.Len() != 2 {
		t.Fatalf("Expected 2 rows, got %d", table.Len())
	}
	// Numeric-looking fields are coerced so filters compare numerically.
	if v, ok := table.Rows[0][1].(float64); !ok || v != 0.2 {
		t.Errorf("Expected coerced float 0.2, got %v", table.Rows[0][1])
	}
	if _, ok := table.Rows[0][0].(string); !ok {
		t.Errorf("Expected string cell, got %T", table.Rows[0][0])
	}
}

func TestDecodeTableJSON(t *testing.T) {
	payload := []byte(`{"columns":["mpg","cyl"],"rows":[[21.0,6],[22.8,4]]}`)

	table, err := decodeTable("mtcars", payload)
	if err != nil {
		t.Fatalf("decodeTable failed: %v", err)
	}
	if len(table.Columns) != 2 || table.Len() != 2 {
		t.Errorf("Unexpected shape: %v columns, %d rows", table.Columns, table.Len())
	}
}

func TestDecodeCSVEmptyPayload(t *testing.T) {
	if _, err := decodeCSV("iris", nil); err == nil {
		t.Error("Expected error for missing header row")
	}
}

func TestRemoteResolverFetchesSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("species,petal_width\nsetosa,0.2\n"))
	}))
	defer srv.Close()

	r := NewRemoteResolver(map[string]string{"iris": srv.URL})

	select {
	case bundle := <-r.Resolve(context.Background()):
		if bundle.Empty() {
			t.Fatal("Expected a non-empty bundle")
		}
		table, ok := bundle.Table("iris")
		if !ok || table.Len() != 1 {
			t.Errorf("Expected iris table with 1 row, got %v", table)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Resolver did not emit")
	}
}

func TestRemoteResolverEmitsNothingOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewRemoteResolver(map[string]string{"iris": srv.URL})

	if _, ok := <-r.Resolve(context.Background()); ok {
		t.Error("Expected channel to close without an emission")
	}
	if r.Err() == nil {
		t.Error("Expected the fetch error to be recorded")
	}
}
