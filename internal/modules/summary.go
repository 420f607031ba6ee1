// Package modules provides the built-in analysis modules shipped with
// facet and the default kind catalog used by app definitions.
package modules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/facetlabs/facet/internal/domain/module"
)

// ColumnSummary holds descriptive statistics for one numeric column.
type ColumnSummary struct {
	Dataset string  `json:"dataset"`
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
	Median  float64 `json:"median"`
}

// Summary computes descriptive statistics for every numeric column of the
// datasets its leaf declared.
type Summary struct {
	mu      sync.Mutex
	results []ColumnSummary
}

// NewSummary creates an inactive summary module.
func NewSummary() *Summary {
	return &Summary{}
}

// Activate computes statistics over the leaf's view and, when the leaf
// declared reporter use, files a report card with the result.
func (s *Summary) Activate(ctx context.Context, act module.Activation) error {
	var results []ColumnSummary
	for _, dataset := range act.View.Names() {
		columns, err := act.View.Columns(dataset)
		if err != nil {
			return err
		}
		rows, err := act.View.Rows(dataset)
		if err != nil {
			return err
		}
		for i, column := range columns {
			values := numericColumn(rows, i)
			if len(values) == 0 {
				continue
			}
			sort.Float64s(values)
			results = append(results, ColumnSummary{
				Dataset: dataset,
				Column:  column,
				Count:   len(values),
				Mean:    stat.Mean(values, nil),
				StdDev:  stat.StdDev(values, nil),
				Median:  stat.Quantile(0.5, stat.Empirical, values, nil),
			})
		}
	}

	s.mu.Lock()
	s.results = results
	s.mu.Unlock()

	if act.Reporter != nil {
		act.Reporter.AddCard(
			fmt.Sprintf("Summary: %s", act.LeafID),
			renderSummary(results),
		)
	}
	return nil
}

// Results returns the computed summaries.
func (s *Summary) Results() []ColumnSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ColumnSummary(nil), s.results...)
}

func numericColumn(rows [][]any, idx int) []float64 {
	var values []float64
	for _, row := range rows {
		switch v := row[idx].(type) {
		case float64:
			values = append(values, v)
		case int:
			values = append(values, float64(v))
		}
	}
	return values
}

func renderSummary(results []ColumnSummary) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s.%s: n=%d mean=%.4f sd=%.4f median=%.4f\n",
			r.Dataset, r.Column, r.Count, r.Mean, r.StdDev, r.Median)
	}
	return b.String()
}
