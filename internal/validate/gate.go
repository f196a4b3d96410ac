// Package validate is the data-quality gate between the gold layer and the
// catalog. It evaluates every rule, accumulates every violation, and only
// then reports: a run never stops at the first failed assertion.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mesh-intelligence/strata/pkg/types"
)

// DefaultWorkers bounds concurrent rule evaluation when Gate.Workers is zero.
const DefaultWorkers = 8

// Gate evaluates a rule set over a table set.
type Gate struct {
	Rules   []Rule
	Workers int
}

// NewGate returns a gate over DefaultRules.
func NewGate(workers int) *Gate {
	return &Gate{Rules: DefaultRules(), Workers: workers}
}

// Evaluate runs every rule concurrently and returns the sorted violations.
// Rules only read tables. Evaluate fails only when ctx is done before every
// rule has run.
func (g *Gate) Evaluate(ctx context.Context, tables types.TableSet) (*Report, error) {
	workers := g.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	sem := make(chan struct{}, workers)
	found := make([]*types.Violation, len(g.Rules))

	var wg sync.WaitGroup
	for i, r := range g.Rules {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			found[i] = r.evaluate(tables)
		}()
	}
	wg.Wait()

	report := &Report{Rules: len(g.Rules), Tables: tableCount(g.Rules)}
	for _, v := range found {
		if v != nil {
			report.Violations = append(report.Violations, *v)
		}
	}
	sort.SliceStable(report.Violations, func(i, j int) bool {
		a, b := report.Violations[i], report.Violations[j]
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		return a.Rule < b.Rule
	})
	return report, nil
}

func tableCount(rules []Rule) int {
	seen := make(map[string]bool)
	for _, r := range rules {
		seen[r.Table] = true
	}
	return len(seen)
}

// Report is the outcome of one gate evaluation.
type Report struct {
	Rules      int               `json:"rules"`
	Tables     int               `json:"tables"`
	Violations []types.Violation `json:"violations"`
}

// Passed reports whether no rule was violated.
func (r *Report) Passed() bool {
	return len(r.Violations) == 0
}

// Err returns a *types.ValidationError carrying every violation, or nil.
func (r *Report) Err() error {
	if r.Passed() {
		return nil
	}
	return &types.ValidationError{Violations: r.Violations}
}

// Summary renders the report for operators: one line per violation.
func (r *Report) Summary() string {
	var b strings.Builder
	if r.Passed() {
		fmt.Fprintf(&b, "validation passed: %d rule(s) over %d table(s)\n", r.Rules, r.Tables)
		return b.String()
	}
	fmt.Fprintf(&b, "validation failed: %d of %d rule(s) violated\n", len(r.Violations), r.Rules)
	for _, v := range r.Violations {
		fmt.Fprintf(&b, "  %s\n", v)
	}
	return b.String()
}
