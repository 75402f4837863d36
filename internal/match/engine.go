// Package match implements the tab-level and field-level matching of
// mapping changes against test cases.
//
// Matchers are pure functions of their inputs. Engine fans the work out
// over a bounded worker pool and stores each result at the index of its
// input, so the merged result never depends on scheduling.
package match

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// TabResult holds the matches of one tab.
type TabResult struct {
	Tab     string
	Matches []taxonomy.TabMatch
}

// FieldResult holds the matches of one mapping change.
type FieldResult struct {
	Change  taxonomy.MappingChange
	Matches []taxonomy.FieldMatch
}

// Result is the complete raw match set, in input order.
type Result struct {
	Tabs   []TabResult
	Fields []FieldResult
}

// Engine runs TabMatcher and FieldMatcher over every tab and change.
type Engine struct {
	tabs    *TabMatcher
	fields  *FieldMatcher
	workers int
}

// NewEngine returns an Engine for the given configuration.
func NewEngine(cfg config.Config) *Engine {
	return &Engine{
		tabs:    NewTabMatcher(cfg.Matching),
		fields:  NewFieldMatcher(cfg.Matching),
		workers: max(cfg.Processing.MaxWorkers, 1),
	}
}

// Run matches each tab name and each change against cases.
func (e *Engine) Run(ctx context.Context, tabs []string, changes []taxonomy.MappingChange, cases []taxonomy.TestCase) (Result, error) {
	corpus := NewCorpus(cases)
	res := Result{
		Tabs:   make([]TabResult, len(tabs)),
		Fields: make([]FieldResult, len(changes)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, tab := range tabs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Tabs[i] = TabResult{Tab: tab, Matches: e.tabs.Match(tab, corpus)}
			return nil
		})
	}
	for i, c := range changes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Fields[i] = FieldResult{Change: c, Matches: e.fields.Match(c, corpus)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("matching: %w", err)
	}
	return res, nil
}
