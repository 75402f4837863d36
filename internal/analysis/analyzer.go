// Package analysis runs the complete impact analysis of a mapping
// difference document against a test plan: matching, scoring, step
// attribution, gap detection, test case generation and planning.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/gap"
	"github.com/unbound-force/sttm-impact/internal/idgen"
	"github.com/unbound-force/sttm-impact/internal/impact"
	"github.com/unbound-force/sttm-impact/internal/match"
	"github.com/unbound-force/sttm-impact/internal/plan"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Options configures one analysis run.
type Options struct {
	// IDGenerator overrides the generator selected by the configured
	// ID strategy.
	IDGenerator gap.IDGenerator

	// Logger receives non-fatal warnings. Nil discards them; they are
	// recorded in the report metadata either way.
	Logger *log.Logger

	// Version is the tool version to embed in metadata. If empty,
	// defaults to "dev".
	Version string

	// Preset names the configuration preset, for metadata only.
	Preset string
}

// Analyze runs the pipeline. The configuration is validated before any
// matching. Analyze only fails on invalid configuration or
// cancellation; skipped changes and failed generations become
// warnings.
func Analyze(ctx context.Context, doc *taxonomy.MappingDocument, tp *taxonomy.TestPlan, cfg config.Config, opts Options) (*taxonomy.Report, error) {
	start := time.Now()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &taxonomy.MappingDocument{}
	}
	if tp == nil {
		tp = &taxonomy.TestPlan{}
	}

	r := &run{logger: opts.Logger}

	var changes []taxonomy.MappingChange
	skipped := 0
	for _, c := range doc.Changes() {
		if !c.HasFields() {
			skipped++
			r.warn("skipping mapping change without source or target field", "tab", c.Tab, "id", c.ID)
			continue
		}
		changes = append(changes, c)
	}
	var tabs []string
	for _, t := range doc.ChangedTabs() {
		tabs = append(tabs, t.Name)
	}

	matched, err := match.NewEngine(cfg).Run(ctx, tabs, changes, tp.TestCases)
	if err != nil {
		return nil, err
	}
	evidence := groupEvidence(matched)

	assessments, err := assess(ctx, cfg, tp.TestCases, changes, evidence)
	if err != nil {
		return nil, err
	}

	gaps := gap.Find(changes, assessments)
	generated := []taxonomy.GeneratedTestCase{}
	if cfg.Generation.Enabled && hasAdditions(gaps) {
		ids := opts.IDGenerator
		if ids == nil {
			g, err := idgen.New(cfg.Generation.IDStrategy, tp)
			if err != nil {
				r.warn("no test case ID generator", "strategy", cfg.Generation.IDStrategy, "err", err)
			} else {
				ids = g
			}
		}
		out, err := gap.NewGenerator(ids).Generate(gaps)
		generated = append(generated, out...)
		for _, e := range unjoin(err) {
			r.warn("test case generation failed", "err", e)
		}
	}

	rpt := &taxonomy.Report{
		Assessments: assessments,
		Gaps:        gaps,
		Generated:   generated,
		Plan:        plan.Build(assessments, generated, gaps),
	}
	if rpt.Gaps == nil {
		rpt.Gaps = []taxonomy.GapEntry{}
	}
	rpt.Summary = buildSummary(len(tp.TestCases), len(changes), skipped, assessments, gaps, generated)
	rpt.Metadata = buildMetadata(start, opts, r.warnings)
	return rpt, nil
}

// run collects warnings of one analysis.
type run struct {
	logger   *log.Logger
	warnings []string
}

func (r *run) warn(msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, keyvals...)
	}
	line := msg
	for i := 0; i+1 < len(keyvals); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyvals[i], keyvals[i+1])
	}
	r.warnings = append(r.warnings, line)
}

// groupEvidence indexes the raw matches by test case ID.
func groupEvidence(res match.Result) map[string]*impact.Evidence {
	out := make(map[string]*impact.Evidence)
	get := func(id string) *impact.Evidence {
		ev, ok := out[id]
		if !ok {
			ev = &impact.Evidence{}
			out[id] = ev
		}
		return ev
	}
	for _, tr := range res.Tabs {
		for _, tm := range tr.Matches {
			ev := get(tm.TestCaseID)
			ev.TabMatches = append(ev.TabMatches, tm)
		}
	}
	for _, fr := range res.Fields {
		for _, fm := range fr.Matches {
			ev := get(fm.TestCaseID)
			ev.FieldMatches = append(ev.FieldMatches, fm)
		}
	}
	return out
}

// assess scores every test case with evidence in parallel and returns
// the assessments with at least one causing change, ordered by
// descending score, then test case ID.
func assess(ctx context.Context, cfg config.Config, cases []taxonomy.TestCase, changes []taxonomy.MappingChange, evidence map[string]*impact.Evidence) ([]taxonomy.ImpactAssessment, error) {
	scorer := impact.NewScorer(cfg)
	slots := make([]*taxonomy.ImpactAssessment, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Processing.MaxWorkers, 1))
	for i, tc := range cases {
		ev, ok := evidence[tc.ID]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := scorer.Assess(tc, changes, *ev)
			if len(a.CausingChanges) == 0 {
				return nil
			}
			impact.AnalyzeSteps(&a, tc, ev.FieldMatches)
			slots[i] = &a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring: %w", err)
	}

	out := []taxonomy.ImpactAssessment{}
	for _, a := range slots {
		if a != nil {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Impact.Score != out[j].Impact.Score {
			return out[i].Impact.Score > out[j].Impact.Score
		}
		return out[i].TestCaseID < out[j].TestCaseID
	})
	return out, nil
}

func hasAdditions(gaps []taxonomy.GapEntry) bool {
	for _, g := range gaps {
		if g.Kind == taxonomy.Added {
			return true
		}
	}
	return false
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func buildMetadata(start time.Time, opts Options, warnings []string) taxonomy.Metadata {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	if warnings == nil {
		warnings = []string{}
	}
	return taxonomy.Metadata{
		ToolVersion: version,
		GoVersion:   runtime.Version(),
		Preset:      opts.Preset,
		Timestamp:   start,
		Duration:    time.Since(start),
		Warnings:    warnings,
	}
}
