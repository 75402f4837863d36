// Package plan merges assessments, generated test cases and remaining
// gaps into one prioritized action plan.
package plan

import (
	"fmt"
	"sort"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// Actions for items that do not carry an assessment action.
const (
	ActionCreate = "CREATE"
	ActionReview = "REVIEW"
)

// Build orders everything into tiers: 1-3 assessments by impact level,
// 4 generated test cases, 5 gaps without a generated test case.
// Assessments are ordered by descending score, then test case ID;
// generated cases and gaps by source field, then mapping ID.
func Build(assessments []taxonomy.ImpactAssessment, generated []taxonomy.GeneratedTestCase, gaps []taxonomy.GapEntry) taxonomy.ActionPlan {
	scored := append([]taxonomy.ImpactAssessment(nil), assessments...)
	sort.SliceStable(scored, func(i, j int) bool {
		pi, pj := taxonomy.PriorityOf(scored[i].Impact.Level), taxonomy.PriorityOf(scored[j].Impact.Level)
		if pi != pj {
			return pi < pj
		}
		if scored[i].Impact.Score != scored[j].Impact.Score {
			return scored[i].Impact.Score > scored[j].Impact.Score
		}
		return scored[i].TestCaseID < scored[j].TestCaseID
	})

	items := make([]taxonomy.ActionItem, 0, len(assessments)+len(generated)+len(gaps))
	for _, a := range scored {
		items = append(items, taxonomy.ActionItem{
			Priority:   taxonomy.PriorityOf(a.Impact.Level),
			Kind:       taxonomy.ItemAssessment,
			TestCaseID: a.TestCaseID,
			Title:      a.TestCaseName,
			Action:     string(a.Action),
			Score:      a.Impact.Score,
			Level:      a.Impact.Level,
		})
	}

	sourceOf := make(map[string]taxonomy.MappingChange, len(gaps))
	for _, g := range gaps {
		sourceOf[g.Change.ID] = g.Change
	}

	gen := append([]taxonomy.GeneratedTestCase(nil), generated...)
	sort.SliceStable(gen, func(i, j int) bool {
		si, sj := sourceOf[gen[i].SourceMappingID].SourceField, sourceOf[gen[j].SourceMappingID].SourceField
		if si != sj {
			return si < sj
		}
		return gen[i].SourceMappingID < gen[j].SourceMappingID
	})
	covered := make(map[string]bool, len(gen))
	for _, g := range gen {
		covered[g.SourceMappingID] = true
		items = append(items, taxonomy.ActionItem{
			Priority:   taxonomy.PriorityNewCoverage,
			Kind:       taxonomy.ItemGenerated,
			TestCaseID: g.TestCase.ID,
			MappingID:  g.SourceMappingID,
			Title:      g.TestCase.Name,
			Action:     ActionCreate,
		})
	}

	var rest []taxonomy.GapEntry
	for _, g := range gaps {
		if !covered[g.Change.ID] {
			rest = append(rest, g)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Change.SourceField != rest[j].Change.SourceField {
			return rest[i].Change.SourceField < rest[j].Change.SourceField
		}
		return rest[i].Change.ID < rest[j].Change.ID
	})
	for _, g := range rest {
		items = append(items, taxonomy.ActionItem{
			Priority:  taxonomy.PriorityCleanup,
			Kind:      taxonomy.ItemGap,
			MappingID: g.Change.ID,
			Title:     fmt.Sprintf("%s (%s, %s)", g.Change, g.Kind, g.Change.Tab),
			Action:    ActionReview,
		})
	}
	return taxonomy.ActionPlan{Items: items}
}
