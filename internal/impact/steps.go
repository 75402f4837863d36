package impact

import (
	"sort"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// AnalyzeSteps attributes the causing changes of a to individual steps
// of tc and fills a.StepImpacts and a.AffectedSteps.
//
// A step matched by a deletion is removed, by a modification updated,
// by an addition reviewed. An addition with no step-level match gets a
// pseudo-step appended after the last existing step, one per addition.
// Changes matched only in the description or precondition produce no
// step impact. AffectedSteps lists existing steps only.
func AnalyzeSteps(a *taxonomy.ImpactAssessment, tc taxonomy.TestCase, matches []taxonomy.FieldMatch) {
	steps := make(map[string][]int)
	for _, fm := range matches {
		if fm.TestCaseID != tc.ID || fm.Location.Kind != taxonomy.InStep {
			continue
		}
		steps[fm.MappingID] = append(steps[fm.MappingID], fm.Location.Step)
	}

	next := tc.LastStepNumber() + 1
	impacts := []taxonomy.StepImpact{}
	affected := make(map[int]bool)
	for _, c := range a.CausingChanges {
		nums := dedupInts(steps[c.ID])
		if len(nums) == 0 {
			if c.Kind == taxonomy.Added {
				impacts = append(impacts, taxonomy.StepImpact{
					Step:      next,
					Action:    taxonomy.StepAdd,
					MappingID: c.ID,
					Pseudo:    true,
				})
				next++
			}
			continue
		}
		action := stepAction(c.Kind)
		for _, n := range nums {
			impacts = append(impacts, taxonomy.StepImpact{Step: n, Action: action, MappingID: c.ID})
			affected[n] = true
		}
	}

	sort.SliceStable(impacts, func(i, j int) bool {
		if impacts[i].Step != impacts[j].Step {
			return impacts[i].Step < impacts[j].Step
		}
		return impacts[i].MappingID < impacts[j].MappingID
	})
	a.StepImpacts = impacts

	a.AffectedSteps = make([]int, 0, len(affected))
	for n := range affected {
		a.AffectedSteps = append(a.AffectedSteps, n)
	}
	sort.Ints(a.AffectedSteps)
}

func stepAction(kind taxonomy.ChangeKind) taxonomy.StepAction {
	switch kind {
	case taxonomy.Deleted:
		return taxonomy.StepRemove
	case taxonomy.Modified:
		return taxonomy.StepUpdate
	default:
		return taxonomy.StepReview
	}
}

func dedupInts(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	out := append([]int(nil), in...)
	sort.Ints(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
