package analysis

import (
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// highestImpactCount bounds Summary.HighestImpact.
const highestImpactCount = 5

// buildSummary aggregates the run. Assessments must already be ordered
// by descending score.
func buildSummary(cases, changes, skipped int, assessments []taxonomy.ImpactAssessment, gaps []taxonomy.GapEntry, generated []taxonomy.GeneratedTestCase) taxonomy.Summary {
	s := taxonomy.Summary{
		TotalTestCases:    cases,
		TotalChanges:      changes,
		SkippedChanges:    skipped,
		ImpactedTestCases: len(assessments),
		LevelCounts: map[taxonomy.ImpactLevel]int{
			taxonomy.High:   0,
			taxonomy.Medium: 0,
			taxonomy.Low:    0,
		},
		GapCounts:      make(map[taxonomy.ChangeKind]int),
		GeneratedCount: len(generated),
	}
	for _, a := range assessments {
		s.LevelCounts[a.Impact.Level]++
	}
	for _, g := range gaps {
		s.GapCounts[g.Kind]++
	}

	top := assessments
	if len(top) > highestImpactCount {
		top = top[:highestImpactCount]
	}
	s.HighestImpact = append([]taxonomy.ImpactAssessment{}, top...)
	return s
}
