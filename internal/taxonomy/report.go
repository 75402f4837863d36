package taxonomy

// Summary holds aggregate statistics for an analysis run.
type Summary struct {
	TotalTestCases    int                 `json:"total_test_cases"`
	TotalChanges      int                 `json:"total_changes"`
	SkippedChanges    int                 `json:"skipped_changes"`
	ImpactedTestCases int                 `json:"impacted_test_cases"`
	LevelCounts       map[ImpactLevel]int `json:"level_counts"`
	GapCounts         map[ChangeKind]int  `json:"gap_counts"`
	GeneratedCount    int                 `json:"generated_count"`

	// HighestImpact lists the top 5 assessments by score.
	HighestImpact []ImpactAssessment `json:"highest_impact"`
}

// Report is the complete output of one analysis run: the action plan
// plus every list it refers to.
type Report struct {
	Metadata    Metadata            `json:"metadata"`
	Summary     Summary             `json:"summary"`
	Assessments []ImpactAssessment  `json:"assessments"`
	Gaps        []GapEntry          `json:"gaps"`
	Generated   []GeneratedTestCase `json:"generated_test_cases"`
	Plan        ActionPlan          `json:"action_plan"`
}
