package impact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

func vendorCase() taxonomy.TestCase {
	return taxonomy.TestCase{
		ID:   "TC-010",
		Name: "Vendor master transfer",
		Steps: []taxonomy.TestStep{
			{Number: 1, Description: "Create vendor"},
			{Number: 2, Description: "Check LIFNR"},
			{Number: 3, Description: "Check VendorName"},
		},
	}
}

func TestAssess_DeletedHighConfidenceStepMatch(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	change := taxonomy.MappingChange{ID: "mc-del", Tab: "Vendors", SourceField: "LIFNR", TargetField: "VendorId", Kind: taxonomy.Deleted}
	ev := Evidence{FieldMatches: []taxonomy.FieldMatch{
		{MappingID: "mc-del", TestCaseID: "TC-010", Confidence: 0.95, Location: taxonomy.StepLocation(2), Signal: taxonomy.SignalFieldName},
	}}

	a := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, ev)

	if a.Impact.Score != 12.0 {
		t.Errorf("score = %v, want 12.0", a.Impact.Score)
	}
	if a.Impact.Level != taxonomy.High {
		t.Errorf("level = %s, want HIGH", a.Impact.Level)
	}
	if a.Action != taxonomy.ActionDelete {
		t.Errorf("action = %s, want DELETE", a.Action)
	}
	if a.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", a.Confidence)
	}
	want := []string{"DELETE field LIFNR→VendorId (deleted, confidence 0.95)"}
	if diff := cmp.Diff(want, a.Recommendations); diff != "" {
		t.Errorf("recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestAssess_DeletedWithoutStepMatchIsReview(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	change := taxonomy.MappingChange{ID: "mc-del", SourceField: "LIFNR", TargetField: "VendorId", Kind: taxonomy.Deleted}
	ev := Evidence{FieldMatches: []taxonomy.FieldMatch{
		{MappingID: "mc-del", TestCaseID: "TC-010", Confidence: 1, Location: taxonomy.Location{Kind: taxonomy.InDescription}, Signal: taxonomy.SignalFieldName},
	}}
	a := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, ev)
	if a.Action != taxonomy.ActionReview {
		t.Errorf("action = %s, want REVIEW", a.Action)
	}
}

func TestAssess_SampleDataModification(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	change := taxonomy.MappingChange{
		ID: "mc-mod", SourceField: "NAME1", TargetField: "VendorName", Kind: taxonomy.Modified,
		ModifiedFields: []string{"Target Field", "source_sample_data"},
	}
	ev := Evidence{FieldMatches: []taxonomy.FieldMatch{
		{MappingID: "mc-mod", TestCaseID: "TC-010", Confidence: 1, Location: taxonomy.StepLocation(3), Signal: taxonomy.SignalFieldName},
	}}
	a := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, ev)

	// 5.0 × 1.6 × 1.2
	if a.Impact.Score != 9.6 || a.Impact.Level != taxonomy.High {
		t.Errorf("impact = %+v, want 9.6 HIGH", a.Impact)
	}
	if a.Action != taxonomy.ActionUpdate {
		t.Errorf("action = %s, want UPDATE", a.Action)
	}
	if got := a.Contributions[0].FieldMultiplier; got != 1.6 {
		t.Errorf("field multiplier = %v, want 1.6", got)
	}
}

func TestAssess_TabAndFieldAreIndependent(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	change := taxonomy.MappingChange{
		ID: "mc-mod", Tab: "Vendors", SourceField: "ORT01", TargetField: "City", Kind: taxonomy.Modified,
		ModifiedFields: []string{"transformation_rule"},
	}
	ev := Evidence{
		TabMatches: []taxonomy.TabMatch{
			{Tab: "Vendors", TestCaseID: "TC-010", Confidence: 1, Kind: taxonomy.MatchExact},
		},
		FieldMatches: []taxonomy.FieldMatch{
			{MappingID: "mc-mod", TestCaseID: "TC-010", Confidence: 0.8, Location: taxonomy.Location{Kind: taxonomy.InPrecondition}, Signal: taxonomy.SignalFieldName},
		},
	}
	a := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, ev)

	// field 5 × 1.0 × 1.0 + tab 5 × 1.0 × 1.2
	if a.Impact.Score != 11 {
		t.Errorf("score = %v, want 11", a.Impact.Score)
	}
	if len(a.Contributions) != 2 || len(a.CausingChanges) != 1 {
		t.Errorf("expected 2 contributions from 1 change, got %d from %d",
			len(a.Contributions), len(a.CausingChanges))
	}
	if a.Confidence != 1 {
		t.Errorf("confidence = %v, want 1", a.Confidence)
	}
}

func TestAssess_KeywordTabMatchThreshold(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	change := taxonomy.MappingChange{ID: "mc-add", Tab: "Vendor Bank Details", SourceField: "BANKN", TargetField: "AccountNo", Kind: taxonomy.Added}

	accepted := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, Evidence{TabMatches: []taxonomy.TabMatch{
		{Tab: "Vendor Bank Details", TestCaseID: "TC-010", Confidence: 0.65, Kind: taxonomy.MatchKeyword},
	}})
	// 3.0 × 1.0 × 0.8
	if accepted.Impact.Score != 2.4 || accepted.Impact.Level != taxonomy.Low {
		t.Errorf("impact = %+v, want 2.4 LOW", accepted.Impact)
	}
	if accepted.Action != taxonomy.ActionReview {
		t.Errorf("action = %s, want REVIEW", accepted.Action)
	}

	rejected := s.Assess(vendorCase(), []taxonomy.MappingChange{change}, Evidence{TabMatches: []taxonomy.TabMatch{
		{Tab: "Vendor Bank Details", TestCaseID: "TC-010", Confidence: 0.5, Kind: taxonomy.MatchKeyword},
	}})
	if rejected.Impact.Score != 0 || len(rejected.CausingChanges) != 0 {
		t.Errorf("keyword match below content threshold should not contribute: %+v", rejected)
	}
}

func TestAssess_IgnoresOtherTestCasesAndUnchanged(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	changes := []taxonomy.MappingChange{
		{ID: "mc-1", SourceField: "LIFNR", Kind: taxonomy.Unchanged},
		{ID: "mc-2", SourceField: "NAME1", Kind: taxonomy.Modified},
	}
	ev := Evidence{FieldMatches: []taxonomy.FieldMatch{
		{MappingID: "mc-1", TestCaseID: "TC-010", Confidence: 1, Location: taxonomy.StepLocation(2)},
		{MappingID: "mc-2", TestCaseID: "TC-999", Confidence: 1, Location: taxonomy.StepLocation(1)},
	}}
	a := s.Assess(vendorCase(), changes, ev)
	if a.Impact.Score != 0 || len(a.CausingChanges) != 0 {
		t.Errorf("expected empty assessment, got %+v", a)
	}
	if a.Impact.Level != taxonomy.Low || a.TestCaseID != "TC-010" {
		t.Errorf("zero assessment should still be produced: %+v", a)
	}
}

func TestAssess_CausingChangesOrderedByID(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	changes := []taxonomy.MappingChange{
		{ID: "mc-b", SourceField: "B", Kind: taxonomy.Added},
		{ID: "mc-a", SourceField: "A", Kind: taxonomy.Modified},
	}
	ev := Evidence{FieldMatches: []taxonomy.FieldMatch{
		{MappingID: "mc-b", TestCaseID: "TC-010", Confidence: 1, Location: taxonomy.StepLocation(1)},
		{MappingID: "mc-a", TestCaseID: "TC-010", Confidence: 1, Location: taxonomy.StepLocation(1)},
	}}
	a := s.Assess(vendorCase(), changes, ev)
	if len(a.CausingChanges) != 2 || a.CausingChanges[0].ID != "mc-a" {
		t.Errorf("causing changes not ordered by ID: %+v", a.CausingChanges)
	}
}

func TestConfidenceMultiplier_Boundaries(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	tests := []struct {
		conf float64
		want float64
	}{
		{1.0, 1.2},
		{0.91, 1.2},
		{0.9, 1.0},
		{0.7, 1.0},
		{0.69, 0.8},
		{0.0, 0.8},
	}
	for _, tt := range tests {
		if got := s.ConfidenceMultiplier(tt.conf); got != tt.want {
			t.Errorf("ConfidenceMultiplier(%v) = %v, want %v", tt.conf, got, tt.want)
		}
	}
}

func TestClassifyLevel_Boundaries(t *testing.T) {
	cfg := config.DefaultConfig().ImpactScoring
	tests := []struct {
		score float64
		want  taxonomy.ImpactLevel
	}{
		{8.0, taxonomy.High},
		{7.9999, taxonomy.Medium},
		{4.0, taxonomy.Medium},
		{3.9999, taxonomy.Low},
		{0, taxonomy.Low},
	}
	for _, tt := range tests {
		if got := ClassifyLevel(tt.score, cfg); got != tt.want {
			t.Errorf("ClassifyLevel(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassifyLevel_PureFunctionOfScore(t *testing.T) {
	cfg := config.DefaultConfig().ImpactScoring
	rapid.Check(t, func(t *rapid.T) {
		score := rapid.Float64Range(0, 50).Draw(t, "score")
		var want taxonomy.ImpactLevel
		switch {
		case score >= 8.0:
			want = taxonomy.High
		case score >= 4.0:
			want = taxonomy.Medium
		default:
			want = taxonomy.Low
		}
		if got := ClassifyLevel(score, cfg); got != want {
			t.Fatalf("ClassifyLevel(%v) = %s, want %s", score, got, want)
		}
	})
}

func TestAssess_LevelMatchesScore_Property(t *testing.T) {
	s := NewScorer(config.DefaultConfig())
	kinds := []taxonomy.ChangeKind{taxonomy.Added, taxonomy.Deleted, taxonomy.Modified, taxonomy.Unchanged}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 6).Draw(t, "changes")
		var (
			changes []taxonomy.MappingChange
			ev      Evidence
		)
		for i := 0; i < n; i++ {
			id := taxonomy.GenerateID("T", string(rune('A'+i)), "X", taxonomy.Added)
			changes = append(changes, taxonomy.MappingChange{
				ID:   id,
				Kind: rapid.SampledFrom(kinds).Draw(t, "kind"),
			})
			if rapid.Bool().Draw(t, "matched") {
				ev.FieldMatches = append(ev.FieldMatches, taxonomy.FieldMatch{
					MappingID:  id,
					TestCaseID: "TC-010",
					Confidence: rapid.Float64Range(0.01, 1).Draw(t, "confidence"),
					Location:   taxonomy.StepLocation(rapid.IntRange(1, 3).Draw(t, "step")),
				})
			}
		}
		a := s.Assess(vendorCase(), changes, ev)
		if a.Impact.Score < 0 {
			t.Fatalf("negative score %v", a.Impact.Score)
		}
		if got := ClassifyLevel(a.Impact.Score, config.DefaultConfig().ImpactScoring); got != a.Impact.Level {
			t.Fatalf("level %s does not follow score %v", a.Impact.Level, a.Impact.Score)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Fatalf("confidence %v out of range", a.Confidence)
		}
	})
}

func TestAnalyzeSteps(t *testing.T) {
	tc := vendorCase()
	a := taxonomy.ImpactAssessment{
		TestCaseID: tc.ID,
		CausingChanges: []taxonomy.MappingChange{
			{ID: "mc-a", Kind: taxonomy.Deleted},
			{ID: "mc-b", Kind: taxonomy.Modified},
			{ID: "mc-c", Kind: taxonomy.Added},
			{ID: "mc-d", Kind: taxonomy.Added},
			{ID: "mc-e", Kind: taxonomy.Modified},
		},
	}
	matches := []taxonomy.FieldMatch{
		{MappingID: "mc-a", TestCaseID: tc.ID, Location: taxonomy.StepLocation(2)},
		{MappingID: "mc-a", TestCaseID: tc.ID, Location: taxonomy.StepLocation(2)},
		{MappingID: "mc-b", TestCaseID: tc.ID, Location: taxonomy.StepLocation(3)},
		{MappingID: "mc-b", TestCaseID: tc.ID, Location: taxonomy.StepLocation(1)},
		{MappingID: "mc-c", TestCaseID: tc.ID, Location: taxonomy.StepLocation(1)},
		{MappingID: "mc-e", TestCaseID: tc.ID, Location: taxonomy.Location{Kind: taxonomy.InDescription}},
		{MappingID: "mc-e", TestCaseID: "TC-999", Location: taxonomy.StepLocation(2)},
	}

	AnalyzeSteps(&a, tc, matches)

	wantSteps := []int{1, 2, 3}
	if diff := cmp.Diff(wantSteps, a.AffectedSteps); diff != "" {
		t.Errorf("affected steps mismatch (-want +got):\n%s", diff)
	}
	wantImpacts := []taxonomy.StepImpact{
		{Step: 1, Action: taxonomy.StepUpdate, MappingID: "mc-b"},
		{Step: 1, Action: taxonomy.StepReview, MappingID: "mc-c"},
		{Step: 2, Action: taxonomy.StepRemove, MappingID: "mc-a"},
		{Step: 3, Action: taxonomy.StepUpdate, MappingID: "mc-b"},
		{Step: 4, Action: taxonomy.StepAdd, MappingID: "mc-d", Pseudo: true},
	}
	if diff := cmp.Diff(wantImpacts, a.StepImpacts); diff != "" {
		t.Errorf("step impacts mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeSteps_PseudoStepsAppendInOrder(t *testing.T) {
	tc := taxonomy.TestCase{ID: "TC-1"}
	a := taxonomy.ImpactAssessment{
		TestCaseID: "TC-1",
		CausingChanges: []taxonomy.MappingChange{
			{ID: "mc-a", Kind: taxonomy.Added},
			{ID: "mc-b", Kind: taxonomy.Added},
		},
	}
	AnalyzeSteps(&a, tc, nil)
	if len(a.StepImpacts) != 2 || a.StepImpacts[0].Step != 1 || a.StepImpacts[1].Step != 2 {
		t.Errorf("expected pseudo-steps 1 and 2, got %+v", a.StepImpacts)
	}
	if len(a.AffectedSteps) != 0 {
		t.Errorf("pseudo-steps must not be affected steps: %v", a.AffectedSteps)
	}
}
