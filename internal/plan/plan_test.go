package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

func assessment(id string, score float64, level taxonomy.ImpactLevel) taxonomy.ImpactAssessment {
	return taxonomy.ImpactAssessment{
		TestCaseID: id,
		Impact:     taxonomy.ImpactScore{Score: score, Level: level},
		Action:     taxonomy.ActionUpdate,
	}
}

func TestBuild_TiersAndOrdering(t *testing.T) {
	assessments := []taxonomy.ImpactAssessment{
		assessment("TC-5", 2.4, taxonomy.Low),
		assessment("TC-2", 9.6, taxonomy.High),
		assessment("TC-1", 9.6, taxonomy.High),
		assessment("TC-3", 12, taxonomy.High),
		assessment("TC-4", 5, taxonomy.Medium),
	}
	gaps := []taxonomy.GapEntry{
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-a", SourceField: "ZIP", Kind: taxonomy.Added}},
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-b", SourceField: "BANKN", Kind: taxonomy.Added}},
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-f", SourceField: "FAILED", Kind: taxonomy.Added}},
		{Kind: taxonomy.Deleted, Change: taxonomy.MappingChange{ID: "mc-c", SourceField: "AAA", Kind: taxonomy.Deleted}},
	}
	generated := []taxonomy.GeneratedTestCase{
		{TestCase: taxonomy.TestCase{ID: "TC-100"}, SourceMappingID: "mc-a"},
		{TestCase: taxonomy.TestCase{ID: "TC-101"}, SourceMappingID: "mc-b"},
	}

	p := Build(assessments, generated, gaps)

	type key struct {
		Priority taxonomy.Priority
		ID       string
	}
	var got []key
	for _, it := range p.Items {
		id := it.TestCaseID
		if it.Kind == taxonomy.ItemGap {
			id = it.MappingID
		}
		got = append(got, key{it.Priority, id})
	}
	want := []key{
		{1, "TC-3"}, {1, "TC-1"}, {1, "TC-2"},
		{2, "TC-4"},
		{3, "TC-5"},
		{4, "TC-101"}, {4, "TC-100"},
		{5, "mc-c"}, {5, "mc-f"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("plan order mismatch (-want +got):\n%s", diff)
	}

	counts := p.CountByPriority()
	if counts[taxonomy.PriorityHighImpact] != 3 || counts[taxonomy.PriorityCleanup] != 2 {
		t.Errorf("unexpected tier counts: %v", counts)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	assessments := []taxonomy.ImpactAssessment{
		assessment("TC-2", 1, taxonomy.Low),
		assessment("TC-1", 9, taxonomy.High),
	}
	Build(assessments, nil, nil)
	if assessments[0].TestCaseID != "TC-2" {
		t.Error("Build must not reorder its input")
	}
}

func TestBuild_Empty(t *testing.T) {
	p := Build(nil, nil, nil)
	if p.Items == nil || len(p.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", p.Items)
	}
}
