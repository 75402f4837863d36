package gap

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

type counterIDs struct{ n int }

func (c *counterIDs) NextID(taxonomy.MappingChange) (string, error) {
	c.n++
	return fmt.Sprintf("TC-%03d", c.n), nil
}

type failingIDs struct{}

func (failingIDs) NextID(c taxonomy.MappingChange) (string, error) {
	if c.SourceField == "BAD" {
		return "", errors.New("exhausted")
	}
	return "TC-100", nil
}

func TestFind(t *testing.T) {
	changes := []taxonomy.MappingChange{
		{ID: "mc-1", SourceField: "ZZZ", Kind: taxonomy.Added},
		{ID: "mc-2", SourceField: "AAA", Kind: taxonomy.Deleted},
		{ID: "mc-3", SourceField: "MMM", Kind: taxonomy.Modified},
		{ID: "mc-4", SourceField: "BBB", Kind: taxonomy.Unchanged},
	}
	assessments := []taxonomy.ImpactAssessment{
		{TestCaseID: "TC-1", Impact: taxonomy.ImpactScore{Level: taxonomy.Low}, CausingChanges: []taxonomy.MappingChange{changes[2]}},
	}

	got := Find(changes, assessments)

	var ids []string
	for _, g := range got {
		ids = append(ids, g.Change.ID)
		if g.Kind != g.Change.Kind {
			t.Errorf("gap %s kind %s does not match change kind %s", g.Change.ID, g.Kind, g.Change.Kind)
		}
	}
	if diff := cmp.Diff([]string{"mc-2", "mc-1"}, ids); diff != "" {
		t.Errorf("gaps mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerate_AddedGapHasThreeSteps(t *testing.T) {
	gaps := []taxonomy.GapEntry{
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{
			ID: "mc-1", Tab: "Vendor Bank", SourceField: "BANKN", TargetField: "AccountNumber",
			CanonicalName: "Bank Account", SampleData: "DE1234", Kind: taxonomy.Added,
		}},
		{Kind: taxonomy.Deleted, Change: taxonomy.MappingChange{ID: "mc-2", SourceField: "OLD", Kind: taxonomy.Deleted}},
	}

	got, err := NewGenerator(&counterIDs{}).Generate(gaps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 generated test case, got %d", len(got))
	}
	g := got[0]
	if g.SourceMappingID != "mc-1" || g.Tab != "Vendor Bank" {
		t.Errorf("provenance = %s/%s", g.SourceMappingID, g.Tab)
	}
	tc := g.TestCase
	if tc.ID != "TC-001" {
		t.Errorf("ID = %q, want TC-001", tc.ID)
	}
	if tc.Name != "BANKN to AccountNumber mapping" {
		t.Errorf("Name = %q", tc.Name)
	}
	if len(tc.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(tc.Steps))
	}
	for i, s := range tc.Steps {
		if s.Number != i+1 {
			t.Errorf("step %d numbered %d", i, s.Number)
		}
	}
	if !strings.Contains(tc.Steps[0].Description, `"DE1234"`) {
		t.Errorf("step 1 should use the sample data: %q", tc.Steps[0].Description)
	}
	if !strings.Contains(tc.Steps[2].Description, "AccountNumber (Bank Account)") {
		t.Errorf("step 3 should name target and canonical name: %q", tc.Steps[2].Description)
	}
	if !strings.Contains(tc.Precondition, "BANKN") {
		t.Errorf("precondition should name the source field: %q", tc.Precondition)
	}
}

func TestGenerate_OrderedBySourceField(t *testing.T) {
	gaps := []taxonomy.GapEntry{
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-9", SourceField: "B", Kind: taxonomy.Added}},
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-8", SourceField: "A", Kind: taxonomy.Added}},
	}
	got, err := NewGenerator(&counterIDs{}).Generate(gaps)
	if err != nil {
		t.Fatal(err)
	}
	if got[0].SourceMappingID != "mc-8" || got[0].TestCase.ID != "TC-001" {
		t.Errorf("expected mc-8 first with TC-001, got %+v", got[0])
	}
}

func TestGenerate_NoIDGenerator(t *testing.T) {
	gaps := []taxonomy.GapEntry{
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-1", SourceField: "A", Kind: taxonomy.Added}},
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-2", SourceField: "B", Kind: taxonomy.Added}},
	}
	got, err := NewGenerator(nil).Generate(gaps)
	if len(got) != 0 {
		t.Errorf("expected no generated cases, got %d", len(got))
	}
	if !errors.Is(err, ErrNoIDGenerator) {
		t.Fatalf("expected ErrNoIDGenerator, got %v", err)
	}
	var ge *GenerationError
	if !errors.As(err, &ge) || ge.MappingID != "mc-1" {
		t.Errorf("expected GenerationError for mc-1, got %v", err)
	}
}

func TestGenerate_FailureDoesNotStopOthers(t *testing.T) {
	gaps := []taxonomy.GapEntry{
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-1", SourceField: "BAD", Kind: taxonomy.Added}},
		{Kind: taxonomy.Added, Change: taxonomy.MappingChange{ID: "mc-2", SourceField: "GOOD", Kind: taxonomy.Added}},
	}
	got, err := NewGenerator(failingIDs{}).Generate(gaps)
	if err == nil || !strings.Contains(err.Error(), "mc-1") {
		t.Errorf("expected error naming mc-1, got %v", err)
	}
	if len(got) != 1 || got[0].SourceMappingID != "mc-2" {
		t.Errorf("expected mc-2 generated, got %+v", got)
	}
}

func TestBuildTestCase_TargetOnly(t *testing.T) {
	tc := buildTestCase("X-1", taxonomy.MappingChange{TargetField: "City"})
	if tc.Name != "City to City mapping" {
		t.Errorf("Name = %q", tc.Name)
	}
}
