package gap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// IDGenerator produces the ID of the test case synthesized for a change.
type IDGenerator interface {
	NextID(change taxonomy.MappingChange) (string, error)
}

// Generator synthesizes test cases for uncovered additions.
type Generator struct {
	ids IDGenerator
}

// NewGenerator returns a Generator drawing IDs from ids. A nil ids makes
// every generation fail with ErrNoIDGenerator.
func NewGenerator(ids IDGenerator) *Generator {
	return &Generator{ids: ids}
}

// Generate creates one test case per added gap, ordered by source field
// and mapping ID. Gaps of other kinds are ignored. A failure for one gap
// does not stop the others; all failures are returned joined, each as a
// *GenerationError.
func (g *Generator) Generate(gaps []taxonomy.GapEntry) ([]taxonomy.GeneratedTestCase, error) {
	var added []taxonomy.MappingChange
	for _, e := range gaps {
		if e.Kind == taxonomy.Added {
			added = append(added, e.Change)
		}
	}
	sort.SliceStable(added, func(i, j int) bool {
		return lessChange(added[i], added[j])
	})

	var (
		out  []taxonomy.GeneratedTestCase
		errs []error
	)
	for _, c := range added {
		if g.ids == nil {
			errs = append(errs, &GenerationError{MappingID: c.ID, Err: ErrNoIDGenerator})
			continue
		}
		id, err := g.ids.NextID(c)
		if err != nil {
			errs = append(errs, &GenerationError{MappingID: c.ID, Err: err})
			continue
		}
		out = append(out, taxonomy.GeneratedTestCase{
			TestCase:        buildTestCase(id, c),
			SourceMappingID: c.ID,
			Tab:             c.Tab,
		})
	}
	return out, errors.Join(errs...)
}

// buildTestCase writes a three-step test case: prepare source data,
// run the mapping, verify the target field.
func buildTestCase(id string, c taxonomy.MappingChange) taxonomy.TestCase {
	source, target := c.SourceField, c.TargetField
	if source == "" {
		source = target
	}
	if target == "" {
		target = source
	}

	targetDesc := target
	if c.CanonicalName != "" {
		targetDesc = fmt.Sprintf("%s (%s)", target, c.CanonicalName)
	}

	prepare := fmt.Sprintf("Prepare a source record with representative data in %s", source)
	prepared := fmt.Sprintf("Source record is saved with %s populated", source)
	expected := fmt.Sprintf("%s contains the value mapped from %s", target, source)
	if c.SampleData != "" {
		prepare = fmt.Sprintf("Prepare a source record with %s = %q", source, c.SampleData)
		prepared = fmt.Sprintf("Source record is saved with %s = %q", source, c.SampleData)
		expected = fmt.Sprintf("%s contains the value mapped from %q", target, c.SampleData)
	}

	desc := fmt.Sprintf("Verify the new mapping of %s to %s", source, targetDesc)
	if c.Tab != "" {
		desc += fmt.Sprintf(" in %s", c.Tab)
	}

	return taxonomy.TestCase{
		ID:           id,
		Name:         fmt.Sprintf("%s to %s mapping", source, target),
		Description:  desc + ".",
		Precondition: fmt.Sprintf("Source system is available and ready to provide %s.", source),
		Steps: []taxonomy.TestStep{
			{Number: 1, Description: prepare, ExpectedResult: prepared},
			{
				Number:         2,
				Description:    fmt.Sprintf("Trigger the mapping from %s to %s", source, target),
				ExpectedResult: "Mapping run completes without errors",
			},
			{
				Number:         3,
				Description:    fmt.Sprintf("Verify target field %s", targetDesc),
				ExpectedResult: expected,
			},
		},
	}
}
