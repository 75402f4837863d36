// Package gap finds mapping changes that no existing test case covers
// and synthesizes test cases for uncovered additions.
package gap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// ErrNoIDGenerator is the cause of a GenerationError when no ID
// generation strategy is available.
var ErrNoIDGenerator = errors.New("no test case ID generator available")

// GenerationError reports that the test case for one gap could not be
// generated.
type GenerationError struct {
	MappingID string
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating test case for mapping %s: %v", e.MappingID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Find returns one GapEntry per change that contributes to no
// assessment, whatever the assessment's level. Unchanged mappings are
// never gaps. Entries are ordered by source field, then mapping ID.
func Find(changes []taxonomy.MappingChange, assessments []taxonomy.ImpactAssessment) []taxonomy.GapEntry {
	covered := make(map[string]bool)
	for _, a := range assessments {
		for _, c := range a.CausingChanges {
			covered[c.ID] = true
		}
	}

	var gaps []taxonomy.GapEntry
	for _, c := range changes {
		if !c.IsChange() || covered[c.ID] {
			continue
		}
		gaps = append(gaps, taxonomy.GapEntry{Change: c, Kind: c.Kind})
	}
	sort.SliceStable(gaps, func(i, j int) bool {
		return lessChange(gaps[i].Change, gaps[j].Change)
	})
	return gaps
}

// lessChange orders changes by source field, then ID.
func lessChange(a, b taxonomy.MappingChange) bool {
	if a.SourceField != b.SourceField {
		return a.SourceField < b.SourceField
	}
	return a.ID < b.ID
}
