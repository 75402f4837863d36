// Package taxonomy defines the canonical document models, the derived
// match and impact structures, and stable ID generation shared by every
// stage of the impact analysis.
package taxonomy

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChangeKind enumerates how a mapping differs between two STTM revisions.
type ChangeKind string

// Change kind constants.
const (
	Added     ChangeKind = "added"
	Deleted   ChangeKind = "deleted"
	Modified  ChangeKind = "modified"
	Unchanged ChangeKind = "unchanged"
)

// TabCategory summarizes the kinds of change present in one tab.
type TabCategory string

// Tab category constants.
const (
	CategoryMixed             TabCategory = "mixed"
	CategoryAdditionsOnly     TabCategory = "additions_only"
	CategoryDeletionsOnly     TabCategory = "deletions_only"
	CategoryModificationsOnly TabCategory = "modifications_only"
	CategoryUnchanged         TabCategory = "unchanged"
)

// Column keys under which a mapping document names each mapping
// column, in lookup order.
var (
	SourceFieldKeys   = []string{"Source Field", "source_field"}
	TargetFieldKeys   = []string{"Target Field", "target_field"}
	CanonicalNameKeys = []string{"Source Canonical Name", "Target Canonical Name", "canonical_name"}
	SampleDataKeys    = []string{"source_sample_data", "target_sample_data", "sample_data"}
)

// columnSignals maps every folded column key to the difference signal a
// change of that column carries.
var columnSignals = func() map[string]MatchSignal {
	m := make(map[string]MatchSignal)
	add := func(keys []string, sig MatchSignal) {
		for _, k := range keys {
			m[foldColumn(k)] = sig
		}
	}
	add(SourceFieldKeys, SignalFieldName)
	add(TargetFieldKeys, SignalFieldName)
	add(CanonicalNameKeys, SignalCanonicalName)
	add(SampleDataKeys, SignalSampleData)
	return m
}()

// foldColumn reduces a column key to lowercase with spaces, hyphens and
// underscores removed, so "Source Field" and "source_field" agree.
func foldColumn(k string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(k)))
}

// MappingChange is a single source-to-target field mapping together
// with how it changed.
type MappingChange struct {
	// ID is a stable identifier derived from the tab, fields and kind.
	ID string `json:"id"`

	// Tab is the name of the tab the mapping belongs to.
	Tab string `json:"tab"`

	SourceField   string     `json:"source_field"`
	TargetField   string     `json:"target_field"`
	CanonicalName string     `json:"canonical_name,omitempty"`
	SampleData    string     `json:"sample_data,omitempty"`
	Kind          ChangeKind `json:"change_kind"`

	// ModifiedFields lists the mapping columns that changed. Only
	// populated for modifications.
	ModifiedFields []string          `json:"modified_fields,omitempty"`
	OriginalValues map[string]string `json:"original_values,omitempty"`
	NewValues      map[string]string `json:"new_values,omitempty"`
}

// String renders the mapping as "source -> target".
func (m MappingChange) String() string {
	return fmt.Sprintf("%s -> %s", m.SourceField, m.TargetField)
}

// HasFields reports whether the mapping identifies at least one of its
// source or target fields. Mappings without either cannot be matched.
func (m MappingChange) HasFields() bool {
	return strings.TrimSpace(m.SourceField) != "" || strings.TrimSpace(m.TargetField) != ""
}

// IsChange reports whether the mapping carries an actual change.
func (m MappingChange) IsChange() bool {
	return m.Kind != Unchanged && m.Kind != ""
}

// DifferenceSignal returns the highest-priority kind of mapping column
// a modification changed: sample data, then field name, then canonical
// name. Only the known column keys count. It returns the empty signal
// for additions, deletions and modifications of other columns.
func (m MappingChange) DifferenceSignal() MatchSignal {
	if m.Kind != Modified {
		return ""
	}
	var field, canonical bool
	for _, f := range m.ModifiedFields {
		switch columnSignals[foldColumn(f)] {
		case SignalSampleData:
			return SignalSampleData
		case SignalFieldName:
			field = true
		case SignalCanonicalName:
			canonical = true
		}
	}
	switch {
	case field:
		return SignalFieldName
	case canonical:
		return SignalCanonicalName
	}
	return ""
}

// Tab is a named group of mappings for one integration area.
type Tab struct {
	Name         string          `json:"name"`
	Category     TabCategory     `json:"category"`
	SourceSystem string          `json:"source_system,omitempty"`
	TargetSystem string          `json:"target_system,omitempty"`
	Mappings     []MappingChange `json:"mappings"`
}

// Changes returns the tab's mappings whose kind is not unchanged, in
// document order.
func (t Tab) Changes() []MappingChange {
	var out []MappingChange
	for _, m := range t.Mappings {
		if m.IsChange() {
			out = append(out, m)
		}
	}
	return out
}

// HasChanges reports whether the tab contains at least one change.
func (t Tab) HasChanges() bool {
	for _, m := range t.Mappings {
		if m.IsChange() {
			return true
		}
	}
	return false
}

// ChangeSummary renders counts such as "1 added, 2 deleted".
func (t Tab) ChangeSummary() string {
	counts := make(map[ChangeKind]int)
	for _, m := range t.Mappings {
		counts[m.Kind]++
	}
	var parts []string
	for _, k := range []ChangeKind{Added, Deleted, Modified} {
		if counts[k] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
		}
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}

// CategorizeTab derives the tab category from its mappings.
func CategorizeTab(mappings []MappingChange) TabCategory {
	var added, deleted, modified bool
	for _, m := range mappings {
		switch m.Kind {
		case Added:
			added = true
		case Deleted:
			deleted = true
		case Modified:
			modified = true
		}
	}
	n := 0
	for _, b := range []bool{added, deleted, modified} {
		if b {
			n++
		}
	}
	switch {
	case n == 0:
		return CategoryUnchanged
	case n > 1:
		return CategoryMixed
	case added:
		return CategoryAdditionsOnly
	case deleted:
		return CategoryDeletionsOnly
	default:
		return CategoryModificationsOnly
	}
}

// MappingDocument is the canonical STTM difference document.
type MappingDocument struct {
	// FormatVersion names the input format the document was extracted
	// from.
	FormatVersion string `json:"format_version"`

	Tabs []Tab `json:"tabs"`
}

// ChangedTabs returns the tabs that contain at least one change.
func (d *MappingDocument) ChangedTabs() []Tab {
	var out []Tab
	for _, t := range d.Tabs {
		if t.HasChanges() {
			out = append(out, t)
		}
	}
	return out
}

// TabByName finds a tab by case-insensitive name.
func (d *MappingDocument) TabByName(name string) (Tab, bool) {
	for _, t := range d.Tabs {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Tab{}, false
}

// Changes returns every change across all tabs in document order.
func (d *MappingDocument) Changes() []MappingChange {
	var out []MappingChange
	for _, t := range d.Tabs {
		out = append(out, t.Changes()...)
	}
	return out
}

// DocumentSummary holds aggregate counts for a mapping document.
type DocumentSummary struct {
	TotalTabs      int                 `json:"total_tabs"`
	ChangedTabs    int                 `json:"changed_tabs"`
	UnchangedTabs  int                 `json:"unchanged_tabs"`
	TotalMappings  int                 `json:"total_mappings"`
	TotalChanges   int                 `json:"total_changes"`
	TabsByCategory map[TabCategory]int `json:"tabs_by_category"`
}

// Summary computes the document's aggregate counts.
func (d *MappingDocument) Summary() DocumentSummary {
	s := DocumentSummary{
		TotalTabs:      len(d.Tabs),
		TabsByCategory: make(map[TabCategory]int),
	}
	for _, t := range d.Tabs {
		s.TotalMappings += len(t.Mappings)
		n := len(t.Changes())
		s.TotalChanges += n
		if n > 0 {
			s.ChangedTabs++
			s.TabsByCategory[t.Category]++
		} else {
			s.UnchangedTabs++
		}
	}
	return s
}

// TestStep is one ordered step of a test case.
type TestStep struct {
	Number         int    `json:"number"`
	Description    string `json:"description"`
	ExpectedResult string `json:"expected_result"`
}

// TestCase is one entry of an exported test plan.
type TestCase struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Precondition string     `json:"precondition"`
	Steps        []TestStep `json:"steps"`
}

// LastStepNumber returns the highest step number, or 0 when the test
// case has no steps.
func (tc TestCase) LastStepNumber() int {
	last := 0
	for _, s := range tc.Steps {
		if s.Number > last {
			last = s.Number
		}
	}
	return last
}

// TestPlan is the canonical test-plan document.
type TestPlan struct {
	TestCases []TestCase `json:"test_cases"`

	// IDPattern is the detected ID pattern (e.g. "TC-{0000}").
	IDPattern string `json:"id_pattern"`

	// IDPatternDescription explains IDPattern in words.
	IDPatternDescription string `json:"id_pattern_description"`
}

// PlanSummary holds aggregate counts for a test plan.
type PlanSummary struct {
	TotalTestCases      int     `json:"total_test_cases"`
	TotalTestSteps      int     `json:"total_test_steps"`
	AverageStepsPerTest float64 `json:"average_steps_per_test"`
	IDPattern           string  `json:"id_pattern"`
}

// Summary computes the plan's aggregate counts.
func (p *TestPlan) Summary() PlanSummary {
	s := PlanSummary{
		TotalTestCases: len(p.TestCases),
		IDPattern:      p.IDPattern,
	}
	for _, tc := range p.TestCases {
		s.TotalTestSteps += len(tc.Steps)
	}
	if s.TotalTestCases > 0 {
		s.AverageStepsPerTest = float64(s.TotalTestSteps) / float64(s.TotalTestCases)
	}
	return s
}

// Metadata holds analysis run metadata.
type Metadata struct {
	ToolVersion string        `json:"tool_version"`
	GoVersion   string        `json:"go_version"`
	Preset      string        `json:"preset,omitempty"`
	Timestamp   time.Time     `json:"-"`
	Duration    time.Duration `json:"-"`
	Warnings    []string      `json:"warnings"`
}

// MarshalJSON customizes JSON encoding to use duration_ms and
// ISO 8601 timestamp.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type Alias Metadata
	ts := ""
	if !m.Timestamp.IsZero() {
		ts = m.Timestamp.UTC().Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		Alias
		DurationMS int64  `json:"duration_ms"`
		Timestamp  string `json:"timestamp,omitempty"`
	}{
		Alias:      Alias(m),
		DurationMS: m.Duration.Milliseconds(),
		Timestamp:  ts,
	})
}

// GenerateID produces a stable, deterministic ID for a mapping change
// based on its context. The ID is a sha256 hash truncated to 8 hex
// characters, prefixed with "mc-".
func GenerateID(tab, source, target string, kind ChangeKind) string {
	input := fmt.Sprintf("%s:%s:%s:%s", tab, source, target, kind)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("mc-%x", hash[:4])
}
