package taxonomy

import (
	"fmt"
	"strconv"
	"strings"
)

// MatchKind classifies how a tab name matched a test case.
type MatchKind string

// Match kind constants.
const (
	MatchExact   MatchKind = "exact"
	MatchFuzzy   MatchKind = "fuzzy"
	MatchKeyword MatchKind = "keyword"
)

// TabMatch links a changed tab to a candidate test case by name.
type TabMatch struct {
	Tab        string    `json:"tab"`
	TestCaseID string    `json:"test_case_id"`
	Confidence float64   `json:"confidence"`
	Kind       MatchKind `json:"kind"`
}

// LocationKind is the part of a test case where a field occurrence was
// found. The declaration order is the tie-break order.
type LocationKind int

// Location kinds.
const (
	InDescription LocationKind = iota
	InPrecondition
	InStep
)

// Location identifies a place inside a test case.
type Location struct {
	Kind LocationKind
	// Step is the step number; zero unless Kind is InStep.
	Step int
}

// StepLocation returns the location of step n.
func StepLocation(n int) Location {
	return Location{Kind: InStep, Step: n}
}

// String renders the location as "description", "precondition" or
// "step#N".
func (l Location) String() string {
	switch l.Kind {
	case InDescription:
		return "description"
	case InPrecondition:
		return "precondition"
	default:
		return fmt.Sprintf("step#%d", l.Step)
	}
}

// Less orders locations by step number, then by kind.
func (l Location) Less(o Location) bool {
	if l.Step != o.Step {
		return l.Step < o.Step
	}
	return l.Kind < o.Kind
}

// MarshalText implements encoding.TextMarshaler.
func (l Location) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Location) UnmarshalText(b []byte) error {
	s := string(b)
	switch {
	case s == "description":
		*l = Location{Kind: InDescription}
	case s == "precondition":
		*l = Location{Kind: InPrecondition}
	case strings.HasPrefix(s, "step#"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "step#"))
		if err != nil || n < 1 {
			return fmt.Errorf("invalid step location %q", s)
		}
		*l = StepLocation(n)
	default:
		return fmt.Errorf("unknown location %q", s)
	}
	return nil
}

// MatchSignal names which part of a mapping produced a field match.
type MatchSignal string

// Match signal constants, highest priority first.
const (
	SignalSampleData    MatchSignal = "sample_data"
	SignalFieldName     MatchSignal = "field_name"
	SignalCanonicalName MatchSignal = "canonical_name"
	SignalTabName       MatchSignal = "tab_name"
)

// signalRank orders field signals by multiplier priority.
var signalRank = map[MatchSignal]int{
	SignalSampleData:    0,
	SignalFieldName:     1,
	SignalCanonicalName: 2,
	SignalTabName:       3,
}

// Outranks reports whether s has a higher multiplier priority than o.
func (s MatchSignal) Outranks(o MatchSignal) bool {
	rs, ok := signalRank[s]
	if !ok {
		rs = len(signalRank)
	}
	ro, ok := signalRank[o]
	if !ok {
		ro = len(signalRank)
	}
	return rs < ro
}

// FieldMatch links one mapping change to a location inside a test case.
type FieldMatch struct {
	MappingID  string      `json:"mapping_id"`
	TestCaseID string      `json:"test_case_id"`
	Confidence float64     `json:"confidence"`
	Location   Location    `json:"location"`
	Signal     MatchSignal `json:"signal"`
}

// ImpactLevel is the severity classification of an assessment.
type ImpactLevel string

// Impact level constants.
const (
	High   ImpactLevel = "HIGH"
	Medium ImpactLevel = "MEDIUM"
	Low    ImpactLevel = "LOW"
)

// Action is the recommended action for an impacted test case.
type Action string

// Action constants.
const (
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
	ActionReview Action = "REVIEW"
)

// StepAction is the required action on one test step.
type StepAction string

// Step action constants.
const (
	StepAdd    StepAction = "add"
	StepUpdate StepAction = "update"
	StepRemove StepAction = "remove"
	StepReview StepAction = "review"
)

// ImpactScore is a numeric severity with its derived level.
type ImpactScore struct {
	Score float64     `json:"score"`
	Level ImpactLevel `json:"level"`
}

// Contribution records one weighted signal that fed an impact score:
// Value = Weight × FieldMultiplier × ConfidenceMultiplier.
type Contribution struct {
	MappingID            string      `json:"mapping_id"`
	Signal               MatchSignal `json:"signal"`
	Confidence           float64     `json:"confidence"`
	Weight               float64     `json:"weight"`
	FieldMultiplier      float64     `json:"field_multiplier"`
	ConfidenceMultiplier float64     `json:"confidence_multiplier"`
	Value                float64     `json:"value"`
}

// StepImpact is the required action on one step caused by one change.
type StepImpact struct {
	Step      int        `json:"step"`
	Action    StepAction `json:"action"`
	MappingID string     `json:"mapping_id"`

	// Pseudo marks a step that does not exist yet and must be
	// appended after the last existing step.
	Pseudo bool `json:"pseudo,omitempty"`
}

// ImpactAssessment is the explained impact of all changes on one test
// case.
type ImpactAssessment struct {
	TestCaseID   string      `json:"test_case_id"`
	TestCaseName string      `json:"test_case_name"`
	Impact       ImpactScore `json:"impact"`

	// Confidence is the highest confidence among contributing matches.
	Confidence float64 `json:"confidence"`

	// AffectedSteps lists existing step numbers, ascending, no duplicates.
	AffectedSteps []int `json:"affected_steps"`

	// CausingChanges lists the contributing changes ordered by ID.
	CausingChanges  []MappingChange `json:"causing_changes"`
	Action          Action          `json:"recommended_action"`
	Recommendations []string        `json:"recommendations"`
	Contributions   []Contribution  `json:"contributions"`
	StepImpacts     []StepImpact    `json:"step_impacts"`
}

// GapEntry is a change with no sufficiently confident match anywhere in
// the test plan.
type GapEntry struct {
	Change MappingChange `json:"change"`
	Kind   ChangeKind    `json:"kind"`
}

// GeneratedTestCase is a synthesized test case with its provenance.
type GeneratedTestCase struct {
	TestCase        TestCase `json:"test_case"`
	SourceMappingID string   `json:"source_mapping_id"`
	Tab             string   `json:"tab"`
}
