package taxonomy

// Priority is the action plan tier, 1 (most urgent) through 5.
type Priority int

// Action plan tiers.
const (
	PriorityHighImpact   Priority = 1
	PriorityMediumImpact Priority = 2
	PriorityLowImpact    Priority = 3
	PriorityNewCoverage  Priority = 4
	PriorityCleanup      Priority = 5
)

// PriorityOf returns the action plan tier for an impact level.
func PriorityOf(level ImpactLevel) Priority {
	p, ok := levelPriority[level]
	if !ok {
		return PriorityLowImpact // unknown levels sort with LOW
	}
	return p
}

var levelPriority = map[ImpactLevel]Priority{
	High:   PriorityHighImpact,
	Medium: PriorityMediumImpact,
	Low:    PriorityLowImpact,
}

// ItemKind identifies what an action item refers to.
type ItemKind string

// Action item kinds.
const (
	ItemAssessment ItemKind = "assessment"
	ItemGenerated  ItemKind = "generated_test_case"
	ItemGap        ItemKind = "gap"
)

// ActionItem is one prioritized entry of the action plan. It carries
// the identifiers of the entity it refers to plus the values used to
// order it, so reporters never re-derive scores or orderings.
type ActionItem struct {
	Priority   Priority    `json:"priority"`
	Kind       ItemKind    `json:"kind"`
	TestCaseID string      `json:"test_case_id,omitempty"`
	MappingID  string      `json:"mapping_id,omitempty"`
	Title      string      `json:"title"`
	Action     string      `json:"action"`
	Score      float64     `json:"score,omitempty"`
	Level      ImpactLevel `json:"level,omitempty"`
}

// ActionPlan is the ordered list of action items.
type ActionPlan struct {
	Items []ActionItem `json:"items"`
}

// CountByPriority returns the number of items in each tier.
func (p ActionPlan) CountByPriority() map[Priority]int {
	counts := make(map[Priority]int)
	for _, it := range p.Items {
		counts[it.Priority]++
	}
	return counts
}
