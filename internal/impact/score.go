// Package impact scores how strongly mapping changes affect a test case
// and attributes the impact to individual test steps.
package impact

import (
	"fmt"
	"math"
	"sort"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// scorePrecision is the number of decimals scores are rounded to before
// classification.
const scorePrecision = 1e4

// Confidence multiplier boundaries.
const (
	highConfidenceAbove  = 0.9
	mediumConfidenceFrom = 0.7
)

// Evidence holds the matches that reference one test case.
type Evidence struct {
	TabMatches   []taxonomy.TabMatch
	FieldMatches []taxonomy.FieldMatch
}

// Scorer aggregates the matches of a test case into an assessment.
type Scorer struct {
	scoring  config.ScoringConfig
	matching config.MatchingConfig
}

// NewScorer returns a Scorer for the given configuration.
func NewScorer(cfg config.Config) *Scorer {
	return &Scorer{scoring: cfg.ImpactScoring, matching: cfg.Matching}
}

// ClassifyLevel maps a score to its impact level under the thresholds.
func ClassifyLevel(score float64, cfg config.ScoringConfig) taxonomy.ImpactLevel {
	switch {
	case score >= cfg.HighImpactThreshold:
		return taxonomy.High
	case score >= cfg.MediumImpactThreshold:
		return taxonomy.Medium
	default:
		return taxonomy.Low
	}
}

// Weight returns the base weight of a change kind. Unchanged mappings
// weigh nothing.
func (s *Scorer) Weight(kind taxonomy.ChangeKind) float64 {
	switch kind {
	case taxonomy.Deleted:
		return s.scoring.DeletedMappingWeight
	case taxonomy.Modified:
		return s.scoring.ModifiedMappingWeight
	case taxonomy.Added:
		return s.scoring.AddedMappingWeight
	default:
		return 0
	}
}

// FieldMultiplier returns the multiplier for the highest-priority
// sub-field difference the change carries. Multipliers never combine.
func (s *Scorer) FieldMultiplier(change taxonomy.MappingChange) float64 {
	switch change.DifferenceSignal() {
	case taxonomy.SignalSampleData:
		return s.scoring.SampleDataMultiplier
	case taxonomy.SignalFieldName:
		return s.scoring.FieldNameMultiplier
	case taxonomy.SignalCanonicalName:
		return s.scoring.CanonicalNameMultiplier
	default:
		return 1.0
	}
}

// ConfidenceMultiplier returns the multiplier for a match confidence:
// high above 0.9, medium within [0.7, 0.9], low below 0.7.
func (s *Scorer) ConfidenceMultiplier(conf float64) float64 {
	switch {
	case conf > highConfidenceAbove:
		return s.scoring.HighConfidenceMultiplier
	case conf >= mediumConfidenceFrom:
		return s.scoring.MediumConfidenceMultiplier
	default:
		return s.scoring.LowConfidenceMultiplier
	}
}

// AcceptsTabMatch reports whether a tab match is confident enough to
// count as an impact signal. Exact matches always count, fuzzy matches
// at the tab threshold, keyword matches at the content threshold.
func (s *Scorer) AcceptsTabMatch(tm taxonomy.TabMatch) bool {
	switch tm.Kind {
	case taxonomy.MatchExact:
		return true
	case taxonomy.MatchFuzzy:
		return tm.Confidence >= s.matching.TabNameThreshold
	case taxonomy.MatchKeyword:
		return tm.Confidence >= s.matching.ContentMatchingThreshold
	default:
		return false
	}
}

// Assess computes the assessment of tc against changes. Matches in ev
// that reference other test cases are ignored. An assessment is always
// returned, with a zero score when nothing contributes.
func (s *Scorer) Assess(tc taxonomy.TestCase, changes []taxonomy.MappingChange, ev Evidence) taxonomy.ImpactAssessment {
	a := taxonomy.ImpactAssessment{
		TestCaseID:   tc.ID,
		TestCaseName: tc.Name,
	}

	fieldsByChange := make(map[string][]taxonomy.FieldMatch)
	for _, fm := range ev.FieldMatches {
		if fm.TestCaseID == tc.ID {
			fieldsByChange[fm.MappingID] = append(fieldsByChange[fm.MappingID], fm)
		}
	}
	bestTab := make(map[string]taxonomy.TabMatch)
	for _, tm := range ev.TabMatches {
		if tm.TestCaseID != tc.ID || !s.AcceptsTabMatch(tm) {
			continue
		}
		if cur, ok := bestTab[tm.Tab]; !ok || tm.Confidence > cur.Confidence {
			bestTab[tm.Tab] = tm
		}
	}

	ordered := append([]taxonomy.MappingChange(nil), changes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID < ordered[j].ID
	})

	var (
		total     float64
		hasDelete bool
		hasModify bool
	)
	for _, c := range ordered {
		if !c.IsChange() {
			continue
		}
		weight := s.Weight(c.Kind)
		var (
			contributed bool
			conf        float64
		)

		if fms := fieldsByChange[c.ID]; len(fms) > 0 {
			fconf, signal := strongest(fms)
			contrib := s.contribution(c.ID, signal, fconf, weight, s.FieldMultiplier(c))
			a.Contributions = append(a.Contributions, contrib)
			total += contrib.Value
			contributed = true
			conf = fconf
		}
		if tm, ok := bestTab[c.Tab]; ok {
			contrib := s.contribution(c.ID, taxonomy.SignalTabName, tm.Confidence, weight, 1.0)
			a.Contributions = append(a.Contributions, contrib)
			total += contrib.Value
			contributed = true
			conf = max(conf, tm.Confidence)
		}
		if !contributed {
			continue
		}

		a.CausingChanges = append(a.CausingChanges, c)
		a.Confidence = max(a.Confidence, conf)
		action := changeAction(c, hasStepMatch(fieldsByChange[c.ID]))
		hasDelete = hasDelete || action == taxonomy.ActionDelete
		hasModify = hasModify || c.Kind == taxonomy.Modified
		a.Recommendations = append(a.Recommendations, fmt.Sprintf(
			"%s field %s→%s (%s, confidence %.2f)",
			action, c.SourceField, c.TargetField, c.Kind, conf,
		))
	}

	score := round(total)
	a.Impact = taxonomy.ImpactScore{Score: score, Level: ClassifyLevel(score, s.scoring)}
	switch {
	case hasDelete:
		a.Action = taxonomy.ActionDelete
	case hasModify:
		a.Action = taxonomy.ActionUpdate
	default:
		a.Action = taxonomy.ActionReview
	}
	return a
}

func (s *Scorer) contribution(mappingID string, signal taxonomy.MatchSignal, conf, weight, fieldMult float64) taxonomy.Contribution {
	confMult := s.ConfidenceMultiplier(conf)
	return taxonomy.Contribution{
		MappingID:            mappingID,
		Signal:               signal,
		Confidence:           conf,
		Weight:               weight,
		FieldMultiplier:      fieldMult,
		ConfidenceMultiplier: confMult,
		Value:                weight * fieldMult * confMult,
	}
}

// strongest returns the highest confidence among fms and the
// highest-priority signal of the matches at that confidence.
func strongest(fms []taxonomy.FieldMatch) (float64, taxonomy.MatchSignal) {
	var (
		conf   float64
		signal taxonomy.MatchSignal
	)
	for _, fm := range fms {
		switch {
		case fm.Confidence > conf:
			conf, signal = fm.Confidence, fm.Signal
		case fm.Confidence == conf && fm.Signal.Outranks(signal):
			signal = fm.Signal
		}
	}
	return conf, signal
}

func hasStepMatch(fms []taxonomy.FieldMatch) bool {
	for _, fm := range fms {
		if fm.Location.Kind == taxonomy.InStep {
			return true
		}
	}
	return false
}

// changeAction is the action one causing change calls for: a deletion
// located in a step removes it, a modification updates, anything else
// needs review.
func changeAction(c taxonomy.MappingChange, stepMatch bool) taxonomy.Action {
	switch {
	case c.Kind == taxonomy.Deleted && stepMatch:
		return taxonomy.ActionDelete
	case c.Kind == taxonomy.Modified:
		return taxonomy.ActionUpdate
	default:
		return taxonomy.ActionReview
	}
}

func round(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}
