package match

import (
	"sort"
	"strings"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// keywordCapMargin keeps keyword confidence strictly below the fuzzy
// threshold.
const keywordCapMargin = 0.01

// TabMatcher matches a tab name to test cases by name similarity.
type TabMatcher struct {
	threshold float64
	fuzzy     bool
	keywords  bool
}

// NewTabMatcher returns a TabMatcher using the matching configuration.
func NewTabMatcher(cfg config.MatchingConfig) *TabMatcher {
	return &TabMatcher{
		threshold: cfg.TabNameThreshold,
		fuzzy:     cfg.UseFuzzyMatching,
		keywords:  cfg.UseKeywordExtraction,
	}
}

// Match returns the test cases matching tab, ordered by descending
// confidence and then ascending test case ID. Test cases that match at
// no tier are absent.
func (m *TabMatcher) Match(tab string, corpus *Corpus) []taxonomy.TabMatch {
	name := collapse(tab)
	if name == "" {
		return nil
	}
	tabTokens := Tokens(tab)
	kws := Keywords(tab)

	var out []taxonomy.TabMatch
	for i := range corpus.docs {
		d := &corpus.docs[i]
		if tm, ok := m.matchOne(tab, name, tabTokens, kws, d); ok {
			out = append(out, tm)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].TestCaseID < out[j].TestCaseID
	})
	return out
}

func (m *TabMatcher) matchOne(tab, name string, tabTokens, kws []string, d *document) (taxonomy.TabMatch, bool) {
	tm := taxonomy.TabMatch{Tab: tab, TestCaseID: d.tc.ID}

	if strings.EqualFold(name, collapse(d.tc.Name)) {
		tm.Confidence, tm.Kind = 1, taxonomy.MatchExact
		return tm, true
	}

	if m.fuzzy {
		if s := tokenSimilarity(tabTokens, d.nameTokens); s > 0 && s >= m.threshold {
			tm.Confidence, tm.Kind = s, taxonomy.MatchFuzzy
			return tm, true
		}
	}

	if m.keywords && len(kws) > 0 {
		found := 0
		for _, k := range kws {
			if d.header[k] {
				found++
			}
		}
		if found == 0 {
			return tm, false
		}
		conf := min(float64(found)/float64(len(kws)), m.threshold-keywordCapMargin)
		if conf <= 0 {
			return tm, false
		}
		tm.Confidence, tm.Kind = conf, taxonomy.MatchKeyword
		return tm, true
	}
	return tm, false
}

// collapse trims s and reduces internal whitespace runs to one space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
