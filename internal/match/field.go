package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

const (
	// minProbeLen is the minimum rune length of a searchable value.
	minProbeLen = 2

	// minPartialLen is the minimum rune length for substring and fuzzy
	// occurrences. Shorter values must occur verbatim.
	minPartialLen = 3

	// maxPartialConfidence keeps non-verbatim occurrences below an exact
	// occurrence.
	maxPartialConfidence = 0.99
)

// probe is one value of a mapping change searched for in test text.
type probe struct {
	tokens    []string
	compact   string
	signal    taxonomy.MatchSignal
	threshold float64
}

// FieldMatcher locates occurrences of a mapping change's field names,
// canonical name and sample data inside test cases.
type FieldMatcher struct {
	fieldThreshold   float64
	contentThreshold float64
	fuzzy            bool
}

// NewFieldMatcher returns a FieldMatcher using the matching
// configuration.
func NewFieldMatcher(cfg config.MatchingConfig) *FieldMatcher {
	return &FieldMatcher{
		fieldThreshold:   cfg.FieldNameThreshold,
		contentThreshold: cfg.ContentMatchingThreshold,
		fuzzy:            cfg.UseFuzzyMatching,
	}
}

// Match returns the field matches of change across the corpus, grouped
// by test case in corpus order. For each test case only the locations
// with the highest confidence are reported, ordered by step number and
// then location kind.
func (m *FieldMatcher) Match(change taxonomy.MappingChange, corpus *Corpus) []taxonomy.FieldMatch {
	probes := m.probes(change)
	if len(probes) == 0 {
		return nil
	}
	var out []taxonomy.FieldMatch
	for i := range corpus.docs {
		out = append(out, m.matchDoc(change.ID, probes, &corpus.docs[i])...)
	}
	return out
}

// probes lists the searchable values of change, highest signal
// priority first.
func (m *FieldMatcher) probes(change taxonomy.MappingChange) []probe {
	var out []probe
	add := func(value string, signal taxonomy.MatchSignal, threshold float64) {
		tokens := Tokens(value)
		compact := strings.Join(tokens, "")
		if utf8.RuneCountInString(compact) < minProbeLen {
			return
		}
		for _, p := range out {
			if p.compact == compact {
				return
			}
		}
		out = append(out, probe{tokens: tokens, compact: compact, signal: signal, threshold: threshold})
	}
	add(change.SampleData, taxonomy.SignalSampleData, m.contentThreshold)
	add(change.SourceField, taxonomy.SignalFieldName, m.fieldThreshold)
	add(change.TargetField, taxonomy.SignalFieldName, m.fieldThreshold)
	add(change.CanonicalName, taxonomy.SignalCanonicalName, m.fieldThreshold)
	return out
}

func (m *FieldMatcher) matchDoc(mappingID string, probes []probe, d *document) []taxonomy.FieldMatch {
	var (
		best float64
		hits []taxonomy.FieldMatch
	)
	for _, r := range d.regions {
		// Once a verbatim occurrence is known only other verbatim
		// occurrences can tie with it.
		exactOnly := best >= 1
		var (
			conf   float64
			signal taxonomy.MatchSignal
		)
		for _, p := range probes {
			c := m.occurrence(p, r.texts, exactOnly)
			if c <= 0 || c < p.threshold {
				continue
			}
			conf = max(conf, c)
			if signal == "" || p.signal.Outranks(signal) {
				signal = p.signal
			}
		}
		if conf == 0 {
			continue
		}
		fm := taxonomy.FieldMatch{
			MappingID:  mappingID,
			TestCaseID: d.tc.ID,
			Confidence: conf,
			Location:   r.loc,
			Signal:     signal,
		}
		switch {
		case conf > best:
			best = conf
			hits = append(hits[:0], fm)
		case conf == best:
			hits = append(hits, fm)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Location.Less(hits[j].Location)
	})
	return hits
}

// occurrence returns the best confidence of p across texts.
func (m *FieldMatcher) occurrence(p probe, texts [][]string, exactOnly bool) float64 {
	for _, text := range texts {
		if containsSeq(text, p.tokens) {
			return 1
		}
	}
	if exactOnly || utf8.RuneCountInString(p.compact) < minPartialLen {
		return 0
	}
	var best float64
	for _, text := range texts {
		best = max(best, m.partial(p, text))
	}
	return min(best, maxPartialConfidence)
}

// partial scores a non-verbatim occurrence: the probe embedded in a
// longer token, or a fuzzy match against a window of tokens.
func (m *FieldMatcher) partial(p probe, text []string) float64 {
	var best float64
	plen := float64(utf8.RuneCountInString(p.compact))
	for _, t := range text {
		if strings.Contains(t, p.compact) {
			best = max(best, 0.5+0.5*plen/float64(utf8.RuneCountInString(t)))
		}
	}
	if !m.fuzzy {
		return best
	}
	w := len(p.tokens)
	for i := 0; i+w <= len(text); i++ {
		best = max(best, bigramDice(p.compact, strings.Join(text[i:i+w], "")))
	}
	return best
}

// containsSeq reports whether seq occurs contiguously in text.
func containsSeq(text, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(text) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(text); i++ {
		for j, s := range seq {
			if text[i+j] != s {
				continue outer
			}
		}
		return true
	}
	return false
}
