package match

import (
	"sort"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// region is one searchable location of a test case. A step contributes
// its description and expected result as separate texts.
type region struct {
	loc   taxonomy.Location
	texts [][]string
}

// document is a test case with its text pre-tokenized.
type document struct {
	tc         taxonomy.TestCase
	nameTokens []string
	// header holds the tokens of name, description and precondition.
	header  map[string]bool
	regions []region
}

// Corpus is a read-only, pre-tokenized test-case collection. It is safe
// for concurrent use by matchers.
type Corpus struct {
	docs []document
}

// NewCorpus tokenizes every test case once.
func NewCorpus(cases []taxonomy.TestCase) *Corpus {
	c := &Corpus{docs: make([]document, 0, len(cases))}
	for _, tc := range cases {
		c.docs = append(c.docs, newDocument(tc))
	}
	return c
}

func newDocument(tc taxonomy.TestCase) document {
	d := document{
		tc:         tc,
		nameTokens: Tokens(tc.Name),
		header:     make(map[string]bool),
	}
	desc := Tokens(tc.Description)
	pre := Tokens(tc.Precondition)
	for _, ts := range [][]string{d.nameTokens, desc, pre} {
		for _, t := range ts {
			d.header[t] = true
		}
	}
	d.regions = append(d.regions,
		region{loc: taxonomy.Location{Kind: taxonomy.InDescription}, texts: [][]string{desc}},
		region{loc: taxonomy.Location{Kind: taxonomy.InPrecondition}, texts: [][]string{pre}},
	)

	// Steps sharing a number are searched as one location.
	steps := make(map[int]*region)
	var numbers []int
	for _, s := range tc.Steps {
		r, ok := steps[s.Number]
		if !ok {
			r = &region{loc: taxonomy.StepLocation(s.Number)}
			steps[s.Number] = r
			numbers = append(numbers, s.Number)
		}
		r.texts = append(r.texts, Tokens(s.Description), Tokens(s.ExpectedResult))
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		d.regions = append(d.regions, *steps[n])
	}
	return d
}
