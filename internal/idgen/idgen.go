// Package idgen detects the ID pattern of a test plan and generates IDs
// for synthesized test cases.
package idgen

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/unbound-force/sttm-impact/internal/config"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// ErrNoPattern is returned when no numeric ID pattern can be detected.
var ErrNoPattern = errors.New("no test case ID pattern detected")

// Namespace is the UUID namespace of generated test case IDs.
var Namespace = uuid.MustParse("5b0c6f7e-3f1d-4c3e-9a55-7d2f0e8b1a64")

var idPattern = regexp.MustCompile(`^(.*?)(\d+)$`)

// Generator produces the ID of the test case synthesized for a change.
type Generator interface {
	NextID(change taxonomy.MappingChange) (string, error)
}

// Pattern describes the numbering scheme of a set of IDs.
type Pattern struct {
	Prefix string
	Width  int
	Max    int

	// Confidence is the fraction of IDs following the pattern.
	Confidence float64
}

// String renders the pattern as the prefix followed by a zero
// placeholder per digit, e.g. "TC-{0000}".
func (p Pattern) String() string {
	return fmt.Sprintf("%s{%s}", p.Prefix, strings.Repeat("0", p.Width))
}

// Description explains the pattern in words.
func (p Pattern) Description() string {
	prefix := "no prefix"
	if p.Prefix != "" {
		prefix = fmt.Sprintf("prefix %q", p.Prefix)
	}
	return fmt.Sprintf("%s followed by a %d-digit number (%.0f%% of IDs, highest %d)",
		prefix, p.Width, p.Confidence*100, p.Max)
}

// Detect finds the most common prefix-plus-number scheme among ids.
// Ties between prefixes go to the lexicographically smallest.
func Detect(ids []string) (Pattern, bool) {
	type group struct {
		count  int
		max    int
		widths map[int]int
	}
	groups := make(map[string]*group)
	total := 0
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		total++
		m := idPattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		g, ok := groups[m[1]]
		if !ok {
			g = &group{widths: make(map[int]int)}
			groups[m[1]] = g
		}
		g.count++
		g.max = max(g.max, n)
		g.widths[len(m[2])]++
	}
	if len(groups) == 0 {
		return Pattern{}, false
	}

	prefixes := make([]string, 0, len(groups))
	for p := range groups {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		gi, gj := groups[prefixes[i]], groups[prefixes[j]]
		if gi.count != gj.count {
			return gi.count > gj.count
		}
		return prefixes[i] < prefixes[j]
	})
	best := groups[prefixes[0]]

	width, widthCount := 0, 0
	for w, c := range best.widths {
		if c > widthCount || (c == widthCount && w > width) {
			width, widthCount = w, c
		}
	}
	return Pattern{
		Prefix:     prefixes[0],
		Width:      width,
		Max:        best.max,
		Confidence: float64(best.count) / float64(total),
	}, true
}

// Sequence continues a detected pattern. It is not safe for concurrent
// use.
type Sequence struct {
	pattern Pattern
	next    int
}

// NewSequence returns a Sequence starting after the pattern's highest
// number.
func NewSequence(p Pattern) *Sequence {
	return &Sequence{pattern: p, next: p.Max + 1}
}

// NextID returns the next ID of the sequence. The change is ignored.
func (s *Sequence) NextID(taxonomy.MappingChange) (string, error) {
	id := fmt.Sprintf("%s%0*d", s.pattern.Prefix, s.pattern.Width, s.next)
	s.next++
	return id, nil
}

// UUIDs derives name-based UUIDs from the change ID, so the same change
// always receives the same test case ID.
type UUIDs struct{}

// NextID returns the SHA-1 name-based UUID of the change ID.
func (UUIDs) NextID(change taxonomy.MappingChange) (string, error) {
	if change.ID == "" {
		return "", errors.New("mapping change has no ID")
	}
	return uuid.NewSHA1(Namespace, []byte(change.ID)).String(), nil
}

// New returns the generator for strategy over the IDs of plan. The
// pattern strategy fails with ErrNoPattern when the plan has no
// numbered IDs.
func New(strategy string, plan *taxonomy.TestPlan) (Generator, error) {
	switch strategy {
	case config.IDStrategyUUID:
		return UUIDs{}, nil
	case config.IDStrategyPattern:
		ids := make([]string, 0, len(plan.TestCases))
		for _, tc := range plan.TestCases {
			ids = append(ids, tc.ID)
		}
		p, ok := Detect(ids)
		if !ok {
			return nil, ErrNoPattern
		}
		return NewSequence(p), nil
	default:
		return nil, fmt.Errorf("unknown ID strategy %q", strategy)
	}
}
