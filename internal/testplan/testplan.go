// Package testplan extracts the canonical test plan from test
// management exports.
package testplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unbound-force/sttm-impact/internal/idgen"
	"github.com/unbound-force/sttm-impact/internal/ingest"
	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// NewRegistry returns a registry with the built-in adapters.
func NewRegistry() *ingest.Registry[*taxonomy.TestPlan] {
	return ingest.NewRegistry[*taxonomy.TestPlan](JSONAdapter{}, XLSXAdapter{})
}

// Parse extracts a test plan with the built-in adapters.
func Parse(raw []byte) (*taxonomy.TestPlan, error) {
	return NewRegistry().Extract(raw)
}

// Load reads and extracts the test plan at path.
func Load(path string) (*taxonomy.TestPlan, error) {
	return NewRegistry().ExtractFile(path)
}

// finish orders every case's steps, rejects cases without or with
// repeated IDs and records the detected ID pattern.
func finish(cases []taxonomy.TestCase) (*taxonomy.TestPlan, error) {
	seen := make(map[string]bool, len(cases))
	ids := make([]string, 0, len(cases))
	for i := range cases {
		tc := &cases[i]
		if tc.ID == "" {
			return nil, fmt.Errorf("test case %d has no ID", i+1)
		}
		if seen[tc.ID] {
			return nil, fmt.Errorf("duplicate test case ID %q", tc.ID)
		}
		seen[tc.ID] = true
		ids = append(ids, tc.ID)
		if tc.Steps == nil {
			tc.Steps = []taxonomy.TestStep{}
		}
		sort.SliceStable(tc.Steps, func(a, b int) bool {
			return tc.Steps[a].Number < tc.Steps[b].Number
		})
	}

	plan := &taxonomy.TestPlan{TestCases: cases}
	if plan.TestCases == nil {
		plan.TestCases = []taxonomy.TestCase{}
	}
	if p, ok := idgen.Detect(ids); ok {
		plan.IDPattern = p.String()
		plan.IDPatternDescription = p.Description()
	}
	return plan, nil
}

// Sample returns up to n test cases from the start of plan.
func Sample(plan *taxonomy.TestPlan, n int) []taxonomy.TestCase {
	if n > len(plan.TestCases) {
		n = len(plan.TestCases)
	}
	return plan.TestCases[:n]
}

// Describe renders a one-line summary of plan.
func Describe(plan *taxonomy.TestPlan) string {
	s := plan.Summary()
	pattern := s.IDPattern
	if pattern == "" {
		pattern = "none"
	}
	return fmt.Sprintf("%d test cases, %d steps (%.1f per case), ID pattern %s",
		s.TotalTestCases, s.TotalTestSteps, s.AverageStepsPerTest, pattern)
}

// headerKey reduces a column header or JSON key to lowercase letters
// and digits for alias lookup.
func headerKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
