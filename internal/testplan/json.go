package testplan

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/unbound-force/sttm-impact/internal/taxonomy"
)

// FormatJSON names the JSON export adapter.
const FormatJSON = "qTest JSON export"

// Key aliases, compared after headerKey reduction.
var (
	caseListKeys     = []string{"test_cases", "testCases", "tests"}
	caseIDKeys       = []string{"pid", "id", "testcaseid", "key"}
	caseNameKeys     = []string{"name", "title", "summary"}
	caseDescKeys     = []string{"description", "objective"}
	casePreKeys      = []string{"precondition", "preconditions"}
	caseStepsKeys    = []string{"teststeps", "steps"}
	stepNumberKeys   = []string{"order", "number", "stepnumber", "step"}
	stepDescKeys     = []string{"description", "action"}
	stepExpectedKeys = []string{"expected", "expectedresult"}
)

// JSONAdapter handles JSON exports holding a list of test cases, either
// at the root or under a test_cases key.
type JSONAdapter struct{}

// Name implements ingest.Adapter.
func (JSONAdapter) Name() string { return FormatJSON }

// Supports implements ingest.Adapter.
func (JSONAdapter) Supports(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	_, ok := caseList(gjson.ParseBytes(raw))
	return ok
}

// Extract implements ingest.Adapter.
func (JSONAdapter) Extract(raw []byte) (*taxonomy.TestPlan, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid JSON")
	}
	list, ok := caseList(gjson.ParseBytes(raw))
	if !ok {
		return nil, errors.New("no test case list")
	}
	var cases []taxonomy.TestCase
	for _, c := range list.Array() {
		fields := keyed(c)
		tc := taxonomy.TestCase{
			ID:           lookup(fields, caseIDKeys).String(),
			Name:         lookup(fields, caseNameKeys).String(),
			Description:  lookup(fields, caseDescKeys).String(),
			Precondition: lookup(fields, casePreKeys).String(),
		}
		for i, s := range lookup(fields, caseStepsKeys).Array() {
			tc.Steps = append(tc.Steps, extractStep(i, s))
		}
		tc.ID = strings.TrimSpace(tc.ID)
		cases = append(cases, tc)
	}
	return finish(cases)
}

func extractStep(i int, s gjson.Result) taxonomy.TestStep {
	if s.Type == gjson.String {
		return taxonomy.TestStep{Number: i + 1, Description: s.String()}
	}
	fields := keyed(s)
	step := taxonomy.TestStep{
		Number:         i + 1,
		Description:    lookup(fields, stepDescKeys).String(),
		ExpectedResult: lookup(fields, stepExpectedKeys).String(),
	}
	if n := lookup(fields, stepNumberKeys); n.Exists() {
		if v, err := strconv.Atoi(strings.TrimSpace(n.String())); err == nil && v > 0 {
			step.Number = v
		}
	}
	return step
}

func caseList(r gjson.Result) (gjson.Result, bool) {
	if r.IsArray() {
		return r, true
	}
	for _, k := range caseListKeys {
		if v := r.Get(k); v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}

// keyed indexes an object's members by reduced key.
func keyed(obj gjson.Result) map[string]gjson.Result {
	out := make(map[string]gjson.Result)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := headerKey(k.String())
		if _, dup := out[key]; !dup {
			out[key] = v
		}
		return true
	})
	return out
}

func lookup(fields map[string]gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v, ok := fields[headerKey(k)]; ok && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}
