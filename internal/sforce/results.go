package sforce

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// CaseResult is one executed test case as the platform reported it.
type CaseResult struct {
	Name            string
	Utterance       string
	ExpectedTopic   string
	ActualTopic     string
	ExpectedActions []string
	ActualActions   []string
	Message         string
	Passed          bool
}

// Summary aggregates one test run. Cases holds every case with a
// recognized outcome; anything the plugin reports under an unknown
// status is ignored.
type Summary struct {
	Passed int
	Failed int
	Total  int
	Cases  []CaseResult
}

// Failures returns the failed subset of Cases in report order.
func (s *Summary) Failures() []CaseResult {
	var out []CaseResult
	for _, c := range s.Cases {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// ParseResults extracts a summary from `sf agent test run` JSON
// output. Field names vary across plugin versions, so every lookup
// carries a fallback key. Invalid JSON returns a zero summary and an
// error the caller should treat as a warning, not a failure.
func ParseResults(output string) (*Summary, error) {
	if !gjson.Valid(output) {
		return &Summary{}, fmt.Errorf("test output is not valid JSON")
	}

	root := gjson.Parse(output)
	result := root.Get("result")
	if !result.Exists() {
		result = root
	}
	cases := result.Get("testCases")
	if !cases.Exists() {
		cases = result.Get("results")
	}

	s := &Summary{}
	cases.ForEach(func(_, test gjson.Result) bool {
		outcome := strings.ToLower(pick(test, "status", "outcome").String())
		switch outcome {
		case "pass", "passed", "success":
			s.Passed++
			s.Cases = append(s.Cases, caseFrom(test, true))
		case "fail", "failed", "error":
			s.Failed++
			s.Cases = append(s.Cases, caseFrom(test, false))
		}
		return true
	})
	s.Total = s.Passed + s.Failed
	return s, nil
}

func caseFrom(test gjson.Result, passed bool) CaseResult {
	name := pick(test, "name", "testCaseName").String()
	if name == "" {
		name = "Unknown"
	}
	return CaseResult{
		Name:            name,
		Utterance:       pick(test, "utterance", "input").String(),
		ExpectedTopic:   test.Get("expectedTopic").String(),
		ActualTopic:     test.Get("actualTopic").String(),
		ExpectedActions: stringList(test.Get("expectedActions")),
		ActualActions:   stringList(test.Get("actualActions")),
		Message:         pick(test, "errorMessage", "message").String(),
		Passed:          passed,
	}
}

func pick(v gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if r := v.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func stringList(v gjson.Result) []string {
	var out []string
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}
