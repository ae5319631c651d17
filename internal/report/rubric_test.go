package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mpataki/agentprobe/internal/rubric"
)

func TestRubricReport(t *testing.T) {
	r := &rubric.Report{
		File: "AgentCalloutService.cls",
		Categories: []rubric.Category{
			{Name: "Security", Score: 25, Max: 25},
			{Name: "Error Handling", Score: 10, Max: 25, Issues: []string{"Missing timeout configuration"}},
			{Name: "Data Management", Score: 20, Max: 20},
			{Name: "Architecture", Score: 10, Max: 20},
			{Name: "Best Practices", Score: 10, Max: 10},
		},
	}

	var buf bytes.Buffer
	RubricReport(&buf, r)
	out := buf.String()

	for _, want := range []string{
		"INTEGRATION SCORE: 75/100 ★★★ Good",
		"File: AgentCalloutService.cls",
		"██████████ 100.0%",
		"████░░░░░░  40.0%",
		"└─ Missing timeout configuration",
		"Recommendations:",
		"Add comprehensive error handling and logging",
		"Use async patterns (Queueable) for callouts",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Review security best practices") {
		t.Error("full-marks category still got a recommendation")
	}
}

func TestRubricReportExcellentSkipsRecommendations(t *testing.T) {
	r := &rubric.Report{
		File: "Call__c.object-meta.xml",
		Categories: []rubric.Category{
			{Name: "Security", Score: 25, Max: 25},
			{Name: "Error Handling", Score: 25, Max: 25},
			{Name: "Data Management", Score: 17, Max: 20},
			{Name: "Architecture", Score: 20, Max: 20},
			{Name: "Best Practices", Score: 10, Max: 10},
		},
	}

	var buf bytes.Buffer
	RubricReport(&buf, r)
	if strings.Contains(buf.String(), "Recommendations:") {
		t.Error("excellent report still printed recommendations")
	}
}
