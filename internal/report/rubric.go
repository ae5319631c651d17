package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mpataki/agentprobe/internal/rubric"
)

const rubricRuleWidth = 80

// rubricAdvice maps below-par categories to the follow-up worth doing
// first. Best Practices has no single headline fix, so it gets none.
var rubricAdvice = map[string]string{
	"Security":        "Review security best practices (Named Credentials, sharing keywords)",
	"Error Handling":  "Add comprehensive error handling and logging",
	"Data Management": "Implement CRUD/FLS checks and bulkification",
	"Architecture":    "Use async patterns (Queueable) for callouts",
}

// RubricReport prints the graded categories with score bars and the
// issues found, then recommendations when the grade is short of
// excellent.
func RubricReport(w io.Writer, r *rubric.Report) {
	rule := strings.Repeat("=", rubricRuleWidth)

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "INTEGRATION SCORE: %d/%d %s\n", r.Total(), r.MaxTotal(), r.Rating())
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "File: %s\n", r.File)
	fmt.Fprintln(w)

	for _, c := range r.Categories {
		var pct float64
		if c.Max > 0 {
			pct = float64(c.Score) / float64(c.Max) * 100
		}
		filled := int(pct / 10)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)

		icon := failStyle.Render("✗")
		switch {
		case pct >= 80:
			icon = passStyle.Render("✓")
		case pct >= 60:
			icon = warnStyle.Render("!")
		}

		fmt.Fprintf(w, "%s %-20s %2d/%2d  %s %5.1f%%\n", icon, c.Name, c.Score, c.Max, bar, pct)
		for _, issue := range c.Issues {
			fmt.Fprintf(w, "   └─ %s\n", issue)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if r.Percent() >= 90 {
		return
	}
	fmt.Fprintln(w, "Recommendations:")
	for _, c := range r.Categories {
		advice, ok := rubricAdvice[c.Name]
		if !ok {
			continue
		}
		if float64(c.Score) < float64(c.Max)*0.8 {
			fmt.Fprintf(w, "   • %s\n", advice)
		}
	}
	fmt.Fprintln(w)
}
