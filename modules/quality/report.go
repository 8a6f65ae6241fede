package quality

import (
	"fmt"
	"strings"
)

func passMark(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

// GenerateQualityReport - 사람이 읽는 텍스트 리포트
func GenerateQualityReport(summary TestSummary) string {
	var b strings.Builder
	line := strings.Repeat("=", 64)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "PROMPT QUALITY REPORT")
	fmt.Fprintf(&b, "Generated: %s\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintln(&b, line)

	passRate := 0.0
	if summary.TotalTemplates > 0 {
		passRate = float64(summary.PassedTemplates) / float64(summary.TotalTemplates) * 100
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "OVERALL")
	fmt.Fprintf(&b, "  Templates:        %d\n", summary.TotalTemplates)
	fmt.Fprintf(&b, "  Passed:           %d\n", summary.PassedTemplates)
	fmt.Fprintf(&b, "  Failed:           %d\n", summary.FailedTemplates)
	fmt.Fprintf(&b, "  Pass rate:        %.1f%%\n", passRate)
	fmt.Fprintf(&b, "  Identity:         %.1f (min %d)\n", summary.Averages.Identity, MinIdentityScore)
	fmt.Fprintf(&b, "  Technical:        %.1f (min %d)\n", summary.Averages.Technical, MinTechnicalScore)
	fmt.Fprintf(&b, "  Professional:     %.1f (min %d)\n", summary.Averages.Professional, MinProfessionalScore)
	fmt.Fprintf(&b, "  Overall:          %.1f (min %d)\n", summary.Averages.Overall, MinOverallScore)

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "CATEGORIES")
	fmt.Fprintf(&b, "  %-24s %6s %6s %6s %8s\n", "Category", "Total", "Pass", "Fail", "Overall")
	for _, c := range summary.Categories {
		fmt.Fprintf(&b, "  %-24s %6d %6d %6d %8.1f\n", c.Name, c.Templates, c.Passed, c.Failed, c.Averages.Overall)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "TEMPLATES")
	for _, r := range summary.Results {
		fmt.Fprintf(&b, "  [%s] %s/%s  identity=%d technical=%d professional=%d overall=%d length=%d\n",
			passMark(r.Passed), r.Template.Category, r.Template.ID,
			r.Metrics.IdentityPreservationScore, r.Metrics.TechnicalQualityScore,
			r.Metrics.ProfessionalContextScore, r.Metrics.OverallConsistencyScore, r.Length)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "FAILURES")
	failures := 0
	for _, r := range summary.Results {
		if r.Passed {
			continue
		}
		failures++
		fmt.Fprintf(&b, "  %s (%s)\n", r.Template.Name, r.Template.ID)
		for _, issue := range r.CriticalIssues {
			fmt.Fprintf(&b, "    - critical: %s\n", issue)
		}
		for _, rec := range r.Metrics.Recommendations {
			fmt.Fprintf(&b, "    - recommend: %s\n", rec)
		}
	}
	if failures == 0 {
		fmt.Fprintln(&b, "  none")
	}

	fmt.Fprintln(&b, line)
	return b.String()
}
