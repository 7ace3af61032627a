package insight

import (
	"context"
	"fmt"
	"strings"

	"labvault.app/internal/reports"
)

// Rules is a deterministic generator derived from parameter statuses alone.
// It backs deployments without an AI key and keeps insights testable.
type Rules struct{}

func (Rules) Generate(ctx context.Context, report *reports.Report) (*reports.Insights, error) {
	var abnormal, critical []string
	for _, p := range report.Parameters {
		switch p.Status {
		case reports.ParameterCritical:
			critical = append(critical, p.Name)
		case reports.ParameterAbnormal, reports.ParameterBorderline:
			abnormal = append(abnormal, p.Name)
		}
	}

	total := len(report.Parameters)
	insights := &reports.Insights{
		CriticalParameters: critical,
		Recommendations:    recommendations(abnormal, critical),
	}

	switch {
	case len(critical) > 0:
		insights.RiskAssessment = string(reports.RiskCritical)
		insights.Summary = fmt.Sprintf(
			"%d of %d parameters are critical (%s). Contact your doctor promptly.",
			len(critical), total, strings.Join(critical, ", "))
	case len(abnormal) > 0:
		insights.RiskAssessment = string(reports.RiskHigh)
		insights.Summary = fmt.Sprintf(
			"%d of %d parameters are outside their normal range (%s).",
			len(abnormal), total, strings.Join(abnormal, ", "))
	default:
		insights.RiskAssessment = string(reports.RiskLow)
		insights.Summary = fmt.Sprintf("All %d parameters are within their normal ranges.", total)
	}
	return insights, nil
}

func recommendations(abnormal, critical []string) []string {
	recs := []string{"Keep a copy of this report for your records."}
	if len(critical) > 0 {
		recs = append(recs, "Critical values present: consult a doctor as soon as possible.")
	}
	if len(abnormal) > 0 {
		recs = append(recs, "Discuss out-of-range values with your doctor at your next visit.")
	}
	return recs
}
