package cli

import (
	"fmt"
	"strings"

	"github.com/tradewise-tools/originate/internal/model"
)

// RenderReport formats a determination report for terminal display: the seven
// steps with their outcomes, the computed percentages, and the verdict.
func RenderReport(report *model.DeterminationReport) string {
	var b strings.Builder

	for _, step := range report.Steps {
		b.WriteString(renderStep(step))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Total material cost:          %s", report.TotalCost)))
	b.WriteString("\n")
	b.WriteString(SubtleStyle.Render(fmt.Sprintf("Non-originating cost:         %s", report.NonOriginatingCost)))
	b.WriteString("\n")
	b.WriteString(BoldStyle.Render(fmt.Sprintf("Non-originating percentage:   %s%%", report.NonOriginatingPercent)))
	b.WriteString("\n")
	if report.AppliedRule != nil {
		b.WriteString(SubtleStyle.Render(fmt.Sprintf("Applied rule:                 %s headings %s-%s, threshold %s%%",
			report.AppliedRule.TradeAgreement,
			report.AppliedRule.HeadingStart,
			report.AppliedRule.HeadingEnd,
			report.AppliedRule.Threshold)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderVerdict(report.Verdict))
	b.WriteString("\n")

	for _, warning := range report.Warnings {
		b.WriteString(FormatWarning(warning))
		b.WriteString("\n")
	}

	return RenderBox("Origin Determination", strings.TrimRight(b.String(), "\n"))
}

func renderStep(step model.AnalysisStep) string {
	label := fmt.Sprintf("Step %d: %s", step.Number, step.Name)

	switch step.Outcome {
	case model.OutcomePassed:
		return FormatSuccess(label) + subRationale(step.Rationale)
	case model.OutcomeFailed:
		return FormatError(label) + subRationale(step.Rationale)
	case model.OutcomeSkipped:
		return SubtleStyle.Render(SkippedIcon+" "+label) + subRationale(step.Rationale)
	case model.OutcomeInfo:
		return FormatWarning(label) + subRationale(step.Rationale)
	case model.OutcomePending:
		return SubtleStyle.Render(SkippedIcon + " " + label)
	}
	return label
}

func subRationale(rationale string) string {
	if rationale == "" {
		return ""
	}
	return "\n  " + SubtleStyle.Render(rationale)
}

func renderVerdict(verdict model.Verdict) string {
	switch verdict {
	case model.VerdictOriginating:
		return SuccessStyle.Bold(true).Render("VERDICT: ORIGINATING")
	case model.VerdictNonOriginating:
		return ErrorStyle.Bold(true).Render("VERDICT: NON-ORIGINATING")
	case model.VerdictIndeterminate:
		return WarningStyle.Bold(true).Render("VERDICT: INDETERMINATE")
	}
	return string(verdict)
}
