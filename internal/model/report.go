package model

import (
	"github.com/shopspring/decimal"
)

// Verdict is the final origin determination for one costing sheet.
type Verdict string

// Verdict values.
const (
	VerdictOriginating    Verdict = "originating"
	VerdictNonOriginating Verdict = "non_originating"
	VerdictIndeterminate  Verdict = "indeterminate"
)

// StepOutcome records how a workflow step concluded.
type StepOutcome string

// Step outcomes. Every report carries all seven steps; steps bypassed by an
// early exit stay in the report marked skipped.
const (
	OutcomePending StepOutcome = "pending"
	OutcomePassed  StepOutcome = "passed"
	OutcomeFailed  StepOutcome = "failed"
	OutcomeInfo    StepOutcome = "informational"
	OutcomeSkipped StepOutcome = "skipped"
)

// StepCount is the fixed number of workflow steps in every report.
const StepCount = 7

// Step names, indexed by step number - 1.
var StepNames = [StepCount]string{
	"Manufacturer and source verification",
	"HS code classification of the finished good",
	"Applicable rule resolution",
	"Material origin tagging",
	"Cost aggregation",
	"Percentage computation",
	"Final determination",
}

// AnalysisStep records what one workflow step checked and how it concluded.
type AnalysisStep struct {
	Number    int               `json:"step"`
	Name      string            `json:"name"`
	Outcome   StepOutcome       `json:"outcome"`
	Rationale string            `json:"rationale"`
	Details   map[string]string `json:"details,omitempty"`
}

// DeterminationReport is the immutable output of one engine run: the seven
// ordered step records plus the computed totals and final verdict.
type DeterminationReport struct {
	Steps                 [StepCount]AnalysisStep `json:"steps"`
	NonOriginatingCost    decimal.Decimal         `json:"non_originating_material_cost"`
	TotalCost             decimal.Decimal         `json:"total_material_cost"`
	NonOriginatingPercent decimal.Decimal         `json:"non_originating_percent"`
	Verdict               Verdict                 `json:"final_verdict"`
	AppliedRule           *Rule                   `json:"applied_rule,omitempty"`
	Warnings              []string                `json:"warnings,omitempty"`
}

// NewDeterminationReport returns a report with all seven steps initialized to
// the pending sentinel, to be filled in as the workflow progresses.
func NewDeterminationReport() *DeterminationReport {
	r := &DeterminationReport{
		NonOriginatingCost:    decimal.Zero,
		TotalCost:             decimal.Zero,
		NonOriginatingPercent: decimal.Zero,
		Verdict:               VerdictIndeterminate,
	}
	for i := range r.Steps {
		r.Steps[i] = AnalysisStep{
			Number:  i + 1,
			Name:    StepNames[i],
			Outcome: OutcomePending,
		}
	}
	return r
}

// Step returns a pointer to the step record for the given 1-based number.
func (r *DeterminationReport) Step(number int) *AnalysisStep {
	return &r.Steps[number-1]
}
