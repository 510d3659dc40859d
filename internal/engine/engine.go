// Package engine implements the origin determination workflow: a fixed,
// ordered sequence of seven analysis steps over a material ledger and the
// applicable FTA rule.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/hscode"
	"github.com/tradewise-tools/originate/internal/manufacturer"
	"github.com/tradewise-tools/originate/internal/model"
	"github.com/tradewise-tools/originate/internal/rules"
)

// Config holds the analysis settings shared by every run.
type Config struct {
	TradeAgreement   string
	PartnerCountries []string
}

// DefaultConfig returns the default analysis settings.
func DefaultConfig() Config {
	return Config{
		TradeAgreement:   "EVFTA",
		PartnerCountries: []string{"VN", "VIETNAM", "VIET NAM"},
	}
}

// Engine executes the determination workflow. It is stateless and reentrant:
// each invocation operates on its own inputs, so independent analyses may run
// in parallel without locking.
type Engine struct {
	classifier    *hscode.Classifier
	rules         *rules.Repository
	manufacturers *manufacturer.Registry
	config        Config
}

// Input carries the fully materialized inputs for one run. No step performs
// blocking I/O; the collaborators hand the engine validated in-memory data.
type Input struct {
	Ledger        *model.MaterialLedger
	ProductHSCode string
	Manufacturer  string
}

// New creates an engine with the given collaborators. The manufacturer
// registry may be nil; step 1 then relies on per-line origin data only.
func New(classifier *hscode.Classifier, repo *rules.Repository, manufacturers *manufacturer.Registry, config Config) *Engine {
	return &Engine{
		classifier:    classifier,
		rules:         repo,
		manufacturers: manufacturers,
		config:        config,
	}
}

// Analyze runs the seven-step workflow. It always produces a complete report:
// per-analysis problems become step failures and an indeterminate verdict,
// never an error across the collaborator boundary.
func (e *Engine) Analyze(_ context.Context, in Input) *model.DeterminationReport {
	report := model.NewDeterminationReport()

	common.LogInfo("Starting origin determination", common.Fields{
		"agreement": e.config.TradeAgreement,
		"lines":     in.Ledger.Len(),
	})

	e.verifySources(in, report)

	classification, ok := e.classifyProduct(in, report)
	if !ok {
		e.earlyExit(report, "no classification for the finished good")
		return report
	}

	rule, ok := e.resolveRule(classification, report)
	if !ok {
		e.earlyExit(report, "no applicable rule for the classified heading")
		return report
	}
	report.AppliedRule = rule

	originating := e.tagMaterials(in, classification, rule, report)
	e.aggregateCosts(in.Ledger, originating, report)
	e.computePercentage(report)
	e.finalize(rule, report)

	return report
}

// verifySources is step 1: confirm the ledger is usable and every line has a
// resolvable origin country. Failures here are informational; they never halt
// the pipeline.
func (e *Engine) verifySources(in Input, report *model.DeterminationReport) {
	step := report.Step(1)
	step.Details = map[string]string{"lines": strconv.Itoa(in.Ledger.Len())}

	unknown := 0
	unnamed := 0
	for _, line := range in.Ledger.Lines() {
		if !line.CountryKnown {
			unknown++
		}
		if !line.DescriptionKnown {
			unnamed++
		}
	}

	if unnamed > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("incomplete data: %d lines with no material description", unnamed))
	}

	if e.manufacturers != nil && in.Manufacturer != "" {
		if rec, found := e.manufacturers.Lookup(in.Manufacturer, ""); found {
			step.Details["manufacturer"] = rec.Name
			if !rec.InTerritory(e.config.PartnerCountries) {
				step.Outcome = model.OutcomeFailed
				step.Rationale = fmt.Sprintf("manufacturer %s is located in %s, outside the partner territory", rec.Name, rec.Country)
				report.Warnings = append(report.Warnings, step.Rationale)
			}
		} else {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("manufacturer %q not found in the reference list", in.Manufacturer))
		}
	}

	if unknown > 0 {
		if step.Outcome == model.OutcomePending {
			step.Outcome = model.OutcomeInfo
		}
		if step.Rationale == "" {
			step.Rationale = fmt.Sprintf("%d of %d lines have no resolvable origin country", unknown, in.Ledger.Len())
		}
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("incomplete data: %d lines with unknown origin country", unknown))
		return
	}

	if step.Outcome == model.OutcomePending {
		step.Outcome = model.OutcomePassed
		step.Rationale = fmt.Sprintf("all %d material lines carry a resolvable origin country", in.Ledger.Len())
	}
}

// classifyProduct is step 2: classify the finished good's own HS code. An
// unknown code short-circuits the workflow.
func (e *Engine) classifyProduct(in Input, report *model.DeterminationReport) (hscode.Classification, bool) {
	step := report.Step(2)

	if in.ProductHSCode == "" {
		step.Outcome = model.OutcomeFailed
		step.Rationale = "finished good HS code not found in the costing sheet"
		return hscode.Classification{}, false
	}

	classification, err := e.classifier.Classify(in.ProductHSCode)
	if err != nil {
		step.Outcome = model.OutcomeFailed
		step.Rationale = err.Error()
		return hscode.Classification{}, false
	}

	step.Outcome = model.OutcomePassed
	step.Rationale = fmt.Sprintf("HS code %s classified as %s (%s)", classification.Code, classification.Category, classification.Description)
	step.Details = map[string]string{
		"hs_code":  classification.Code,
		"heading":  classification.Heading,
		"category": classification.Category,
	}
	return classification, true
}

// resolveRule is step 3: find the FTA rule covering the classified heading.
func (e *Engine) resolveRule(classification hscode.Classification, report *model.DeterminationReport) (*model.Rule, bool) {
	step := report.Step(3)

	rule, err := e.rules.FindRule(e.config.TradeAgreement, classification.Heading)
	if err != nil {
		step.Outcome = model.OutcomeFailed
		step.Rationale = err.Error()
		return nil, false
	}

	step.Outcome = model.OutcomePassed
	step.Rationale = fmt.Sprintf("rule for headings %s-%s applies: %s", rule.HeadingStart, rule.HeadingEnd, rule.RuleText)
	step.Details = map[string]string{
		"threshold_percent": rule.Threshold.String(),
		"heading_range":     rule.HeadingStart + "-" + rule.HeadingEnd,
	}
	return rule, true
}

// tagMaterials is step 4: decide originating status per line. A line is
// originating when it is flagged as such, when its origin country is in the
// partner territory, or when its own HS code classifies outside the rule's
// restricted heading range (depth-1 sub-classification). A line carrying the
// finished good's own HS code is a data-integrity error: the step fails but
// the run continues with the line counted non-originating.
func (e *Engine) tagMaterials(in Input, classification hscode.Classification, rule *model.Rule, report *model.DeterminationReport) []bool {
	step := report.Step(4)

	originating := make([]bool, in.Ledger.Len())
	nonOriginating := 0
	selfReferential := false

	for i, line := range in.Ledger.Lines() {
		switch {
		case line.IsOriginating:
			originating[i] = true
		case e.inPartnerTerritory(line.OriginCountry):
			originating[i] = true
		case line.HSCode != "":
			code := hscode.Normalize(line.HSCode)
			if code == classification.Code {
				selfReferential = true
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("material %q carries the finished good's own HS code %s", line.Description, code))
				break
			}
			sub, err := e.classifier.Classify(line.HSCode)
			if err != nil {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("material %q: %v", line.Description, err))
				break
			}
			if !rule.ContainsHeading(sub.Heading) {
				originating[i] = true
			}
		}
		if !originating[i] {
			nonOriginating++
		}
	}

	if selfReferential {
		step.Outcome = model.OutcomeFailed
		step.Rationale = "one or more materials reference the finished good's own HS code"
	} else {
		step.Outcome = model.OutcomePassed
		step.Rationale = fmt.Sprintf("%d of %d materials tagged non-originating", nonOriginating, in.Ledger.Len())
	}
	step.Details = map[string]string{
		"non_originating": strconv.Itoa(nonOriginating),
		"originating":     strconv.Itoa(in.Ledger.Len() - nonOriginating),
	}

	return originating
}

// aggregateCosts is step 5: sum total and non-originating material cost.
// Zero-cost ledgers were rejected at construction, so division downstream is
// always well-defined.
func (e *Engine) aggregateCosts(ledger *model.MaterialLedger, originating []bool, report *model.DeterminationReport) {
	step := report.Step(5)

	total := decimal.Zero
	nonOrig := decimal.Zero
	for i, line := range ledger.Lines() {
		total = total.Add(line.Cost)
		if !originating[i] {
			nonOrig = nonOrig.Add(line.Cost)
		}
	}

	report.TotalCost = total
	report.NonOriginatingCost = nonOrig

	step.Outcome = model.OutcomePassed
	step.Rationale = fmt.Sprintf("total material cost %s, non-originating %s", total, nonOrig)
	step.Details = map[string]string{
		"total_cost":           total.String(),
		"non_originating_cost": nonOrig.String(),
	}
}

// computePercentage is step 6: non-originating share of total cost, rounded
// half-up to two decimals. The rounded value is compared, not re-rounded, at
// decision time.
func (e *Engine) computePercentage(report *model.DeterminationReport) {
	step := report.Step(6)

	percent := report.NonOriginatingCost.
		Mul(decimal.NewFromInt(100)).
		DivRound(report.TotalCost, 2)
	report.NonOriginatingPercent = percent

	step.Outcome = model.OutcomePassed
	step.Rationale = fmt.Sprintf("non-originating materials represent %s%% of total cost", percent)
	step.Details = map[string]string{"percent": percent.String()}
}

// finalize is step 7: compare the computed percentage against the rule's
// threshold and set the verdict.
func (e *Engine) finalize(rule *model.Rule, report *model.DeterminationReport) {
	step := report.Step(7)
	percent := report.NonOriginatingPercent

	if percent.GreaterThan(rule.Threshold) {
		report.Verdict = model.VerdictNonOriginating
		step.Rationale = fmt.Sprintf("non-originating share %s%% exceeds the %s%% threshold", percent, rule.Threshold)
	} else {
		report.Verdict = model.VerdictOriginating
		step.Rationale = fmt.Sprintf("non-originating share %s%% is within the %s%% threshold", percent, rule.Threshold)
	}

	if len(report.Warnings) > 0 {
		step.Rationale += fmt.Sprintf(" (%d data-quality warnings recorded)", len(report.Warnings))
	}

	step.Outcome = model.OutcomePassed
	step.Details = map[string]string{
		"percent":   percent.String(),
		"threshold": rule.Threshold.String(),
		"verdict":   string(report.Verdict),
	}

	common.LogInfo("Origin determination complete", common.Fields{
		"verdict": report.Verdict,
		"percent": percent.String(),
	})
}

// earlyExit handles the short-circuit from steps 2 and 3: the remaining
// analysis steps are marked skipped, and step 7 records the indeterminate
// verdict. The report keeps its fixed seven-entry shape.
func (e *Engine) earlyExit(report *model.DeterminationReport, reason string) {
	for i := 3; i <= 6; i++ {
		step := report.Step(i)
		if step.Outcome != model.OutcomePending {
			continue
		}
		step.Outcome = model.OutcomeSkipped
		step.Rationale = "skipped: " + reason
	}

	step := report.Step(7)
	step.Outcome = model.OutcomeInfo
	step.Rationale = "indeterminate: " + reason
	report.Verdict = model.VerdictIndeterminate

	common.LogInfo("Origin determination ended early", common.Fields{
		"verdict": report.Verdict,
		"reason":  reason,
	})
}

func (e *Engine) inPartnerTerritory(country string) bool {
	for _, partner := range e.config.PartnerCountries {
		if strings.EqualFold(country, partner) {
			return true
		}
	}
	return false
}
