package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rule is one FTA-specific origin threshold definition, keyed by trade
// agreement and HS heading range. Loaded once at startup, read-only.
type Rule struct {
	TradeAgreement   string          `json:"trade_agreement"`
	HeadingStart     string          `json:"hs_heading_start"`
	HeadingEnd       string          `json:"hs_heading_end"`
	Threshold        decimal.Decimal `json:"non_originating_threshold_percent"`
	RequiredEvidence []string        `json:"required_evidence"`
	RuleText         string          `json:"rule_text"`
}

// Validate ensures the rule definition is usable.
func (r *Rule) Validate() error {
	if r.TradeAgreement == "" {
		return fmt.Errorf("trade agreement is required")
	}
	if !isHeading(r.HeadingStart) || !isHeading(r.HeadingEnd) {
		return fmt.Errorf("heading range %s-%s must be 4-digit headings", r.HeadingStart, r.HeadingEnd)
	}
	if r.HeadingStart > r.HeadingEnd {
		return fmt.Errorf("heading range start %s is after end %s", r.HeadingStart, r.HeadingEnd)
	}
	if r.Threshold.IsNegative() || r.Threshold.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("threshold %s must be between 0 and 100", r.Threshold)
	}
	return nil
}

// ContainsHeading reports whether a 4-digit heading falls inside the rule's
// heading range. Headings are zero-padded digit strings, so lexicographic
// comparison matches numeric order.
func (r *Rule) ContainsHeading(heading string) bool {
	return heading >= r.HeadingStart && heading <= r.HeadingEnd
}

// Overlaps reports whether two rules for the same agreement cover a common
// heading.
func (r *Rule) Overlaps(other *Rule) bool {
	if r.TradeAgreement != other.TradeAgreement {
		return false
	}
	return r.HeadingStart <= other.HeadingEnd && other.HeadingStart <= r.HeadingEnd
}

func isHeading(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
