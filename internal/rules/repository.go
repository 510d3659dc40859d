// Package rules loads and indexes FTA origin rules keyed by trade agreement
// and HS heading range.
package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/model"
)

// Repository holds the full rule set, loaded once at startup and read-only
// thereafter. Safe for concurrent reads.
type Repository struct {
	rules []model.Rule
}

// NewRepository validates and indexes a rule set. Overlapping heading ranges
// within one agreement are a configuration error reported here, at load time,
// never silently resolved by first-match.
func NewRepository(ruleSet []model.Rule) (*Repository, error) {
	for i := range ruleSet {
		if err := ruleSet[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: rule %d: %v", common.ErrInvalidConfig, i, err)
		}
	}

	for i := range ruleSet {
		for j := i + 1; j < len(ruleSet); j++ {
			if ruleSet[i].Overlaps(&ruleSet[j]) {
				return nil, fmt.Errorf("%w: rules for %s have overlapping heading ranges %s-%s and %s-%s",
					common.ErrInvalidConfig,
					ruleSet[i].TradeAgreement,
					ruleSet[i].HeadingStart, ruleSet[i].HeadingEnd,
					ruleSet[j].HeadingStart, ruleSet[j].HeadingEnd)
			}
		}
	}

	return &Repository{rules: ruleSet}, nil
}

// LoadRepository reads the rules JSON document and builds a repository.
// A malformed document is a startup-fatal error.
func LoadRepository(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules document: %w", err)
	}

	var ruleSet []model.Rule
	if err := json.Unmarshal(data, &ruleSet); err != nil {
		return nil, fmt.Errorf("%w: rules document: %v", common.ErrInvalidConfig, err)
	}

	return NewRepository(ruleSet)
}

// FindRule resolves the rule covering an agreement and 4-digit heading.
// Returns ErrNoApplicableRule when no entry covers the combination; this is
// expected for out-of-scope products and must not crash the pipeline.
// Ranges rarely exceed a few dozen entries, so a linear scan suffices.
func (r *Repository) FindRule(agreement, heading string) (*model.Rule, error) {
	agreement = strings.TrimSpace(agreement)
	for i := range r.rules {
		rule := &r.rules[i]
		if !strings.EqualFold(rule.TradeAgreement, agreement) {
			continue
		}
		if rule.ContainsHeading(heading) {
			return rule, nil
		}
	}
	return nil, fmt.Errorf("%w: agreement %s, heading %s", common.ErrNoApplicableRule, agreement, heading)
}

// Rules returns every loaded rule, for listing.
func (r *Repository) Rules() []model.Rule {
	return r.rules
}
