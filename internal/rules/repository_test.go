package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/model"
)

func testRules() []model.Rule {
	return []model.Rule{
		{
			TradeAgreement: "EVFTA",
			HeadingStart:   "6401",
			HeadingEnd:     "6406",
			Threshold:      decimal.NewFromInt(10),
			RuleText:       "Non-originating materials must not exceed 10% of FOB value",
		},
		{
			TradeAgreement: "EVFTA",
			HeadingStart:   "5208",
			HeadingEnd:     "5212",
			Threshold:      decimal.NewFromInt(40),
		},
		{
			TradeAgreement: "CPTPP",
			HeadingStart:   "6401",
			HeadingEnd:     "6406",
			Threshold:      decimal.NewFromInt(45),
		},
	}
}

func TestRepository_FindRule(t *testing.T) {
	repo, err := NewRepository(testRules())
	require.NoError(t, err)

	tests := []struct {
		name          string
		agreement     string
		heading       string
		wantThreshold int64
		wantErr       bool
	}{
		{
			name:          "footwear heading under EVFTA",
			agreement:     "EVFTA",
			heading:       "6403",
			wantThreshold: 10,
		},
		{
			name:          "range boundary",
			agreement:     "EVFTA",
			heading:       "6406",
			wantThreshold: 10,
		},
		{
			name:          "agreement match is case-insensitive",
			agreement:     "evfta",
			heading:       "5210",
			wantThreshold: 40,
		},
		{
			name:          "same heading different agreement",
			agreement:     "CPTPP",
			heading:       "6403",
			wantThreshold: 45,
		},
		{
			name:      "uncovered heading",
			agreement: "EVFTA",
			heading:   "9999",
			wantErr:   true,
		},
		{
			name:      "unknown agreement",
			agreement: "NAFTA",
			heading:   "6403",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := repo.FindRule(tt.agreement, tt.heading)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrNoApplicableRule)
				return
			}
			require.NoError(t, err)
			assert.True(t, rule.Threshold.Equal(decimal.NewFromInt(tt.wantThreshold)))
		})
	}
}

func TestNewRepository_OverlappingRanges(t *testing.T) {
	_, err := NewRepository([]model.Rule{
		{TradeAgreement: "EVFTA", HeadingStart: "6401", HeadingEnd: "6403", Threshold: decimal.NewFromInt(10)},
		{TradeAgreement: "EVFTA", HeadingStart: "6402", HeadingEnd: "6406", Threshold: decimal.NewFromInt(10)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "6401-6403")
	assert.Contains(t, err.Error(), "6402-6406")
}

func TestNewRepository_InvalidRule(t *testing.T) {
	_, err := NewRepository([]model.Rule{
		{TradeAgreement: "EVFTA", HeadingStart: "6401", HeadingEnd: "6406", Threshold: decimal.NewFromInt(200)},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadRepository(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		doc := `[
			{
				"trade_agreement": "EVFTA",
				"hs_heading_start": "6401",
				"hs_heading_end": "6406",
				"non_originating_threshold_percent": "10",
				"required_evidence": ["supplier declaration"],
				"rule_text": "Non-originating materials must not exceed 10% of FOB value"
			}
		]`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

		repo, err := LoadRepository(path)
		require.NoError(t, err)
		require.Len(t, repo.Rules(), 1)

		rule, err := repo.FindRule("EVFTA", "6403")
		require.NoError(t, err)
		assert.Equal(t, []string{"supplier declaration"}, rule.RequiredEvidence)
	})

	t.Run("malformed document is fatal", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"not": "a list"`), 0600))

		_, err := LoadRepository(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("missing document is fatal", func(t *testing.T) {
		_, err := LoadRepository(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
	})
}
