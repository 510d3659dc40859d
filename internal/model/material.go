package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tradewise-tools/originate/internal/common"
)

// Canonical field names for ingested costing-sheet rows.
const (
	FieldDescription   = "description"
	FieldHSCode        = "hs_code"
	FieldOriginCountry = "country_of_origin"
	FieldCost          = "cost"
	FieldOriginating   = "is_originating"
	FieldManufacturer  = "manufacturer"
	FieldProductHSCode = "product_hs_code"
)

// UnknownCountry is recorded when a row carries no origin country at all.
// It is a data-quality flag, not a hard failure.
const UnknownCountry = "unknown"

// UnknownDescription is substituted when a row carries no material
// description. Cost data is still usable, so the row stays in the ledger.
const UnknownDescription = "Unknown"

// RawRow is one ingested costing-sheet row, keyed by canonical field name.
// The ingestion collaborator is responsible for header normalization; the
// ledger only sees canonical keys.
type RawRow map[string]string

// MaterialLine represents one validated row of the costing sheet.
type MaterialLine struct {
	Description      string
	HSCode           string
	OriginCountry    string
	Cost             decimal.Decimal
	IsOriginating    bool
	CountryKnown     bool
	DescriptionKnown bool
}

// RejectedRow records an ingested row that failed validation, with the reason
// it was excluded from the ledger.
type RejectedRow struct {
	Row    RawRow
	Index  int
	Reason string
}

// MaterialLedger is the ordered, validated collection of material lines for
// one costing sheet. Built once, immutable thereafter.
type MaterialLedger struct {
	lines []MaterialLine
}

// BuildLedger validates raw rows into a ledger. Rows failing required-field
// checks are excluded and reported alongside the ledger; the build only fails
// when no usable rows remain or the total cost is zero.
func BuildLedger(rows []RawRow) (*MaterialLedger, []RejectedRow, error) {
	return BuildLedgerWithProgress(rows, nil)
}

// BuildLedgerWithProgress is BuildLedger with a per-row callback, invoked
// after each row is validated. Used to drive progress reporting from the
// actual validation work.
func BuildLedgerWithProgress(rows []RawRow, progress func()) (*MaterialLedger, []RejectedRow, error) {
	var lines []MaterialLine
	var rejected []RejectedRow

	for i, row := range rows {
		line, err := buildLine(row)
		if progress != nil {
			progress()
		}
		if err != nil {
			rejected = append(rejected, RejectedRow{
				Row:    row,
				Index:  i,
				Reason: err.Error(),
			})
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, rejected, fmt.Errorf("%w: %d rows rejected", common.ErrEmptyLedger, len(rejected))
	}

	ledger := &MaterialLedger{lines: lines}
	if ledger.TotalCost().IsZero() {
		return nil, rejected, fmt.Errorf("%w: %d rows parsed", common.ErrZeroCost, len(lines))
	}

	return ledger, rejected, nil
}

// buildLine validates a single raw row into a material line. A missing
// description is not grounds for rejection: the cost data still counts, so
// the line is kept under a placeholder name and flagged for the report.
func buildLine(row RawRow) (MaterialLine, error) {
	desc := strings.TrimSpace(row[FieldDescription])
	descKnown := desc != ""
	if !descKnown {
		desc = UnknownDescription
	}

	rawCost := strings.TrimSpace(row[FieldCost])
	if rawCost == "" {
		return MaterialLine{}, fmt.Errorf("%w: missing cost", common.ErrValidation)
	}
	cost, err := decimal.NewFromString(rawCost)
	if err != nil {
		return MaterialLine{}, fmt.Errorf("%w: cost %q is not a number", common.ErrValidation, rawCost)
	}
	if cost.IsNegative() {
		return MaterialLine{}, fmt.Errorf("%w: cost %s is negative", common.ErrValidation, cost)
	}

	country := strings.ToUpper(strings.TrimSpace(row[FieldOriginCountry]))
	countryKnown := true
	switch country {
	case "", "NAN", "NONE":
		country = UnknownCountry
		countryKnown = false
	}

	return MaterialLine{
		Description:      desc,
		HSCode:           strings.TrimSpace(row[FieldHSCode]),
		OriginCountry:    country,
		Cost:             cost,
		IsOriginating:    parseBool(row[FieldOriginating]),
		CountryKnown:     countryKnown,
		DescriptionKnown: descKnown,
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}

// Lines returns the material lines in input order.
func (l *MaterialLedger) Lines() []MaterialLine {
	return l.lines
}

// Len returns the number of lines in the ledger.
func (l *MaterialLedger) Len() int {
	return len(l.lines)
}

// TotalCost sums the cost of every line.
func (l *MaterialLedger) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Cost)
	}
	return total
}
