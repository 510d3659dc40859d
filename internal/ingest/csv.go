// Package ingest parses uploaded costing sheets into normalized raw rows for
// ledger construction. Header spellings vary wildly between suppliers, so
// column names are resolved through a declarative synonym table.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tradewise-tools/originate/internal/model"
)

// columnSynonyms maps each canonical field to the header spellings accepted
// for it, after normalization. Resolved once per upload.
var columnSynonyms = map[string][]string{
	model.FieldDescription:   {"description", "material_name", "material", "component", "part_name"},
	model.FieldHSCode:        {"hs_code", "hscode", "hs", "tariff_code"},
	model.FieldOriginCountry: {"country_of_origin", "country", "origin", "coo", "origin_country"},
	model.FieldCost:          {"cost", "cost_per_pair", "unit_cost", "price"},
	model.FieldOriginating:   {"is_originating", "originating"},
	model.FieldManufacturer:  {"manufacturer", "mfg", "supplier", "vendor"},
	model.FieldProductHSCode: {"product_hs_code", "final_hs_code", "finished_good_hs_code"},
}

// Parser reads CSV costing sheets.
type Parser struct{}

// NewParser creates a new costing-sheet parser.
func NewParser() *Parser {
	return &Parser{}
}

// normalizeHeader lowercases a header and collapses separators to
// underscores, matching how suppliers actually format their sheets.
func normalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	header = strings.ReplaceAll(header, " ", "_")
	header = strings.ReplaceAll(header, "/", "_")
	header = strings.ReplaceAll(header, "-", "_")
	return header
}

// resolveColumns maps CSV column indexes to canonical field names.
func resolveColumns(headers []string) map[int]string {
	resolved := make(map[int]string)
	claimed := make(map[string]bool)

	for idx, header := range headers {
		normalized := normalizeHeader(header)
		for canonical, synonyms := range columnSynonyms {
			if claimed[canonical] {
				continue
			}
			for _, syn := range synonyms {
				if normalized == syn {
					resolved[idx] = canonical
					claimed[canonical] = true
					break
				}
			}
		}
	}

	return resolved
}

// ParseFile parses a CSV costing sheet into normalized raw rows. Columns that
// match no canonical field are dropped; rows are returned in file order.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.RawRow, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read costing sheet header: %w", err)
	}

	columns := resolveColumns(headers)
	if len(columns) == 0 {
		return nil, fmt.Errorf("no recognizable columns in costing sheet header %v", headers)
	}

	slog.Info("Resolved costing sheet columns",
		"recognized", len(columns),
		"total", len(headers))

	var rows []model.RawRow
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read costing sheet row %d: %w", len(rows)+2, err)
		}

		row := make(model.RawRow, len(columns))
		empty := true
		for idx, canonical := range columns {
			if idx >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[idx])
			if value != "" {
				empty = false
			}
			row[canonical] = value
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ProductHSCode extracts the finished good's HS code from the parsed rows: an
// explicit product_hs_code column wins, otherwise the first non-empty hs_code
// in row order.
func ProductHSCode(rows []model.RawRow) string {
	for _, row := range rows {
		if code := strings.TrimSpace(row[model.FieldProductHSCode]); code != "" {
			return code
		}
	}
	for _, row := range rows {
		if code := strings.TrimSpace(row[model.FieldHSCode]); code != "" {
			return code
		}
	}
	return ""
}

// Manufacturer extracts the first manufacturer name found in the rows.
func Manufacturer(rows []model.RawRow) string {
	for _, row := range rows {
		if name := strings.TrimSpace(row[model.FieldManufacturer]); name != "" {
			return name
		}
	}
	return ""
}
