// Package manufacturer provides the reference list used to verify where a
// manufacturer is located.
package manufacturer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one row of the manufacturers reference list.
type Record struct {
	ID          string
	Name        string
	Country     string
	CountryCode string
}

// Registry is a case-insensitive lookup over the reference list. Loaded once;
// read-only.
type Registry struct {
	byID   map[string]Record
	byName map[string]Record
}

// NewRegistry builds a registry from records.
func NewRegistry(records []Record) *Registry {
	r := &Registry{
		byID:   make(map[string]Record, len(records)),
		byName: make(map[string]Record, len(records)),
	}
	for _, rec := range records {
		if id := norm(rec.ID); id != "" {
			r.byID[id] = rec
		}
		if name := norm(rec.Name); name != "" {
			r.byName[name] = rec
		}
	}
	return r
}

// LoadRegistry reads the manufacturers CSV (manufacturer_id, name, country,
// country_code). A missing file yields an empty registry; every lookup then
// reports not-found and the engine falls back to per-line origin data.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(nil), nil
		}
		return nil, fmt.Errorf("failed to open manufacturers list: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manufacturers header: %w", err)
	}

	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[norm(h)] = i
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var records []Record
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manufacturers row: %w", err)
		}
		records = append(records, Record{
			ID:          field(record, "manufacturer_id"),
			Name:        field(record, "name"),
			Country:     field(record, "country"),
			CountryCode: field(record, "country_code"),
		})
	}

	return NewRegistry(records), nil
}

// Lookup finds a manufacturer by id first, then by name. Both matches are
// case-insensitive.
func (r *Registry) Lookup(name, id string) (Record, bool) {
	if rec, ok := r.byID[norm(id)]; ok && norm(id) != "" {
		return rec, true
	}
	if rec, ok := r.byName[norm(name)]; ok && norm(name) != "" {
		return rec, true
	}
	return Record{}, false
}

// InTerritory reports whether the record's country matches any of the given
// territory names or codes.
func (rec Record) InTerritory(territory []string) bool {
	country := norm(rec.Country)
	code := norm(rec.CountryCode)
	for _, t := range territory {
		t = norm(t)
		if t != "" && (t == country || t == code) {
			return true
		}
	}
	return false
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
