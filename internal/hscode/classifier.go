// Package hscode resolves Harmonized System codes to their origin-rule
// category via a static heading-range mapping loaded at startup.
package hscode

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tradewise-tools/originate/internal/common"
)

// Entry maps one HS heading range to a category and description.
type Entry struct {
	HeadingStart string `json:"hs_heading_start"`
	HeadingEnd   string `json:"hs_heading_end"`
	Category     string `json:"category"`
	Description  string `json:"description"`
}

// Overlaps reports whether two entries' heading ranges intersect.
func (e *Entry) Overlaps(other *Entry) bool {
	return e.HeadingStart <= other.HeadingEnd && other.HeadingStart <= e.HeadingEnd
}

// Classification is the result of resolving an HS code.
type Classification struct {
	Code         string
	Heading      string
	Category     string
	Description  string
	HeadingStart string
	HeadingEnd   string
}

var codePattern = regexp.MustCompile(`^\d{4,10}$`)

// Classifier resolves HS codes against the configured heading ranges.
// Immutable after construction; safe for concurrent use.
type Classifier struct {
	entries []Entry
}

// NewClassifier builds a classifier from validated entries. Overlapping
// heading ranges are a configuration error reported here, at load time, never
// silently resolved by first-match.
func NewClassifier(entries []Entry) (*Classifier, error) {
	for i := range entries {
		e := &entries[i]
		if !isHeading(e.HeadingStart) || !isHeading(e.HeadingEnd) {
			return nil, fmt.Errorf("%w: hs code entry %d has invalid heading range %s-%s",
				common.ErrInvalidConfig, i, e.HeadingStart, e.HeadingEnd)
		}
		if e.HeadingStart > e.HeadingEnd {
			return nil, fmt.Errorf("%w: hs code entry %d range start %s is after end %s",
				common.ErrInvalidConfig, i, e.HeadingStart, e.HeadingEnd)
		}
	}

	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[i].Overlaps(&entries[j]) {
				return nil, fmt.Errorf("%w: hs code entries have overlapping heading ranges %s-%s and %s-%s",
					common.ErrInvalidConfig,
					entries[i].HeadingStart, entries[i].HeadingEnd,
					entries[j].HeadingStart, entries[j].HeadingEnd)
			}
		}
	}

	return &Classifier{entries: entries}, nil
}

// LoadClassifier reads the HS codes JSON document and builds a classifier.
// A malformed document is a startup-fatal error.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hs codes document: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: hs codes document: %v", common.ErrInvalidConfig, err)
	}

	return NewClassifier(entries)
}

// Normalize strips separators from an HS code.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, " ", "")
	code = strings.ReplaceAll(code, ".", "")
	return code
}

// IsValid reports whether a code is a well-formed HS code (4-10 digits after
// normalization).
func IsValid(code string) bool {
	return codePattern.MatchString(Normalize(code))
}

// Heading extracts the 4-digit heading from an HS code, or "" when the code
// is malformed.
func Heading(code string) string {
	normalized := Normalize(code)
	if !codePattern.MatchString(normalized) {
		return ""
	}
	return normalized[:4]
}

// Classify resolves an HS code to its category and description. Returns
// ErrUnknownHSCode when no configured heading range contains the code;
// callers treat this as a data-quality condition, not a crash.
func (c *Classifier) Classify(code string) (Classification, error) {
	normalized := Normalize(code)
	if !codePattern.MatchString(normalized) {
		return Classification{}, fmt.Errorf("%w: %q is not a 4-10 digit code", common.ErrUnknownHSCode, code)
	}

	heading := normalized[:4]
	for _, e := range c.entries {
		if heading >= e.HeadingStart && heading <= e.HeadingEnd {
			return Classification{
				Code:         normalized,
				Heading:      heading,
				Category:     e.Category,
				Description:  e.Description,
				HeadingStart: e.HeadingStart,
				HeadingEnd:   e.HeadingEnd,
			}, nil
		}
	}

	return Classification{}, fmt.Errorf("%w: no heading range covers %s", common.ErrUnknownHSCode, heading)
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
