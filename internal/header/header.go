// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package header parses the call identity fields (company, date, quarter,
// fiscal year) from the opening paragraphs of a transcript.
package header

import (
	"strings"

	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// DefaultDepth is how many leading paragraphs Parse scans when depth <= 0.
const DefaultDepth = 30

// Rules supplies ordered header patterns.
type Rules interface {
	Header() profile.HeaderRules
}

// Parse scans the first depth paragraphs for each header field. For every
// field the paragraphs are walked in order and, within a paragraph, the
// rules in priority order; the first match that normalizes cleanly wins.
// Fields without a match stay nil.
func Parse(paragraphs []string, rules Rules, depth int) types.HeaderInfo {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if depth > len(paragraphs) {
		depth = len(paragraphs)
	}
	window := paragraphs[:depth]
	hr := rules.Header()

	return types.HeaderInfo{
		Company:    firstMatch(window, hr.Company, normalizeCompany),
		ReportDate: firstMatch(window, hr.Date, normalizeDate),
		Quarter:    firstMatch(window, hr.Quarter, NormalizeQuarter),
		FiscalYear: firstMatch(window, hr.FiscalYear, NormalizeFiscalYear),
	}
}

func firstMatch(paragraphs []string, rules []profile.Rule, normalize func(string) (string, bool)) *string {
	for _, para := range paragraphs {
		for _, rule := range rules {
			raw, ok := rule.Find(para)
			if !ok {
				continue
			}
			if v, ok := normalize(raw); ok {
				return &v
			}
		}
	}
	return nil
}

func normalizeCompany(s string) (string, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	s = strings.TrimRight(s, " .,")
	return s, s != ""
}

func normalizeDate(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	return s, s != ""
}

var ordinalQuarters = map[string]string{
	"1": "Q1", "first": "Q1", "1st": "Q1",
	"2": "Q2", "second": "Q2", "2nd": "Q2",
	"3": "Q3", "third": "Q3", "3rd": "Q3",
	"4": "Q4", "fourth": "Q4", "4th": "Q4",
}

// NormalizeQuarter maps a captured quarter token ("1", "Q1", "first",
// "3rd") to its canonical form "Q1".."Q4".
func NormalizeQuarter(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "q")
	q, ok := ordinalQuarters[s]
	return q, ok
}

// NormalizeFiscalYear maps a captured fiscal year ("26", "2026",
// "2025-26", "2025/2026") to a four-digit year. For a range the ending
// year is used.
func NormalizeFiscalYear(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, "-/"); i >= 0 {
		s = strings.TrimSpace(s[i+1:])
	}
	if !allDigits(s) {
		return "", false
	}
	switch len(s) {
	case 2:
		return "20" + s, true
	case 4:
		return s, true
	}
	return "", false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
