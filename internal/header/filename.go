// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package header

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// Derived field names reported by FromFilename.
const (
	FieldReportDate = "report_date"
	FieldQuarter    = "quarter"
	FieldFiscalYear = "fiscal_year"
)

var (
	fileQuarterRe   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])q([1-4])(?:[^0-9]|$)`)
	fileFYRe        = regexp.MustCompile(`(?i)(?:^|[^a-z])fy[\s_\-]?(\d{4}|\d{2})(?:[^0-9]|$)`)
	fileMonthYearRe = regexp.MustCompile(`(?i)(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)[\s_\-]?(\d{4})`)
)

var monthNames = map[string]string{
	"jan": "January", "feb": "February", "mar": "March", "apr": "April",
	"may": "May", "jun": "June", "jul": "July", "aug": "August",
	"sep": "September", "sept": "September", "oct": "October",
	"nov": "November", "dec": "December",
}

// monthNumber maps a full month name to 1..12.
var monthNumber = map[string]int{
	"January": 1, "February": 2, "March": 3, "April": 4, "May": 5, "June": 6,
	"July": 7, "August": 8, "September": 9, "October": 10, "November": 11, "December": 12,
}

// FromFilename fills nil date, quarter and fiscal year fields of info from
// tokens in the file name (e.g. "lupin_q1_fy26.pdf", "cipla_july_2025.pdf").
// Months map to an April-March fiscal year. It returns the names of the
// fields it filled; fields already set are never overwritten.
func FromFilename(name string, info *types.HeaderInfo) []string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		return nil
	}

	var (
		derived []string
		month   int
		year    int
	)

	if m := fileMonthYearRe.FindStringSubmatch(base); m != nil {
		full := monthNames[strings.ToLower(m[1])]
		if full == "" {
			full = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		}
		month = monthNumber[full]
		year, _ = strconv.Atoi(m[2])
		if info.ReportDate == nil {
			d := full + " " + m[2]
			info.ReportDate = &d
			derived = append(derived, FieldReportDate)
		}
	}

	if info.Quarter == nil {
		var q string
		if m := fileQuarterRe.FindStringSubmatch(base); m != nil {
			q = "Q" + m[1]
		} else if month > 0 {
			q = fiscalQuarter(month)
		}
		if q != "" {
			info.Quarter = &q
			derived = append(derived, FieldQuarter)
		}
	}

	if info.FiscalYear == nil {
		var fy string
		if m := fileFYRe.FindStringSubmatch(base); m != nil {
			fy, _ = NormalizeFiscalYear(m[1])
		} else if month > 0 && year > 0 {
			if month >= 4 {
				year++
			}
			fy = strconv.Itoa(year)
		}
		if fy != "" {
			info.FiscalYear = &fy
			derived = append(derived, FieldFiscalYear)
		}
	}

	return derived
}

// fiscalQuarter maps a calendar month to its quarter in an April-March year.
func fiscalQuarter(month int) string {
	switch {
	case month >= 4 && month <= 6:
		return "Q1"
	case month >= 7 && month <= 9:
		return "Q2"
	case month >= 10:
		return "Q3"
	default:
		return "Q4"
	}
}
