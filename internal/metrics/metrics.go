// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics extracts canonical financial metrics from transcript
// prose using a profile's ordered phrasing patterns.
package metrics

import (
	"strings"

	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// Rules supplies metric patterns in priority order.
type Rules interface {
	Metrics() []profile.MetricRule
}

// Result holds extracted metric values and their units. A key without a
// match is absent from both maps.
type Result struct {
	Values map[types.MetricKey]string
	Units  map[types.MetricKey]string
}

// Metrics returns the result as an ordered list of metrics, sorted by key.
func (r Result) Metrics() []types.FinancialMetric {
	var out []types.FinancialMetric
	for _, k := range types.MetricKeys() {
		if v, ok := r.Values[k]; ok {
			out = append(out, types.FinancialMetric{Key: k, Value: v, Unit: r.Units[k]})
		}
	}
	return out
}

// Extract scans the whole document for each metric. For a key, each
// pattern is tried against every paragraph in order before the next
// pattern; the first match wins.
func Extract(paragraphs []string, rules Rules) Result {
	res := Result{
		Values: make(map[types.MetricKey]string),
		Units:  make(map[types.MetricKey]string),
	}
	for _, rule := range rules.Metrics() {
		if _, done := res.Values[rule.Key]; done {
			continue
		}
		value, unit, ok := firstMatch(paragraphs, rule)
		if !ok {
			continue
		}
		res.Values[rule.Key] = value
		if unit != "" {
			res.Units[rule.Key] = unit
		}
	}
	return res
}

func firstMatch(paragraphs []string, rule profile.MetricRule) (value, unit string, ok bool) {
	for _, re := range rule.Patterns {
		for _, para := range paragraphs {
			m := re.FindStringSubmatchIndex(para)
			if m == nil {
				continue
			}
			value = profile.Group(re, para, m, "value")
			if value == "" && re.NumSubexp() >= 1 && m[2] >= 0 {
				value = para[m[2]:m[3]]
			}
			value = NormalizeValue(value)
			if value == "" {
				continue
			}
			unit = NormalizeUnit(profile.Group(re, para, m, "unit"))
			if unit == "" {
				unit = rule.Unit
			}
			return value, unit, true
		}
	}
	return "", "", false
}

// NormalizeValue removes thousands separators and surrounding space:
// "1,23,456.7" becomes "123456.7".
func NormalizeValue(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}

var unitAliases = map[string]string{
	"crore":        "crores",
	"crores":       "crores",
	"cr":           "crores",
	"cr.":          "crores",
	"mn":           "million",
	"million":      "million",
	"bn":           "billion",
	"billion":      "billion",
	"%":            "percent",
	"percent":      "percent",
	"per cent":     "percent",
	"percentage":   "percent",
	"bps":          "bps",
	"basis points": "bps",
	"basis point":  "bps",
}

// NormalizeUnit maps a matched unit token to its canonical name. Unknown
// tokens are returned lower-cased.
func NormalizeUnit(s string) string {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	if u, ok := unitAliases[key]; ok {
		return u
	}
	return key
}
