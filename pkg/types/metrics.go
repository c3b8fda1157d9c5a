// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "sort"

// MetricKey is a canonical financial metric identifier, shared by every
// company profile.
type MetricKey string

// Canonical metric vocabulary. Profiles may only declare rules for keys
// listed in metricVocabulary.
const (
	MetricRevenueINRCrores       MetricKey = "revenue_inr_crores"
	MetricRevenueUSDMillion      MetricKey = "revenue_usd_million"
	MetricSalesINRCrores         MetricKey = "sales_inr_crores"
	MetricGrowthPercentage       MetricKey = "growth_percentage"
	MetricEBITDAMarginPercentage MetricKey = "ebitda_margin_percentage"
	MetricEBITDAINRCrores        MetricKey = "ebitda_inr_crores"
	MetricUSSalesUSDMillion      MetricKey = "us_sales_usd_million"
	MetricGrossMarginPercentage  MetricKey = "gross_margin_percentage"
	MetricNetProfitINRCrores     MetricKey = "net_profit_inr_crores"
	MetricRAndDPercentage        MetricKey = "r_and_d_percentage"
	MetricIndiaSalesINRCrores    MetricKey = "india_sales_inr_crores"
)

var metricVocabulary = map[MetricKey]bool{
	MetricRevenueINRCrores:       true,
	MetricRevenueUSDMillion:      true,
	MetricSalesINRCrores:         true,
	MetricGrowthPercentage:       true,
	MetricEBITDAMarginPercentage: true,
	MetricEBITDAINRCrores:        true,
	MetricUSSalesUSDMillion:      true,
	MetricGrossMarginPercentage:  true,
	MetricNetProfitINRCrores:     true,
	MetricRAndDPercentage:        true,
	MetricIndiaSalesINRCrores:    true,
}

// IsKnownMetric reports whether k belongs to the canonical vocabulary.
func IsKnownMetric(k MetricKey) bool {
	return metricVocabulary[k]
}

// MetricKeys returns the canonical vocabulary sorted alphabetically.
func MetricKeys() []MetricKey {
	keys := make([]MetricKey, 0, len(metricVocabulary))
	for k := range metricVocabulary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FinancialMetric is one extracted value. Value keeps the matched digits as
// a string (thousands separators removed) so no locale formatting is lost.
type FinancialMetric struct {
	Key   MetricKey `json:"key" yaml:"key"`
	Value string    `json:"value" yaml:"value"`
	Unit  string    `json:"unit,omitempty" yaml:"unit,omitempty"`
}
