// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"fmt"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// Definition is the YAML form of a company profile.
type Definition struct {
	// Name is the canonical company name written to records.
	Name string `yaml:"name"`

	// Aliases are identifiers a caller hint may use (e.g. "cipla ltd").
	Aliases []string `yaml:"aliases,omitempty"`

	// Default marks the generic fallback profile. Exactly one per registry.
	Default bool `yaml:"default,omitempty"`

	// CompanyPatterns match the company's name in transcript text. A match
	// yields Name as the header company.
	CompanyPatterns []string `yaml:"company_patterns,omitempty"`

	Header   HeaderDefinition   `yaml:"header,omitempty"`
	Sections SectionDefinition  `yaml:"sections,omitempty"`
	Speakers SpeakerDefinition  `yaml:"speakers,omitempty"`
	Metrics  []MetricDefinition `yaml:"metrics,omitempty"`
}

// HeaderDefinition lists patterns per header field.
type HeaderDefinition struct {
	Company    []string `yaml:"company,omitempty"`
	Date       []string `yaml:"date,omitempty"`
	Quarter    []string `yaml:"quarter,omitempty"`
	FiscalYear []string `yaml:"fiscal_year,omitempty"`
}

// SectionDefinition lists roster section and speaker cue patterns.
type SectionDefinition struct {
	ManagementStart []string `yaml:"management_start,omitempty"`
	AnalystStart    []string `yaml:"analyst_start,omitempty"`
	SectionEnd      []string `yaml:"section_end,omitempty"`
	EntrySplit      string   `yaml:"entry_split,omitempty"`
	EntrySeparator  string   `yaml:"entry_separator,omitempty"`
	ModeratorLabel  []string `yaml:"moderator_label,omitempty"`
	ModeratorIntro  []string `yaml:"moderator_intro,omitempty"`
	AnalystIntro    []string `yaml:"analyst_intro,omitempty"`
	QAStart         []string `yaml:"qa_start,omitempty"`

	// NonSpeakerLabels match "Label:" prefixes that introduce inline
	// headings rather than speakers, e.g. "Gross Margin:" or "North America:".
	NonSpeakerLabels []string `yaml:"non_speaker_labels,omitempty"`
}

// SpeakerDefinition lists known management names.
type SpeakerDefinition struct {
	Management []string `yaml:"management,omitempty"`
}

// MetricDefinition is the ordered pattern list for one metric key. Patterns
// capture the number in a "value" group and may capture a "unit" group.
type MetricDefinition struct {
	Key      types.MetricKey `yaml:"key"`
	Unit     string          `yaml:"unit,omitempty"`
	Patterns []string        `yaml:"patterns"`
}

// ParseDefinition decodes a YAML profile definition.
func ParseDefinition(data []byte) (Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parsing profile: %w", err)
	}
	if strings.TrimSpace(def.Name) == "" {
		return Definition{}, fmt.Errorf("parsing profile: %w", ErrNoName)
	}
	return def, nil
}

// compile builds a Profile from def. When base is non-nil, def's rules are
// layered in front of base's rules for every field.
func compile(def Definition, base *Profile) (*Profile, error) {
	p := &Profile{
		name:      strings.ToUpper(strings.TrimSpace(def.Name)),
		isDefault: def.Default,
	}
	for _, a := range def.Aliases {
		if a = strings.TrimSpace(a); a != "" {
			p.aliases = append(p.aliases, a)
		}
	}

	var err error
	if p.company, err = compileAll(p.name, "company_patterns", def.CompanyPatterns); err != nil {
		return nil, err
	}

	h := def.Header
	companyRules := make([]Rule, 0, len(p.company)+len(h.Company))
	for _, re := range p.company {
		companyRules = append(companyRules, Rule{Re: re, Fixed: p.name})
	}
	more, err := compileRules(p.name, "header.company", h.Company)
	if err != nil {
		return nil, err
	}
	p.header.Company = append(companyRules, more...)
	if p.header.Date, err = compileRules(p.name, "header.date", h.Date); err != nil {
		return nil, err
	}
	if p.header.Quarter, err = compileRules(p.name, "header.quarter", h.Quarter); err != nil {
		return nil, err
	}
	if p.header.FiscalYear, err = compileRules(p.name, "header.fiscal_year", h.FiscalYear); err != nil {
		return nil, err
	}

	if p.sections, err = compileSections(p.name, def.Sections); err != nil {
		return nil, err
	}
	p.speakers.Management = append(p.speakers.Management, def.Speakers.Management...)

	if p.metrics, err = compileMetrics(p.name, def.Metrics); err != nil {
		return nil, err
	}

	if base != nil {
		inherit(p, base)
	}
	return p, nil
}

// inherit appends base's rules after p's own for every field.
func inherit(p, base *Profile) {
	p.header.Company = append(p.header.Company, base.header.Company...)
	p.header.Date = append(p.header.Date, base.header.Date...)
	p.header.Quarter = append(p.header.Quarter, base.header.Quarter...)
	p.header.FiscalYear = append(p.header.FiscalYear, base.header.FiscalYear...)

	s, b := &p.sections, base.sections
	s.ManagementStart = append(s.ManagementStart, b.ManagementStart...)
	s.AnalystStart = append(s.AnalystStart, b.AnalystStart...)
	s.SectionEnd = append(s.SectionEnd, b.SectionEnd...)
	s.ModeratorLabel = append(s.ModeratorLabel, b.ModeratorLabel...)
	s.ModeratorIntro = append(s.ModeratorIntro, b.ModeratorIntro...)
	s.AnalystIntro = append(s.AnalystIntro, b.AnalystIntro...)
	s.QAStart = append(s.QAStart, b.QAStart...)
	s.NonSpeakerLabel = append(s.NonSpeakerLabel, b.NonSpeakerLabel...)
	if s.EntrySplit == nil {
		s.EntrySplit = b.EntrySplit
	}
	if s.EntrySeparator == nil {
		s.EntrySeparator = b.EntrySeparator
	}

	p.speakers.Management = append(p.speakers.Management, base.speakers.Management...)

	// Company patterns for a key come first, then the generic ones; keys
	// only the base knows keep the base order after the company's keys.
	index := make(map[types.MetricKey]int, len(p.metrics))
	for i, m := range p.metrics {
		index[m.Key] = i
	}
	for _, m := range base.metrics {
		if i, ok := index[m.Key]; ok {
			p.metrics[i].Patterns = append(p.metrics[i].Patterns, m.Patterns...)
			if p.metrics[i].Unit == "" {
				p.metrics[i].Unit = m.Unit
			}
			continue
		}
		p.metrics = append(p.metrics, MetricRule{
			Key:      m.Key,
			Unit:     m.Unit,
			Patterns: append([]*regexp.Regexp(nil), m.Patterns...),
		})
	}
}

func compileSections(name string, d SectionDefinition) (SectionRules, error) {
	var (
		s   SectionRules
		err error
	)
	fields := []struct {
		field string
		src   []string
		dst   *[]*regexp.Regexp
	}{
		{"sections.management_start", d.ManagementStart, &s.ManagementStart},
		{"sections.analyst_start", d.AnalystStart, &s.AnalystStart},
		{"sections.section_end", d.SectionEnd, &s.SectionEnd},
		{"sections.moderator_label", d.ModeratorLabel, &s.ModeratorLabel},
		{"sections.moderator_intro", d.ModeratorIntro, &s.ModeratorIntro},
		{"sections.analyst_intro", d.AnalystIntro, &s.AnalystIntro},
		{"sections.qa_start", d.QAStart, &s.QAStart},
		{"sections.non_speaker_labels", d.NonSpeakerLabels, &s.NonSpeakerLabel},
	}
	for _, f := range fields {
		if *f.dst, err = compileAll(name, f.field, f.src); err != nil {
			return SectionRules{}, err
		}
	}
	if d.EntrySplit != "" {
		if s.EntrySplit, err = compileOne(name, "sections.entry_split", d.EntrySplit); err != nil {
			return SectionRules{}, err
		}
	}
	if d.EntrySeparator != "" {
		if s.EntrySeparator, err = compileOne(name, "sections.entry_separator", d.EntrySeparator); err != nil {
			return SectionRules{}, err
		}
	}
	return s, nil
}

func compileMetrics(name string, defs []MetricDefinition) ([]MetricRule, error) {
	var rules []MetricRule
	seen := make(map[types.MetricKey]bool)
	for _, d := range defs {
		if !types.IsKnownMetric(d.Key) {
			return nil, fmt.Errorf("profile %s: %w: %q", name, ErrUnknownMetric, d.Key)
		}
		if seen[d.Key] {
			return nil, fmt.Errorf("profile %s: metric %q defined twice", name, d.Key)
		}
		seen[d.Key] = true
		patterns, err := compileAll(name, "metrics."+string(d.Key), d.Patterns)
		if err != nil {
			return nil, err
		}
		rules = append(rules, MetricRule{Key: d.Key, Unit: d.Unit, Patterns: patterns})
	}
	return rules, nil
}

func compileRules(name, field string, src []string) ([]Rule, error) {
	res, err := compileAll(name, field, src)
	if err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(res))
	for _, re := range res {
		rules = append(rules, Rule{Re: re})
	}
	return rules, nil
}

func compileAll(name, field string, src []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(src))
	for _, s := range src {
		re, err := compileOne(name, field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func compileOne(name, field, src string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %s: %w", name, field, err)
	}
	return re, nil
}
