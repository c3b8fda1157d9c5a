// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile holds company-specific extraction patterns and resolves
// which profile applies to a transcript.
//
// A Profile is compiled once from a Definition and never mutated. Company
// profiles inherit the default profile's generic rules: company rules are
// tried first, generic rules after them.
package profile

import (
	"regexp"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// Rule is one ordered pattern for a single field. When Fixed is set a match
// yields Fixed; otherwise it yields the "value" group, capture group 1, or
// the whole match, in that order of preference.
type Rule struct {
	Re    *regexp.Regexp
	Fixed string
}

// Find applies the rule to s and returns the extracted value.
func (r Rule) Find(s string) (string, bool) {
	m := r.Re.FindStringSubmatchIndex(s)
	if m == nil {
		return "", false
	}
	if r.Fixed != "" {
		return r.Fixed, true
	}
	return groupValue(r.Re, s, m, "value"), true
}

// FindAll returns every value the rule extracts from s, in order.
func (r Rule) FindAll(s string) []string {
	var out []string
	for _, m := range r.Re.FindAllStringSubmatchIndex(s, -1) {
		if r.Fixed != "" {
			out = append(out, r.Fixed)
			continue
		}
		out = append(out, groupValue(r.Re, s, m, "value"))
	}
	return out
}

// groupValue returns the named group if present and matched, else group 1
// if matched, else the whole match.
func groupValue(re *regexp.Regexp, s string, m []int, name string) string {
	if i := re.SubexpIndex(name); i > 0 && m[2*i] >= 0 {
		return s[m[2*i]:m[2*i+1]]
	}
	if re.NumSubexp() >= 1 && m[2] >= 0 {
		return s[m[2]:m[3]]
	}
	return s[m[0]:m[1]]
}

// Group returns the text of the named group in a match produced by
// re.FindStringSubmatchIndex, or "" when the group is absent or unmatched.
func Group(re *regexp.Regexp, s string, m []int, name string) string {
	i := re.SubexpIndex(name)
	if i <= 0 || m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}

// HeaderRules are the ordered rules for each header field.
type HeaderRules struct {
	Company    []Rule
	Date       []Rule
	Quarter    []Rule
	FiscalYear []Rule
}

// SectionRules locate roster sections and speaker cues.
type SectionRules struct {
	// ManagementStart and AnalystStart match the first paragraph of a roster section.
	ManagementStart []*regexp.Regexp
	AnalystStart    []*regexp.Regexp

	// SectionEnd matches a paragraph that closes any roster section.
	SectionEnd []*regexp.Regexp

	// EntrySplit matches the start of each roster entry inside a section
	// (honorifics); EntrySeparator splits an entry into name and title.
	EntrySplit     *regexp.Regexp
	EntrySeparator *regexp.Regexp

	// ModeratorLabel matches speaker labels that belong to the moderator.
	ModeratorLabel []*regexp.Regexp

	// ModeratorIntro captures the moderator's name from a self-introduction.
	ModeratorIntro []*regexp.Regexp

	// AnalystIntro captures an analyst name (group "name") and firm (group
	// "firm") from the moderator's introduction of the next question.
	AnalystIntro []*regexp.Regexp

	// QAStart marks the beginning of the question-and-answer session.
	QAStart []*regexp.Regexp

	// NonSpeakerLabel matches labels that are inline headings, not speakers.
	NonSpeakerLabel []*regexp.Regexp
}

// SpeakerHints lists names known to belong to a company's management.
type SpeakerHints struct {
	Management []string
}

// MetricRule is the ordered pattern list for one canonical metric key.
type MetricRule struct {
	Key      types.MetricKey
	Unit     string
	Patterns []*regexp.Regexp
}

// Profile is a compiled, read-only company profile.
type Profile struct {
	name      string
	aliases   []string
	company   []*regexp.Regexp
	header    HeaderRules
	sections  SectionRules
	speakers  SpeakerHints
	metrics   []MetricRule
	isDefault bool
}

// Name returns the canonical company name (e.g. "CIPLA").
func (p *Profile) Name() string { return p.name }

// Aliases returns the identifiers a hint may use for this company.
func (p *Profile) Aliases() []string { return p.aliases }

// IsDefault reports whether p is the generic fallback profile.
func (p *Profile) IsDefault() bool { return p.isDefault }

// Header returns the header field rules.
func (p *Profile) Header() HeaderRules { return p.header }

// Sections returns the roster section and speaker cue rules.
func (p *Profile) Sections() SectionRules { return p.sections }

// Speakers returns the known management names.
func (p *Profile) Speakers() SpeakerHints { return p.speakers }

// Metrics returns the metric rules in priority order.
func (p *Profile) Metrics() []MetricRule { return p.metrics }

// MentionedIn reports whether any of the profile's company-name patterns
// matches text.
func (p *Profile) MentionedIn(text string) bool {
	for _, re := range p.company {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
