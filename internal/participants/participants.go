// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package participants extracts the management and analyst rosters from
// the introduction sections of a transcript.
package participants

import (
	"regexp"
	"strings"

	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// DefaultBudget caps how many paragraphs one roster section may span when
// budget <= 0.
const DefaultBudget = 12

// Rules supplies section boundary and entry patterns.
type Rules interface {
	Sections() profile.SectionRules
}

// Roster is the result of participant extraction.
type Roster struct {
	// Management is deduplicated by case-folded name, in first-seen order.
	Management []types.Participant

	// Analysts holds the analyst section entries, or when the transcript has
	// no analyst section, one entry per moderator introduction. Repeats are
	// kept: an analyst may ask more than once.
	Analysts []types.Participant

	// Moderator is the moderator's self-introduced name, if any.
	Moderator string

	// BodyStart is the index of the first paragraph after the last roster
	// section; 0 when no section was found.
	BodyStart int
}

type section int

const (
	sectionNone section = iota
	sectionManagement
	sectionAnalyst
)

// Extract scans paragraphs for roster sections. A section opens at a
// management or analyst start pattern and closes at the next section
// start, a section-end pattern, or after budget paragraphs. Sections are
// only recognised before the call is opened by a section-end paragraph.
// A roster line is never dropped: when it cannot be split into name and
// title or firm, the raw line becomes the name.
func Extract(paragraphs []string, rules Rules, budget int) Roster {
	if budget <= 0 {
		budget = DefaultBudget
	}
	sr := rules.Sections()

	var (
		r       Roster
		current = sectionNone
		span    int
		opened  bool
		seen    = make(map[string]bool)
	)

	add := func(role section, body string) {
		for _, p := range parseEntries(body, role, sr) {
			if role == sectionManagement {
				key := foldName(p.Name)
				if seen[key] {
					continue
				}
				seen[key] = true
				r.Management = append(r.Management, p)
				continue
			}
			r.Analysts = append(r.Analysts, p)
		}
	}

	for i, para := range paragraphs {
		if !opened {
			if body, ok := matchStart(sr.ManagementStart, para); ok {
				current, span = sectionManagement, 1
				add(current, body)
				r.BodyStart = i + 1
				continue
			}
			if body, ok := matchStart(sr.AnalystStart, para); ok {
				current, span = sectionAnalyst, 1
				add(current, body)
				r.BodyStart = i + 1
				continue
			}
		}

		if matchAny(sr.SectionEnd, para) {
			current = sectionNone
			opened = true
		}
		if current != sectionNone && span >= budget {
			current = sectionNone
		}
		if current != sectionNone {
			span++
			add(current, para)
			r.BodyStart = i + 1
		}

		if r.Moderator == "" {
			r.Moderator = findModerator(sr.ModeratorIntro, para)
		}
	}

	if len(r.Analysts) == 0 {
		r.Analysts = Introductions(paragraphs, rules)
	}
	return r
}

// Introductions returns one analyst per moderator introduction ("the next
// question is from the line of X from Firm"), in transcript order.
func Introductions(paragraphs []string, rules Rules) []types.Participant {
	var out []types.Participant
	for _, para := range paragraphs {
		if p, ok := Introduction(para, rules); ok {
			out = append(out, p)
		}
	}
	return out
}

// Introduction extracts the analyst introduced by a moderator paragraph.
func Introduction(para string, rules Rules) (types.Participant, bool) {
	for _, re := range rules.Sections().AnalystIntro {
		m := re.FindStringSubmatchIndex(para)
		if m == nil {
			continue
		}
		name := cleanName(profile.Group(re, para, m, "name"))
		if name == "" {
			continue
		}
		return types.Participant{
			Name: name,
			Firm: cleanField(profile.Group(re, para, m, "firm")),
			Role: types.RoleAnalystParticipant,
		}, true
	}
	return types.Participant{}, false
}

// matchStart reports whether para opens a section and returns the text
// following the start marker.
func matchStart(res []*regexp.Regexp, para string) (string, bool) {
	for _, re := range res {
		if loc := re.FindStringIndex(para); loc != nil && loc[0] == 0 {
			return strings.TrimSpace(para[loc[1]:]), true
		}
	}
	return "", false
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func findModerator(res []*regexp.Regexp, para string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(para); len(m) > 1 {
			return cleanName(m[1])
		}
	}
	return ""
}

// parseEntries splits a roster paragraph into entries at ';' and at each
// honorific, then splits every entry into name and title or firm.
func parseEntries(body string, role section, sr profile.SectionRules) []types.Participant {
	var out []types.Participant
	for _, chunk := range strings.Split(body, ";") {
		for _, entry := range splitAtHonorifics(chunk, sr.EntrySplit) {
			if p, ok := parseEntry(entry, role, sr); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

func splitAtHonorifics(chunk string, re *regexp.Regexp) []string {
	if re == nil {
		return []string{chunk}
	}
	var (
		out  []string
		prev int
	)
	for _, loc := range re.FindAllStringIndex(chunk, -1) {
		if loc[0] == 0 {
			continue
		}
		out = append(out, chunk[prev:loc[0]])
		prev = loc[0]
	}
	return append(out, chunk[prev:])
}

func parseEntry(entry string, role section, sr profile.SectionRules) (types.Participant, bool) {
	raw := cleanField(entry)
	if raw == "" {
		return types.Participant{}, false
	}

	rest := raw
	if sr.EntrySplit != nil {
		if loc := sr.EntrySplit.FindStringIndex(rest); loc != nil && loc[0] == 0 {
			rest = strings.TrimSpace(rest[loc[1]:])
		}
	}

	p := types.Participant{Name: raw}
	if role == sectionManagement {
		p.Role = types.RoleManagementParticipant
	} else {
		p.Role = types.RoleAnalystParticipant
	}

	if sr.EntrySeparator == nil {
		return p, true
	}
	loc := sr.EntrySeparator.FindStringIndex(rest)
	if loc == nil || loc[0] == 0 {
		return p, true
	}
	name := cleanName(rest[:loc[0]])
	other := cleanField(rest[loc[1]:])
	if name == "" || other == "" {
		return p, true
	}

	p.Name = name
	if role == sectionManagement {
		p.Title = other
	} else {
		p.Firm = other
	}
	return p, true
}

// cleanField collapses whitespace and trims list punctuation.
func cleanField(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " ,;.-–—")
}

// cleanName is cleanField for person names; a trailing initial keeps its dot.
func cleanName(s string) string {
	return strings.TrimRight(strings.Join(strings.Fields(s), " "), " ,;:-–—")
}

func foldName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
