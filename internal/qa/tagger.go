// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qa

import (
	"regexp"

	"github.com/pdiddy/earnings-extractor/internal/normalize"
	"github.com/pdiddy/earnings-extractor/internal/participants"
	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// Rules supplies speaker cues and known management names.
type Rules interface {
	Sections() profile.SectionRules
	Speakers() profile.SpeakerHints
}

// Tagged is a paragraph attributed to a speaker.
type Tagged struct {
	Speaker types.Speaker

	// Key identifies the speaker across paragraphs (see NameKey). Empty for
	// the moderator and for unknown speakers.
	Key string

	// Firm is the analyst's firm when known.
	Firm string

	// Text is the paragraph without its speaker label, or the whole
	// paragraph when the label names nobody.
	Text string
}

// Tagger attributes paragraphs to speakers. It keeps state across calls to
// Tag: speakers learned earlier in a transcript are recognised later.
type Tagger struct {
	sections profile.SectionRules
	rules    Rules
	people   *directory
	display  map[string]string

	moderator string
	qaStarted bool
	introKey  string
	prev      Tagged
	havePrev  bool
}

// NewTagger builds a tagger from the profile's cues and the extracted
// roster. Management names come from the roster and the profile's hints.
func NewTagger(rules Rules, roster participants.Roster) *Tagger {
	t := &Tagger{
		sections:  rules.Sections(),
		rules:     rules,
		people:    newDirectory(),
		display:   make(map[string]string),
		moderator: NameKey(roster.Moderator),
	}
	for _, p := range roster.Management {
		t.people.add(p.Name, types.SpeakerManagement, "")
	}
	for _, name := range rules.Speakers().Management {
		t.people.add(name, types.SpeakerManagement, "")
	}
	for _, p := range roster.Analysts {
		t.people.add(p.Name, types.SpeakerAnalyst, p.Firm)
	}
	return t
}

// Tag attributes each paragraph in order.
//
// A labelled paragraph is resolved as: the moderator, a known management
// or analyst name, the analyst just introduced by the moderator, or a new
// speaker before the Q&A session (learned as management). During Q&A an
// unresolved label continues the previous speaker's turn with the label
// kept in the text, so inline headings such as "Gross Margin: 65%" stay
// in the answer. Labels matching the profile's non-speaker labels are
// treated as text. Anything else is unknown.
//
// An unlabelled paragraph continues the previous speaker, except operator
// instructions ("press star and one"), which are the moderator's. Queue
// housekeeping ("back in the question queue") is the moderator's only
// when nobody else holds the floor.
func (t *Tagger) Tag(paragraphs []string) []Tagged {
	out := make([]Tagged, 0, len(paragraphs))
	for _, para := range paragraphs {
		out = append(out, t.tagOne(para))
	}
	return out
}

func (t *Tagger) tagOne(para string) Tagged {
	if !t.qaStarted && matchAny(t.sections.QAStart, para) {
		t.qaStarted = true
	}

	label, body, ok := normalize.SplitLabel(para)
	if ok && matchAny(t.sections.NonSpeakerLabel, label) {
		ok = false
	}
	if !ok {
		if operatorInstruction.MatchString(para) || (queueHousekeeping.MatchString(para) && !t.holdsFloor()) {
			tg := Tagged{Speaker: types.Speaker{Name: t.moderatorName(), Role: types.SpeakerModerator}, Text: para}
			t.observeModerator(tg, para)
			t.prev, t.havePrev = tg, true
			return tg
		}
		if !t.havePrev {
			return Tagged{Speaker: types.Speaker{Role: types.SpeakerUnknown}, Text: para}
		}
		tg := t.prev
		tg.Text = para
		t.observeModerator(tg, para)
		return tg
	}

	tg, resolved := t.resolve(label)
	if !resolved && t.qaStarted && t.holdsFloor() {
		tg = t.prev
		tg.Text = para
		return tg
	}
	tg.Text = body
	t.observeModerator(tg, body)
	t.prev, t.havePrev = tg, true
	return tg
}

// holdsFloor reports whether an analyst or management speaker spoke last.
func (t *Tagger) holdsFloor() bool {
	if !t.havePrev {
		return false
	}
	role := t.prev.Speaker.Role
	return role == types.SpeakerAnalyst || role == types.SpeakerManagement
}

// resolve identifies the speaker named by label. It reports false when
// the label matches nobody.
func (t *Tagger) resolve(label string) (Tagged, bool) {
	name := StripHonorific(label)
	key := NameKey(label)

	if matchAny(t.sections.ModeratorLabel, label) || (t.moderator != "" && key == t.moderator) {
		return Tagged{Speaker: types.Speaker{Name: name, Role: types.SpeakerModerator}}, true
	}

	intro := t.introKey
	t.introKey = ""

	if p, ok := t.people.lookup(label); ok {
		if p.role == types.SpeakerAnalyst {
			t.qaStarted = true
		}
		return t.tagged(p.key, name, p.role, p.firm), true
	}

	if intro != "" {
		p, _ := t.people.lookup(intro)
		t.people.add(label, types.SpeakerAnalyst, p.firm)
		t.qaStarted = true
		return t.tagged(key, name, types.SpeakerAnalyst, p.firm), true
	}

	if !t.qaStarted {
		t.people.add(label, types.SpeakerManagement, "")
		return t.tagged(key, name, types.SpeakerManagement, ""), true
	}

	return Tagged{Speaker: types.Speaker{Name: name, Role: types.SpeakerUnknown}}, false
}

var (
	// operatorInstruction matches dialling instructions only the operator
	// reads out, which transcripts often leave unlabelled.
	operatorInstruction = regexp.MustCompile(`(?i)(\bpress\s+(star|\*)|(\bstar|\*)\s+(and|then)\s+\d|\bthis conference (call )?is being recorded|\btouch-?tone)`)

	// queueHousekeeping matches waiting and queue phrases that analysts
	// also use when handing back the floor.
	queueHousekeeping = regexp.MustCompile(`(?i)(\bplease stand by|\bremain on hold|\bquestion queue)`)
)

func (t *Tagger) moderatorName() string {
	if t.prev.Speaker.Role == types.SpeakerModerator {
		return t.prev.Speaker.Name
	}
	return "Moderator"
}

// tagged builds a Tagged using the first display name seen for key.
func (t *Tagger) tagged(key, name string, role types.SpeakerRole, firm string) Tagged {
	if shown, ok := t.display[key]; ok {
		name = shown
	} else {
		t.display[key] = name
	}
	return Tagged{Speaker: types.Speaker{Name: name, Role: role}, Key: key, Firm: firm}
}

// observeModerator registers analysts introduced by the moderator. The
// next unresolved label is taken to be the introduced analyst.
func (t *Tagger) observeModerator(tg Tagged, text string) {
	if tg.Speaker.Role != types.SpeakerModerator {
		return
	}
	p, ok := participants.Introduction(text, t.rules)
	if !ok {
		return
	}
	t.people.add(p.Name, types.SpeakerAnalyst, p.Firm)
	t.introKey = NameKey(p.Name)
	t.qaStarted = true
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
