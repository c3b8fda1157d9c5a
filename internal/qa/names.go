// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qa

import (
	"strings"
	"unicode"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

var honorifics = map[string]bool{
	"mr": true, "ms": true, "mrs": true, "dr": true, "prof": true, "shri": true,
}

// NameKey folds a person name for comparison: lower case, punctuation
// removed, honorifics dropped. "Dr. Nilesh  GUPTA" becomes "nilesh gupta".
func NameKey(name string) string {
	return strings.Join(nameTokens(name), " ")
}

func nameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	out := fields[:0]
	for i, f := range fields {
		if i == 0 && honorifics[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// StripHonorific removes a leading honorific from a display name.
func StripHonorific(name string) string {
	fields := strings.Fields(name)
	if len(fields) > 1 && honorifics[strings.ToLower(strings.TrimRight(fields[0], "."))] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// person is one known speaker in a directory.
type person struct {
	key    string
	tokens []string
	role   types.SpeakerRole
	firm   string
}

// directory resolves speaker labels to known people. Lookups try a full
// name match, then a first-and-last token match, then a single token that
// identifies exactly one person.
type directory struct {
	people []person
	byKey  map[string]int
}

func newDirectory() *directory {
	return &directory{byKey: make(map[string]int)}
}

// add registers a name. A key already present keeps its first role; an
// empty firm is filled in by a later registration.
func (d *directory) add(name string, role types.SpeakerRole, firm string) {
	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return
	}
	key := strings.Join(tokens, " ")
	if i, ok := d.byKey[key]; ok {
		if d.people[i].firm == "" {
			d.people[i].firm = firm
		}
		return
	}
	d.byKey[key] = len(d.people)
	d.people = append(d.people, person{key: key, tokens: tokens, role: role, firm: firm})
}

// lookup returns the person a label refers to.
func (d *directory) lookup(label string) (person, bool) {
	tokens := nameTokens(label)
	if len(tokens) == 0 {
		return person{}, false
	}
	if i, ok := d.byKey[strings.Join(tokens, " ")]; ok {
		return d.people[i], true
	}

	if len(tokens) >= 2 {
		first, last := tokens[0], tokens[len(tokens)-1]
		match := -1
		for i, p := range d.people {
			if len(p.tokens) < 2 || p.tokens[0] != first || p.tokens[len(p.tokens)-1] != last {
				continue
			}
			if match >= 0 {
				return person{}, false
			}
			match = i
		}
		if match >= 0 {
			return d.people[match], true
		}
		return person{}, false
	}

	match := -1
	for i, p := range d.people {
		if !containsToken(p.tokens, tokens[0]) {
			continue
		}
		if match >= 0 {
			return person{}, false
		}
		match = i
	}
	if match >= 0 {
		return d.people[match], true
	}
	return person{}, false
}

func containsToken(tokens []string, t string) bool {
	for _, x := range tokens {
		if x == t {
			return true
		}
	}
	return false
}
