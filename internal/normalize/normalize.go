// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns raw text extracted from an earnings-call PDF into
// a canonical stream of paragraphs, one logical utterance each.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFurnitureRunes bounds the length of a line that may be treated as a
// running page header or footer.
const maxFurnitureRunes = 80

var (
	// pageMarkerRe matches page separators inserted by text extractors,
	// e.g. "--- PAGE 3 ---".
	pageMarkerRe = regexp.MustCompile(`(?i)^-{2,}\s*page\s+\d+\s*-{2,}$`)

	// pageNumberRe matches page numbering lines like "Page 3 of 17" or "Page 3".
	pageNumberRe = regexp.MustCompile(`(?i)^page\s+\d+(?:\s+of\s+\d+)?$`)

	// labelRe matches a leading speaker label: one to five capitalised
	// tokens, optionally preceded by an honorific, followed by a colon.
	labelRe = regexp.MustCompile(`^((?:(?:Mr|Ms|Mrs|Dr|Prof|MR|MS|MRS|DR|PROF)\.?\s+)?\p{Lu}[\p{L}'.\-]*(?:\s+\p{Lu}[\p{L}'.\-]*){0,4})\s*:\s*(.*)$`)
)

// reservedLabels are document-structure words that precede a colon without
// naming a speaker. Paragraphs are built before a profile is resolved, so
// company and domain vocabulary belongs in a profile's non_speaker_labels.
var reservedLabels = map[string]bool{
	"page":              true,
	"note":              true,
	"notes":             true,
	"question":          true,
	"questions":         true,
	"answer":            true,
	"answers":           true,
	"company":           true,
	"date":              true,
	"time":              true,
	"disclaimer":        true,
	"source":            true,
	"subject":           true,
	"ref":               true,
	"website":           true,
	"email":             true,
	"e-mail":            true,
	"phone":             true,
	"tel":               true,
	"fax":               true,
	"cin":               true,
	"symbol":            true,
	"scrip code":        true,
	"registered office": true,
	"regd. office":      true,
}

var canonicalReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u200b", "",
	"\ufeff", "",
	"\t", " ",
)

// Paragraphs normalizes raw text into paragraphs. Lines are joined until a
// blank line or a speaker-label line; a label line always starts a new
// paragraph. Internal whitespace is collapsed to single spaces. Paragraphs
// never fails: malformed input degrades to fewer, longer paragraphs.
func Paragraphs(raw string) []string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "\uFFFD")
	}
	lines := stripPageFurniture(splitPages(canonicalize(raw)))

	var (
		paragraphs []string
		current    []string
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		if p := joinLines(current); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if _, _, ok := SplitLabel(trimmed); ok {
			flush()
		}
		current = append(current, trimmed)
	}
	flush()

	return paragraphs
}

// SplitLabel separates a leading speaker label from the rest of a paragraph.
// It reports false when the paragraph does not start with a label.
func SplitLabel(paragraph string) (label, body string, ok bool) {
	m := labelRe.FindStringSubmatch(paragraph)
	if m == nil {
		return "", paragraph, false
	}
	label = strings.Join(strings.Fields(m[1]), " ")
	if len(label) > 60 || reservedLabels[strings.ToLower(label)] {
		return "", paragraph, false
	}
	return label, strings.TrimSpace(m[2]), true
}

// canonicalize unifies line endings, quotes and invisible characters and
// drops control characters other than newline and form feed.
func canonicalize(raw string) string {
	s := canonicalReplacer.Replace(raw)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\f' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// splitPages splits text into pages on form feeds and page marker lines.
// Each page is returned as its lines.
func splitPages(text string) [][]string {
	var (
		pages   [][]string
		current []string
	)
	for _, chunk := range strings.Split(text, "\f") {
		for _, line := range strings.Split(chunk, "\n") {
			if pageMarkerRe.MatchString(strings.TrimSpace(line)) {
				pages = append(pages, current)
				current = nil
				continue
			}
			current = append(current, line)
		}
		pages = append(pages, current)
		current = nil
	}
	return pages
}

// stripPageFurniture removes page numbering lines and running headers or
// footers, then flattens the pages back into a single line stream. A short
// line that is the first or last non-blank line of two or more pages is a
// running header or footer; its first occurrence is kept.
func stripPageFurniture(pages [][]string) []string {
	edgeCounts := make(map[string]int)
	for i, page := range pages {
		page = dropPageNumbers(page)
		pages[i] = page
		for _, edge := range pageEdges(page) {
			edgeCounts[edge]++
		}
	}

	seen := make(map[string]bool)
	var out []string
	for _, page := range pages {
		first, last := edgeIndexes(page)
		for i, line := range page {
			if i == first || i == last {
				key := furnitureKey(line)
				if edgeCounts[key] >= 2 {
					if seen[key] {
						continue
					}
					seen[key] = true
				}
			}
			out = append(out, line)
		}
	}
	return out
}

func dropPageNumbers(page []string) []string {
	kept := page[:0:0]
	for _, line := range page {
		if pageNumberRe.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

// pageEdges returns the furniture keys of a page's first and last non-blank
// lines, skipping lines that cannot be furniture.
func pageEdges(page []string) []string {
	first, last := edgeIndexes(page)
	var edges []string
	for _, i := range []int{first, last} {
		if i < 0 {
			continue
		}
		if key := furnitureKey(page[i]); key != "" {
			edges = append(edges, key)
		}
		if first == last {
			break
		}
	}
	return edges
}

func edgeIndexes(page []string) (first, last int) {
	first, last = -1, -1
	for i, line := range page {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

// furnitureKey returns the comparison key for a candidate header or footer
// line, or "" when the line is too long or is a speaker label.
func furnitureKey(line string) string {
	key := strings.Join(strings.Fields(line), " ")
	if key == "" || utf8.RuneCountInString(key) > maxFurnitureRunes {
		return ""
	}
	if _, _, ok := SplitLabel(key); ok {
		return ""
	}
	return key
}

// joinLines joins the lines of one paragraph, repairing words hyphenated
// across a line break, and collapses whitespace.
func joinLines(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			prev := b.String()
			if endsWithWordHyphen(prev) && startsLower(line) {
				b.Reset()
				b.WriteString(prev[:len(prev)-1])
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(line)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func endsWithWordHyphen(s string) bool {
	if !strings.HasSuffix(s, "-") || len(s) < 2 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:len(s)-1])
	return unicode.IsLetter(r)
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}
