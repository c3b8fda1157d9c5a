// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package qa attributes transcript paragraphs to speakers and reconstructs
// question and answer turns from the attributed stream.
package qa

import (
	"strings"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

// State is the segmenter's position in the turn-taking protocol.
type State int

const (
	// SeekingQuestion waits for an analyst to open a question.
	SeekingQuestion State = iota
	// InQuestion accumulates the current analyst's question.
	InQuestion
	// InAnswer accumulates the current respondent's answer.
	InAnswer
	// EndOfTranscript is terminal; all further input is ignored.
	EndOfTranscript
)

func (s State) String() string {
	switch s {
	case SeekingQuestion:
		return "seeking_question"
	case InQuestion:
		return "in_question"
	case InAnswer:
		return "in_answer"
	case EndOfTranscript:
		return "end_of_transcript"
	}
	return "unknown"
}

// Segmenter is a single-pass state machine over tagged paragraphs.
// Moderator and unknown paragraphs never change state. A segment is only
// emitted once it has at least one answer; a question still open when a
// different analyst speaks, or when the transcript ends, is discarded.
type Segmenter struct {
	state State
	out   []types.QASegment

	seg      types.QASegment
	asker    string
	question []string

	respondent    string
	respondentKey string
	answer        []string
}

// NewSegmenter returns a segmenter in SeekingQuestion.
func NewSegmenter() *Segmenter {
	return &Segmenter{state: SeekingQuestion, out: []types.QASegment{}}
}

// State returns the current state.
func (s *Segmenter) State() State { return s.state }

// Feed advances the machine by one paragraph.
func (s *Segmenter) Feed(p Tagged) {
	role := p.Speaker.Role
	if role == types.SpeakerModerator || role == types.SpeakerUnknown {
		return
	}

	switch s.state {
	case SeekingQuestion:
		if role == types.SpeakerAnalyst {
			s.openQuestion(p)
		}

	case InQuestion:
		switch {
		case role == types.SpeakerAnalyst && p.Key == s.asker:
			s.question = append(s.question, p.Text)
		case role == types.SpeakerAnalyst:
			s.openQuestion(p)
		case role == types.SpeakerManagement:
			s.seg.Question = joinText(s.question)
			s.openAnswer(p)
			s.state = InAnswer
		}

	case InAnswer:
		switch {
		case role == types.SpeakerManagement && p.Key == s.respondentKey:
			s.answer = append(s.answer, p.Text)
		case role == types.SpeakerManagement:
			s.closeAnswer()
			s.openAnswer(p)
		case role == types.SpeakerAnalyst:
			s.closeAnswer()
			s.out = append(s.out, s.seg)
			s.openQuestion(p)
		}

	case EndOfTranscript:
	}
}

// Close ends the transcript and returns the completed segments. A segment
// still in InAnswer is emitted; one still in InQuestion is dropped.
func (s *Segmenter) Close() []types.QASegment {
	switch s.state {
	case InAnswer:
		s.closeAnswer()
		s.out = append(s.out, s.seg)
	case InQuestion:
		s.seg = types.QASegment{}
	}
	s.state = EndOfTranscript
	return s.out
}

// openQuestion starts a new segment, discarding any unanswered question.
func (s *Segmenter) openQuestion(p Tagged) {
	s.seg = types.QASegment{
		AnalystName: p.Speaker.Name,
		AnalystFirm: p.Firm,
		Answers:     []types.Answer{},
	}
	s.asker = p.Key
	s.question = []string{p.Text}
	s.state = InQuestion
}

func (s *Segmenter) openAnswer(p Tagged) {
	s.respondent = p.Speaker.Name
	s.respondentKey = p.Key
	s.answer = []string{p.Text}
}

func (s *Segmenter) closeAnswer() {
	s.seg.Answers = append(s.seg.Answers, types.Answer{
		Speaker:  s.respondent,
		Response: joinText(s.answer),
	})
	s.answer = nil
}

func joinText(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// Segment runs a fresh segmenter over tagged and returns its segments.
func Segment(tagged []Tagged) []types.QASegment {
	s := NewSegmenter()
	for _, p := range tagged {
		s.Feed(p)
	}
	return s.Close()
}
