// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

func analyst(name, text string) Tagged {
	return Tagged{Speaker: types.Speaker{Name: name, Role: types.SpeakerAnalyst}, Key: NameKey(name), Text: text}
}

func mgmt(name, text string) Tagged {
	return Tagged{Speaker: types.Speaker{Name: name, Role: types.SpeakerManagement}, Key: NameKey(name), Text: text}
}

func moderator(text string) Tagged {
	return Tagged{Speaker: types.Speaker{Name: "Moderator", Role: types.SpeakerModerator}, Text: text}
}

func unknown(text string) Tagged {
	return Tagged{Speaker: types.Speaker{Role: types.SpeakerUnknown}, Text: text}
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name   string
		stream []Tagged
		want   []types.QASegment
	}{
		{
			name: "answer spanning paragraphs and trailing dangling question",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "How is pricing pressure?"),
				mgmt("Vinita Gupta", "Pressure has eased."),
				mgmt("Vinita Gupta", "Especially in the US."),
				analyst("Kunal Dhamesha", "Thanks."),
			},
			want: []types.QASegment{{
				AnalystName: "Kunal Dhamesha",
				Question:    "How is pricing pressure?",
				Answers:     []types.Answer{{Speaker: "Vinita Gupta", Response: "Pressure has eased. Especially in the US."}},
			}},
		},
		{
			name: "moderator inside an answer does not split it",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "Q?"),
				mgmt("Vinita Gupta", "Part one."),
				moderator("Sorry, the line dropped."),
				unknown("inaudible"),
				mgmt("Vinita Gupta", "Part two."),
			},
			want: []types.QASegment{{
				AnalystName: "Kunal Dhamesha",
				Question:    "Q?",
				Answers:     []types.Answer{{Speaker: "Vinita Gupta", Response: "Part one. Part two."}},
			}},
		},
		{
			name: "panel answer",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "Q?"),
				mgmt("Vinita Gupta", "US view."),
				mgmt("Ramesh Swaminathan", "Margin view."),
				mgmt("Vinita Gupta", "One more thing."),
			},
			want: []types.QASegment{{
				AnalystName: "Kunal Dhamesha",
				Question:    "Q?",
				Answers: []types.Answer{
					{Speaker: "Vinita Gupta", Response: "US view."},
					{Speaker: "Ramesh Swaminathan", Response: "Margin view."},
					{Speaker: "Vinita Gupta", Response: "One more thing."},
				},
			}},
		},
		{
			name: "multi paragraph question",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "First part."),
				moderator("Please continue."),
				analyst("Kunal Dhamesha", "Second part?"),
				mgmt("Vinita Gupta", "Answer."),
			},
			want: []types.QASegment{{
				AnalystName: "Kunal Dhamesha",
				Question:    "First part. Second part?",
				Answers:     []types.Answer{{Speaker: "Vinita Gupta", Response: "Answer."}},
			}},
		},
		{
			name: "different analyst discards unanswered question",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "Unanswered?"),
				analyst("Tushar Manudhane", "Answered?"),
				mgmt("Vinita Gupta", "Yes."),
			},
			want: []types.QASegment{{
				AnalystName: "Tushar Manudhane",
				Question:    "Answered?",
				Answers:     []types.Answer{{Speaker: "Vinita Gupta", Response: "Yes."}},
			}},
		},
		{
			name: "same analyst follow up is a new segment",
			stream: []Tagged{
				analyst("Kunal Dhamesha", "First?"),
				mgmt("Vinita Gupta", "One."),
				analyst("Kunal Dhamesha", "Follow up?"),
				mgmt("Ramesh Swaminathan", "Two."),
			},
			want: []types.QASegment{
				{
					AnalystName: "Kunal Dhamesha",
					Question:    "First?",
					Answers:     []types.Answer{{Speaker: "Vinita Gupta", Response: "One."}},
				},
				{
					AnalystName: "Kunal Dhamesha",
					Question:    "Follow up?",
					Answers:     []types.Answer{{Speaker: "Ramesh Swaminathan", Response: "Two."}},
				},
			},
		},
		{
			name: "opening remarks before any question ignored",
			stream: []Tagged{
				moderator("Welcome."),
				mgmt("Umang Vohra", "Opening remarks."),
				analyst("Kunal Dhamesha", "Q?"),
				mgmt("Umang Vohra", "A."),
			},
			want: []types.QASegment{{
				AnalystName: "Kunal Dhamesha",
				Question:    "Q?",
				Answers:     []types.Answer{{Speaker: "Umang Vohra", Response: "A."}},
			}},
		},
		{
			name:   "no analysts",
			stream: []Tagged{moderator("Welcome."), mgmt("Umang Vohra", "Remarks.")},
			want:   []types.QASegment{},
		},
		{
			name: "empty stream",
			want: []types.QASegment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Segment(tt.stream)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
			for _, seg := range got {
				assert.NotEmpty(t, seg.Answers, "every emitted segment has an answer")
			}
		})
	}
}

func TestSegmenter_States(t *testing.T) {
	s := NewSegmenter()
	assert.Equal(t, SeekingQuestion, s.State())

	s.Feed(mgmt("Umang Vohra", "Remarks."))
	assert.Equal(t, SeekingQuestion, s.State())

	s.Feed(analyst("Kunal Dhamesha", "Q?"))
	assert.Equal(t, InQuestion, s.State())

	s.Feed(moderator("..."))
	assert.Equal(t, InQuestion, s.State())

	s.Feed(mgmt("Umang Vohra", "A."))
	assert.Equal(t, InAnswer, s.State())

	s.Feed(analyst("Tushar Manudhane", "Next?"))
	assert.Equal(t, InQuestion, s.State())

	got := s.Close()
	assert.Equal(t, EndOfTranscript, s.State())
	require.Len(t, got, 1)

	s.Feed(analyst("Kunal Dhamesha", "Late?"))
	s.Feed(mgmt("Umang Vohra", "Late."))
	assert.Equal(t, EndOfTranscript, s.State())
	assert.Len(t, s.Close(), 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "seeking_question", SeekingQuestion.String())
	assert.Equal(t, "in_question", InQuestion.String())
	assert.Equal(t, "in_answer", InAnswer.String())
	assert.Equal(t, "end_of_transcript", EndOfTranscript.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSegment_FirmCarried(t *testing.T) {
	q := analyst("Kunal Dhamesha", "Q?")
	q.Firm = "Macquarie"

	got := Segment([]Tagged{q, mgmt("Vinita Gupta", "A.")})

	require.Len(t, got, 1)
	assert.Equal(t, "Macquarie", got[0].AnalystFirm)
}
