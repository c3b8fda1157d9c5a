// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/internal/participants"
	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

func registry(t *testing.T) *profile.Registry {
	t.Helper()
	r, err := profile.Builtin()
	require.NoError(t, err)
	r.Seal()
	return r
}

func roles(tagged []Tagged) []types.SpeakerRole {
	out := make([]types.SpeakerRole, len(tagged))
	for i, tg := range tagged {
		out[i] = tg.Speaker.Role
	}
	return out
}

func TestTagger_Roster(t *testing.T) {
	roster := participants.Roster{
		Management: []types.Participant{{Name: "VINITA GUPTA", Title: "CEO", Role: types.RoleManagementParticipant}},
		Analysts:   []types.Participant{{Name: "KUNAL DHAMESHA", Firm: "MACQUARIE", Role: types.RoleAnalystParticipant}},
	}
	tagger := NewTagger(registry(t).Default(), roster)

	got := tagger.Tag([]string{
		"Moderator: Thank you.",
		"Kunal Dhamesha: How is pricing pressure?",
		"Ms. Vinita Gupta: Pressure has eased.",
		"Especially in the US.",
	})

	require.Len(t, got, 4)
	assert.Equal(t, []types.SpeakerRole{
		types.SpeakerModerator,
		types.SpeakerAnalyst,
		types.SpeakerManagement,
		types.SpeakerManagement,
	}, roles(got))
	assert.Equal(t, "Kunal Dhamesha", got[1].Speaker.Name)
	assert.Equal(t, "MACQUARIE", got[1].Firm)
	assert.Equal(t, "How is pricing pressure?", got[1].Text)
	assert.Equal(t, "Vinita Gupta", got[2].Speaker.Name)
	assert.Equal(t, "vinita gupta", got[3].Key)
	assert.Equal(t, "Especially in the US.", got[3].Text)
}

func TestTagger_LearnedSpeakers(t *testing.T) {
	tagger := NewTagger(registry(t).Default(), participants.Roster{})

	got := tagger.Tag([]string{
		"Umang Vohra: Good morning and thank you for joining.",
		"Moderator: The first question is from the line of Nitin Agarwal from DAM Capital. Please go ahead.",
		"Nitin A.: Congratulations on the quarter.",
		"Umang: Thank you, Nitin.",
		"Samir: And on margins, they held.",
		"Moderator: Thank you.",
		"Random Person: Hello?",
	})

	assert.Equal(t, []types.SpeakerRole{
		types.SpeakerManagement,
		types.SpeakerModerator,
		types.SpeakerAnalyst,
		types.SpeakerManagement,
		types.SpeakerManagement,
		types.SpeakerModerator,
		types.SpeakerUnknown,
	}, roles(got))
	assert.Equal(t, "DAM Capital", got[2].Firm)
	assert.Equal(t, "Umang Vohra", got[3].Speaker.Name, "display name follows first sighting")
	assert.Equal(t, got[3].Key, got[4].Key, "unresolved label continues the previous speaker")
	assert.Equal(t, "Samir: And on margins, they held.", got[4].Text)
	assert.Equal(t, "Hello?", got[6].Text)
}

func TestTagger_InlineHeadingsStayInAnswer(t *testing.T) {
	roster := participants.Roster{
		Management: []types.Participant{{Name: "UMANG VOHRA", Role: types.RoleManagementParticipant}},
	}
	tagger := NewTagger(registry(t).Default(), roster)

	segments := Segment(tagger.Tag([]string{
		"Moderator: The first question is from the line of Neha Manpuria from Bank of America. Please go ahead.",
		"Neha Manpuria: Could you split the quarter by region?",
		"Umang Vohra: Let me summarize the segment numbers.",
		"Gross Margin: 65% for the quarter.",
		"North America: USD 233 million.",
		"Africa Operations: steady.",
		"First: mix. Second: cost.",
		"That is all.",
	}))

	require.Len(t, segments, 1)
	require.Len(t, segments[0].Answers, 1)
	assert.Equal(t, "Umang Vohra", segments[0].Answers[0].Speaker)
	assert.Equal(t,
		"Let me summarize the segment numbers. Gross Margin: 65% for the quarter. North America: USD 233 million. "+
			"Africa Operations: steady. First: mix. Second: cost. That is all.",
		segments[0].Answers[0].Response)
}

func TestTagger_AnalystHandsBackFloor(t *testing.T) {
	roster := participants.Roster{
		Management: []types.Participant{{Name: "UMANG VOHRA", Role: types.RoleManagementParticipant}},
		Analysts:   []types.Participant{{Name: "NEHA MANPURIA", Firm: "BANK OF AMERICA", Role: types.RoleAnalystParticipant}},
	}
	tagger := NewTagger(registry(t).Default(), roster)

	got := tagger.Tag([]string{
		"Neha Manpuria: What drove margins?",
		"And second, on pricing. That's it, I'll get back in the question queue.",
		"Umang Vohra: Mix and pricing both helped.",
		"Moderator: Thank you.",
		"Please stand by while we assemble the question queue.",
	})

	assert.Equal(t, []types.SpeakerRole{
		types.SpeakerAnalyst,
		types.SpeakerAnalyst,
		types.SpeakerManagement,
		types.SpeakerModerator,
		types.SpeakerModerator,
	}, roles(got))

	segments := Segment(got)
	require.Len(t, segments, 1)
	assert.Equal(t, "What drove margins? And second, on pricing. That's it, I'll get back in the question queue.", segments[0].Question)
}

func TestTagger_ProfileHints(t *testing.T) {
	cipla, ok := registry(t).Get("CIPLA")
	require.True(t, ok)
	tagger := NewTagger(cipla, participants.Roster{})

	got := tagger.Tag([]string{
		"Moderator: The next question is from the line of Tushar Manudhane from Motilal Oswal.",
		"Tushar Manudhane: On the US pipeline?",
		"Kedar Upadhye: We expect launches.",
	})

	assert.Equal(t, []types.SpeakerRole{
		types.SpeakerModerator,
		types.SpeakerAnalyst,
		types.SpeakerManagement,
	}, roles(got))
}

func TestTagger_ModeratorByName(t *testing.T) {
	tagger := NewTagger(registry(t).Default(), participants.Roster{Moderator: "Ryan"})

	got := tagger.Tag([]string{"Ryan: Ladies and gentlemen, welcome."})

	require.Len(t, got, 1)
	assert.Equal(t, types.SpeakerModerator, got[0].Speaker.Role)
}

func TestTagger_LeadingUnlabelled(t *testing.T) {
	tagger := NewTagger(registry(t).Default(), participants.Roster{})

	got := tagger.Tag([]string{"CIPLA LIMITED Q1 FY26 Earnings Call"})

	require.Len(t, got, 1)
	assert.Equal(t, types.SpeakerUnknown, got[0].Speaker.Role)
}

func TestTagger_OperatorInstructions(t *testing.T) {
	roster := participants.Roster{
		Management: []types.Participant{{Name: "UMANG VOHRA", Role: types.RoleManagementParticipant}},
	}
	tagger := NewTagger(registry(t).Default(), roster)

	got := tagger.Tag([]string{
		"Umang Vohra: That concludes my remarks.",
		"Ladies and gentlemen, we will now begin the question-and-answer session. Anyone who wishes to ask a question may press * and 1 on their touchtone telephone.",
		"Umang Vohra: Happy to take questions.",
		"We will continue.",
	})

	require.Len(t, got, 4)
	assert.Equal(t, []types.SpeakerRole{
		types.SpeakerManagement,
		types.SpeakerModerator,
		types.SpeakerManagement,
		types.SpeakerManagement,
	}, roles(got))
	assert.Equal(t, "Moderator", got[1].Speaker.Name)
}

func TestOperatorInstruction(t *testing.T) {
	tests := []struct {
		text      string
		operator  bool
		housekeep bool
	}{
		{"Please press star and one to ask a question.", true, false},
		{"Participants may press * and 1.", true, false},
		{"This conference call is being recorded.", true, false},
		{"Please stand by while the question queue assembles.", false, true},
		{"I'll get back in the question queue.", false, true},
		{"We expect star performance from the new launch.", false, false},
		{"Margins improved by 120 basis points.", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.operator, operatorInstruction.MatchString(tt.text), tt.text)
		assert.Equal(t, tt.housekeep, queueHousekeeping.MatchString(tt.text), tt.text)
	}
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, "nilesh gupta", NameKey("Dr. Nilesh  GUPTA"))
	assert.Equal(t, "kunal dhamesha", NameKey("MR. KUNAL DHAMESHA"))
	assert.Equal(t, "", NameKey("Mr."))
	assert.Equal(t, "Vinita Gupta", StripHonorific("Ms. Vinita Gupta"))
	assert.Equal(t, "Dr", StripHonorific("Dr"))
}

func TestDirectoryLookup(t *testing.T) {
	d := newDirectory()
	d.add("Nilesh Gupta", types.SpeakerManagement, "")
	d.add("Vinita Gupta", types.SpeakerManagement, "")
	d.add("Ramesh Kumar Swaminathan", types.SpeakerManagement, "")

	_, ok := d.lookup("Gupta")
	assert.False(t, ok, "ambiguous surname")

	p, ok := d.lookup("Ramesh Swaminathan")
	require.True(t, ok)
	assert.Equal(t, "ramesh kumar swaminathan", p.key)

	p, ok = d.lookup("Vinita")
	require.True(t, ok)
	assert.Equal(t, "vinita gupta", p.key)
}
