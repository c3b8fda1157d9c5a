// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package participants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

func defaultProfile(t *testing.T) *profile.Profile {
	t.Helper()
	r, err := profile.Builtin()
	require.NoError(t, err)
	r.Seal()
	return r.Default()
}

func TestExtract_Sections(t *testing.T) {
	paragraphs := []string{
		"LUPIN LIMITED Q1 FY26 Earnings Conference Call August 05, 2025",
		"MANAGEMENT: DR. NILESH GUPTA – MANAGING DIRECTOR, LUPIN LIMITED MR. RAMESH SWAMINATHAN – EXECUTIVE DIRECTOR, GLOBAL CFO MS. VINITA GUPTA – CHIEF EXECUTIVE OFFICER",
		"MR. NILESH GUPTA – MANAGING DIRECTOR",
		"ANALYSTS: MR. KUNAL DHAMESHA – MACQUARIE; MS. TUSHAR MANUDHANE: MOTILAL OSWAL",
		"Moderator: Ladies and gentlemen, good day and welcome. I am Ryan, the moderator for this conference.",
		"Vinita Gupta: Thank you.",
	}

	r := Extract(paragraphs, defaultProfile(t), 0)

	assert.Equal(t, []types.Participant{
		{Name: "NILESH GUPTA", Title: "MANAGING DIRECTOR, LUPIN LIMITED", Role: types.RoleManagementParticipant},
		{Name: "RAMESH SWAMINATHAN", Title: "EXECUTIVE DIRECTOR, GLOBAL CFO", Role: types.RoleManagementParticipant},
		{Name: "VINITA GUPTA", Title: "CHIEF EXECUTIVE OFFICER", Role: types.RoleManagementParticipant},
	}, r.Management)

	assert.Equal(t, []types.Participant{
		{Name: "KUNAL DHAMESHA", Firm: "MACQUARIE", Role: types.RoleAnalystParticipant},
		{Name: "TUSHAR MANUDHANE", Firm: "MOTILAL OSWAL", Role: types.RoleAnalystParticipant},
	}, r.Analysts)

	assert.Equal(t, "Ryan", r.Moderator)
	assert.Equal(t, 4, r.BodyStart)
}

func TestExtract_UnsplittableLineKept(t *testing.T) {
	paragraphs := []string{"MANAGEMENT: UMANG VOHRA MD AND GLOBAL CEO"}

	r := Extract(paragraphs, defaultProfile(t), 0)

	require.Len(t, r.Management, 1)
	assert.Equal(t, "UMANG VOHRA MD AND GLOBAL CEO", r.Management[0].Name)
	assert.Empty(t, r.Management[0].Title)
}

func TestExtract_Budget(t *testing.T) {
	paragraphs := []string{
		"Management: Mr. Umang Vohra – MD and Global CEO",
		"Mr. Kedar Upadhye – Global CFO",
		"Mr. Ashish Adukia – Incoming CFO",
	}

	r := Extract(paragraphs, defaultProfile(t), 2)

	require.Len(t, r.Management, 2)
	assert.Equal(t, "Umang Vohra", r.Management[0].Name)
	assert.Equal(t, "Kedar Upadhye", r.Management[1].Name)
	assert.Equal(t, 2, r.BodyStart)
}

func TestExtract_NoSectionsAfterCallOpens(t *testing.T) {
	paragraphs := []string{
		"Moderator: Good day and welcome to the call.",
		"Management: we are pleased with the quarter.",
	}

	r := Extract(paragraphs, defaultProfile(t), 0)

	assert.Empty(t, r.Management)
	assert.Equal(t, 0, r.BodyStart)
}

func TestExtract_AnalystsFromIntroductions(t *testing.T) {
	paragraphs := []string{
		"Moderator: The first question is from the line of Kunal Dhamesha from Macquarie. Please go ahead.",
		"Kunal Dhamesha: How is pricing pressure?",
		"Vinita Gupta: Pressure has eased.",
		"Moderator: The next question is from Tushar Manudhane with Motilal Oswal.",
		"Moderator: We have a follow-up question from the line of Kunal Dhamesha from Macquarie.",
	}

	r := Extract(paragraphs, defaultProfile(t), 0)

	assert.Equal(t, []types.Participant{
		{Name: "Kunal Dhamesha", Firm: "Macquarie", Role: types.RoleAnalystParticipant},
		{Name: "Tushar Manudhane", Firm: "Motilal Oswal", Role: types.RoleAnalystParticipant},
		{Name: "Kunal Dhamesha", Firm: "Macquarie", Role: types.RoleAnalystParticipant},
	}, r.Analysts)
	assert.Empty(t, r.Management)
}

func TestExtract_Empty(t *testing.T) {
	r := Extract(nil, defaultProfile(t), 0)
	assert.Empty(t, r.Management)
	assert.Empty(t, r.Analysts)
	assert.Empty(t, r.Moderator)
	assert.Equal(t, 0, r.BodyStart)
}

func TestIntroduction(t *testing.T) {
	p := defaultProfile(t)

	got, ok := Introduction("Thank you. The next question is from the line of Nitin Agarwal from DAM Capital. Please go ahead.", p)
	require.True(t, ok)
	assert.Equal(t, "Nitin Agarwal", got.Name)
	assert.Equal(t, "DAM Capital", got.Firm)

	_, ok = Introduction("Thank you for the question.", p)
	assert.False(t, ok)
}
