// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/internal/profile"
	"github.com/pdiddy/earnings-extractor/pkg/types"
)

const ciplaTranscript = `CIPLA LIMITED
Q1 FY26 Earnings Conference Call
July 25, 2025

MANAGEMENT: MR. UMANG VOHRA – MD AND GLOBAL CEO
MR. ASHISH ADUKIA – GLOBAL CFO

Moderator: Ladies and gentlemen, good day and welcome to the Cipla Q1 FY26 earnings call. I am Ryan, the moderator for this conference.

Umang Vohra: Thank you. Revenue from operations was ₹6,957 crores for the quarter. EBITDA margin stood at 25.6%.

Moderator: The first question is from the line of Neha Manpuria from Bank of America. Please go ahead.

Neha Manpuria: What drove the North America performance?

Umang Vohra: North America revenue was USD 233 million, driven by lanreotide.

Ashish Adukia: We expect this to sustain.

Moderator: Thank you. That was the last question.
`

var fixedTime = time.Date(2025, 7, 26, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, cfg types.EngineConfig) *Engine {
	t.Helper()
	reg, err := profile.Builtin()
	require.NoError(t, err)
	e, err := NewEngine(reg, cfg, WithClock(func() time.Time { return fixedTime }))
	require.NoError(t, err)
	return e
}

func str(s string) *string { return &s }

func TestNewEngine_SealsRegistry(t *testing.T) {
	reg, err := profile.Builtin()
	require.NoError(t, err)
	require.False(t, reg.Sealed())

	_, err = NewEngine(reg, types.EngineConfig{})
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
}

func TestNewEngine_NoDefault(t *testing.T) {
	_, err := NewEngine(profile.NewRegistry(), types.EngineConfig{})
	assert.ErrorIs(t, err, ErrNoDefaultProfile)
}

func TestExtract_Cipla(t *testing.T) {
	rec := newEngine(t, types.EngineConfig{}).Extract(ciplaTranscript, "")

	assert.Equal(t, types.HeaderInfo{
		Company:    str("CIPLA"),
		ReportDate: str("July 25, 2025"),
		Quarter:    str("Q1"),
		FiscalYear: str("2026"),
	}, rec.HeaderInfo)
	assert.Equal(t, "CIPLA", rec.Profile)
	assert.Equal(t, "Ryan", rec.Moderator)

	assert.Equal(t, []types.ManagementMember{
		{Name: "UMANG VOHRA", Title: "MD AND GLOBAL CEO"},
		{Name: "ASHISH ADUKIA", Title: "GLOBAL CFO"},
	}, rec.ManagementTeam)
	assert.Equal(t, []types.AnalystEntry{
		{Name: "Neha Manpuria", Firm: "Bank of America"},
	}, rec.Analysts)

	require.Len(t, rec.QASegments, 1)
	seg := rec.QASegments[0]
	assert.Equal(t, "Neha Manpuria", seg.AnalystName)
	assert.Equal(t, "Bank of America", seg.AnalystFirm)
	assert.Equal(t, "What drove the North America performance?", seg.Question)
	assert.Equal(t, []types.Answer{
		{Speaker: "Umang Vohra", Response: "North America revenue was USD 233 million, driven by lanreotide."},
		{Speaker: "Ashish Adukia", Response: "We expect this to sustain."},
	}, seg.Answers)

	assert.Equal(t, "6957", rec.Metrics[types.MetricRevenueINRCrores])
	assert.Equal(t, "25.6", rec.Metrics[types.MetricEBITDAMarginPercentage])
	assert.Equal(t, "233", rec.Metrics[types.MetricUSSalesUSDMillion])
	assert.Equal(t, "crores", rec.MetricUnits[types.MetricRevenueINRCrores])

	require.NotNil(t, rec.Metadata)
	assert.Equal(t, len(ciplaTranscript), rec.Metadata.TextLength)
	assert.Equal(t, fixedTime, rec.Metadata.ExtractedAt)
	assert.Empty(t, rec.Metadata.DerivedFields)
}

func TestExtract_UnknownCompanyUsesDefault(t *testing.T) {
	text := "ACME WIDGETS LIMITED Q2 FY25 Earnings Call\n\nModerator: Welcome to the call."

	rec := newEngine(t, types.EngineConfig{}).Extract(text, "")

	assert.Equal(t, "DEFAULT", rec.Profile)
	assert.Equal(t, str("ACME WIDGETS"), rec.Company)
	assert.Equal(t, str("Q2"), rec.Quarter)
	assert.Equal(t, str("2025"), rec.FiscalYear)
	assert.Nil(t, rec.ReportDate)
	assert.Empty(t, rec.QASegments)
	assert.NotNil(t, rec.QASegments)
}

func TestPrepare_Hint(t *testing.T) {
	e := newEngine(t, types.EngineConfig{})

	doc := e.Prepare("Earnings call for the first quarter.", "lupin")
	assert.Equal(t, "LUPIN", doc.Profile.Name())

	doc = e.Prepare("Earnings call for the first quarter.", "")
	assert.True(t, doc.Profile.IsDefault())
}

func TestExtract_Empty(t *testing.T) {
	for _, text := range []string{"", "   \n\n\t\f"} {
		rec := newEngine(t, types.EngineConfig{}).Extract(text, "")

		assert.Equal(t, types.HeaderInfo{}, rec.HeaderInfo)
		assert.Empty(t, rec.Profile)
		assert.NotNil(t, rec.ManagementTeam)
		assert.NotNil(t, rec.Analysts)
		assert.NotNil(t, rec.QASegments)
		assert.NotNil(t, rec.Metrics)
		assert.Nil(t, rec.MetricUnits)
		assert.Equal(t, 0, rec.Metadata.Paragraphs)
	}
}

func TestExtractSource_FilenameFallback(t *testing.T) {
	text := "CIPLA LIMITED Earnings Conference Call"

	off := newEngine(t, types.EngineConfig{}).ExtractSource(text, "", "/in/cipla_q1_fy26.txt")
	assert.Nil(t, off.Quarter)
	assert.Equal(t, "cipla_q1_fy26.txt", off.Filename)

	on := newEngine(t, types.EngineConfig{FilenameFallback: true}).ExtractSource(text, "", "/in/cipla_q1_fy26.txt")
	assert.Equal(t, str("Q1"), on.Quarter)
	assert.Equal(t, str("2026"), on.FiscalYear)
	assert.Equal(t, []string{"quarter", "fiscal_year"}, on.Metadata.DerivedFields)
	assert.Equal(t, "/in/cipla_q1_fy26.txt", on.Metadata.SourceFile)
}

func TestExtract_Idempotent(t *testing.T) {
	e := newEngine(t, types.EngineConfig{})
	assert.Equal(t, e.Extract(ciplaTranscript, ""), e.Extract(ciplaTranscript, ""))
}
