// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/earnings-extractor/pkg/types"
)

func builtin(t *testing.T) *Registry {
	t.Helper()
	r, err := Builtin()
	require.NoError(t, err)
	r.Seal()
	return r
}

func TestBuiltin(t *testing.T) {
	r := builtin(t)

	require.NotNil(t, r.Default())
	assert.Equal(t, "DEFAULT", r.Default().Name())
	assert.True(t, r.Default().IsDefault())

	var names []string
	for _, p := range r.Profiles() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"CIPLA", "LUPIN", "DEFAULT"}, names)

	cipla, ok := r.Get("cipla")
	require.True(t, ok)
	assert.Contains(t, cipla.Speakers().Management, "Umang Vohra")
}

func TestResolve(t *testing.T) {
	r := builtin(t)

	tests := []struct {
		name       string
		paragraphs []string
		hint       string
		depth      int
		want       string
	}{
		{
			name: "hint matches name",
			hint: "Cipla",
			want: "CIPLA",
		},
		{
			name: "hint matches token in filename",
			hint: "lupin_q1_fy26_transcript.pdf",
			want: "LUPIN",
		},
		{
			name: "hint alias",
			hint: "Cipla Ltd",
			want: "CIPLA",
		},
		{
			name:       "hint wins over text",
			paragraphs: []string{"Lupin Limited Q1 FY26 Earnings Call"},
			hint:       "cipla",
			want:       "CIPLA",
		},
		{
			name:       "unmatched hint falls back to text",
			paragraphs: []string{"Opening", "LUPIN LIMITED Q2 FY26 Earnings Call"},
			hint:       "acme",
			depth:      30,
			want:       "LUPIN",
		},
		{
			name:       "first mentioning paragraph decides",
			paragraphs: []string{"Cipla Limited Q1 FY26", "compared with Lupin"},
			depth:      30,
			want:       "CIPLA",
		},
		{
			name:       "mention beyond depth ignored",
			paragraphs: []string{"a", "b", "c", "Cipla Limited"},
			depth:      3,
			want:       "DEFAULT",
		},
		{
			name:       "unknown company without hint",
			paragraphs: []string{"ACME PHARMA LIMITED Q3 FY25 Earnings Call"},
			depth:      30,
			want:       "DEFAULT",
		},
		{
			name: "empty input",
			want: "DEFAULT",
		},
		{
			name: "hint is not a substring match",
			hint: "ciplanet",
			want: "DEFAULT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Resolve(tt.paragraphs, tt.hint, tt.depth)
			require.NotNil(t, p)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestRegister_Errors(t *testing.T) {
	t.Run("company before default", func(t *testing.T) {
		r := NewRegistry()
		err := r.Register(Definition{Name: "Acme"})
		assert.ErrorIs(t, err, ErrNoDefault)
	})

	t.Run("duplicate", func(t *testing.T) {
		r, err := Builtin()
		require.NoError(t, err)
		err = r.Register(Definition{Name: "cipla"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("second default", func(t *testing.T) {
		r, err := Builtin()
		require.NoError(t, err)
		err = r.Register(Definition{Name: "Generic", Default: true})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("sealed", func(t *testing.T) {
		r := builtin(t)
		assert.True(t, r.Sealed())
		err := r.Register(Definition{Name: "Acme"})
		assert.ErrorIs(t, err, ErrSealed)
	})

	t.Run("bad pattern", func(t *testing.T) {
		r, err := Builtin()
		require.NoError(t, err)
		err = r.Register(Definition{Name: "Acme", CompanyPatterns: []string{"(unclosed"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "company_patterns")
	})

	t.Run("unknown metric", func(t *testing.T) {
		r, err := Builtin()
		require.NoError(t, err)
		err = r.Register(Definition{
			Name:    "Acme",
			Metrics: []MetricDefinition{{Key: "market_share", Patterns: []string{"x"}}},
		})
		assert.ErrorIs(t, err, ErrUnknownMetric)
	})
}

func TestInheritance(t *testing.T) {
	r := builtin(t)
	base := r.Default()
	cipla, ok := r.Get("CIPLA")
	require.True(t, ok)

	// Company name patterns come first and yield the canonical name.
	require.NotEmpty(t, cipla.Header().Company)
	got, ok := cipla.Header().Company[0].Find("Welcome to the Cipla Limited call")
	require.True(t, ok)
	assert.Equal(t, "CIPLA", got)
	assert.Len(t, cipla.Header().Company, 1+len(base.Header().Company))

	assert.Len(t, cipla.Header().Date, len(base.Header().Date))
	assert.Equal(t, base.Sections().EntrySeparator, cipla.Sections().EntrySeparator)
	require.NotEmpty(t, base.Sections().NonSpeakerLabel)
	assert.Len(t, cipla.Sections().NonSpeakerLabel, len(base.Sections().NonSpeakerLabel))

	var revenue MetricRule
	for _, m := range cipla.Metrics() {
		if m.Key == types.MetricRevenueINRCrores {
			revenue = m
		}
	}
	var baseRevenue MetricRule
	for _, m := range base.Metrics() {
		if m.Key == types.MetricRevenueINRCrores {
			baseRevenue = m
		}
	}
	require.NotEmpty(t, revenue.Patterns)
	assert.Contains(t, revenue.Patterns[0].String(), "revenue\\s+from\\s+operations")
	assert.Len(t, revenue.Patterns, 1+len(baseRevenue.Patterns))
	assert.Len(t, cipla.Metrics(), len(base.Metrics()))

	// The default profile itself is unchanged by inheritance.
	assert.Empty(t, base.Speakers().Management)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	acme := `name: Acme
aliases: [acme pharma]
company_patterns:
  - '(?i)\bacme\b'
speakers:
  management: [Jane Roe]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(acme), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	r, err := Builtin()
	require.NoError(t, err)
	require.NoError(t, r.LoadDir(dir))
	r.Seal()

	p := r.Resolve([]string{"ACME PHARMA LIMITED Q3 FY25"}, "", 30)
	assert.Equal(t, "ACME", p.Name())
	assert.Equal(t, []string{"Jane Roe"}, p.Speakers().Management)

	assert.Equal(t, "ACME", r.Resolve(nil, "Acme Pharma", 0).Name())
}

func TestLoadDir_Missing(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	assert.NoError(t, r.LoadDir(filepath.Join(t.TempDir(), "nope")))
}

func TestLoadDir_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("aliases: [x]\n"), 0o644))

	r, err := Builtin()
	require.NoError(t, err)
	err = r.LoadDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoName)
	assert.Contains(t, err.Error(), "bad.yml")
}

func TestNonSpeakerLabels(t *testing.T) {
	base := builtin(t).Default()

	tests := []struct {
		label string
		want  bool
	}{
		{"Gross Margin", true},
		{"North America", true},
		{"First", true},
		{"India Business", true},
		{"Umang Vohra", false},
		{"Moderator", false},
		{"Samir", false},
	}
	for _, tt := range tests {
		matched := false
		for _, re := range base.Sections().NonSpeakerLabel {
			if re.MatchString(tt.label) {
				matched = true
			}
		}
		assert.Equal(t, tt.want, matched, tt.label)
	}
}

func TestRuleFind(t *testing.T) {
	tests := []struct {
		name   string
		rule   Rule
		in     string
		want   string
		wantOK bool
	}{
		{"fixed value", Rule{Re: regexp.MustCompile(`(?i)cipla`), Fixed: "CIPLA"}, "cipla ltd", "CIPLA", true},
		{"group one", Rule{Re: regexp.MustCompile(`Q([1-4])`)}, "Q3 FY25", "3", true},
		{"named value", Rule{Re: regexp.MustCompile(`(Rs)\s*(?P<value>\d+)`)}, "Rs 42", "42", true},
		{"whole match", Rule{Re: regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)}, "on 2025-07-25.", "2025-07-25", true},
		{"no match", Rule{Re: regexp.MustCompile(`Q([1-4])`)}, "none", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rule.Find(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
