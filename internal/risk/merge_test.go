package risk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]Level{
		"High":             High,
		"very HIGH risk":   High,
		"medium":           Medium,
		"Moderate":         Medium,
		"low":              Low,
		"Low-ish":          Low,
		"Unknown":          Unknown,
		"":                 Unknown,
		"n/a":              Unknown,
		"highly uncertain": High,
	}

	for in, want := range testCases {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestCombineEmpty(t *testing.T) {
	got := Combine(nil)

	assert.Equal(t, Unknown, got.Overall)
	require.Len(t, got.Categories, len(Categories))

	for _, c := range Categories {
		assert.Equal(t, Rating{Risk: Unknown, Explanation: NotAddressed}, got.Categories[c])
	}
}

func TestCombineSingle(t *testing.T) {
	in := Classification{
		Categories: map[string]Rating{
			"Data Collection & Use":         {Risk: Medium, Explanation: "collects usage data"},
			"Third-Party Sharing & Selling": {Risk: Low, Explanation: "no selling"},
		},
		Overall: Medium,
		Summary: "Moderate collection.",
	}

	got := Combine([]Classification{in})

	assert.Equal(t, in.Categories["Data Collection & Use"], got.Categories["Data Collection & Use"])
	assert.Equal(t, in.Categories["Third-Party Sharing & Selling"], got.Categories["Third-Party Sharing & Selling"])
	assert.Equal(t, Rating{Risk: Unknown, Explanation: NotAddressed}, got.Categories["User Rights & Control"])
	assert.Equal(t, Medium, got.Overall)
	assert.True(t, strings.HasPrefix(got.Summary, combinedSummaryPrefix))
	assert.Contains(t, got.Summary, "Moderate collection.")
}

func TestCombineEscalatesOnly(t *testing.T) {
	parts := []Classification{
		{
			Categories: map[string]Rating{
				"Data Storage & Security": {Risk: Medium, Explanation: "first medium"},
				"User Rights & Control":   {Risk: High, Explanation: "first high"},
			},
			Summary: "part one",
		},
		{
			Categories: map[string]Rating{
				"Data Storage & Security": {Risk: Medium, Explanation: "second medium"},
				"User Rights & Control":   {Risk: Low, Explanation: "later low"},
			},
		},
		{
			Categories: map[string]Rating{
				"Data Storage & Security": {Risk: High, Explanation: "escalated"},
				"User Rights & Control":   {Risk: Unknown, Explanation: "not here"},
			},
			Summary: "part three",
		},
	}

	got := Combine(parts)

	assert.Equal(t, Rating{Risk: High, Explanation: "escalated"}, got.Categories["Data Storage & Security"])
	assert.Equal(t, Rating{Risk: High, Explanation: "first high"}, got.Categories["User Rights & Control"])
	assert.Equal(t, High, got.Overall)
	assert.Equal(t, combinedSummaryPrefix+" part one "+missingSummary+" part three", got.Summary)
}

func TestCombineFirstEqualMentionWins(t *testing.T) {
	parts := []Classification{
		{Categories: map[string]Rating{"Policy Changes & Updates": {Risk: Low, Explanation: "first"}}},
		{Categories: map[string]Rating{"Policy Changes & Updates": {Risk: Low, Explanation: "second"}}},
	}

	got := Combine(parts)

	assert.Equal(t, "first", got.Categories["Policy Changes & Updates"].Explanation)
}

func TestCombineMonotonic(t *testing.T) {
	levels := []Level{High, Medium, Low, Unknown}
	var parts []Classification

	for i, l := range levels {
		parts = append(parts, Classification{
			Categories: map[string]Rating{
				Categories[(i+1)%len(Categories)]: {Risk: l, Explanation: string(l)},
				Categories[0]:                      {Risk: levels[(i+1)%len(levels)], Explanation: "rotating"},
			},
		})
	}

	got := Combine(parts)

	for _, p := range parts {
		for name, r := range p.Categories {
			if r.Risk == Unknown {
				continue
			}

			assert.False(t, r.Risk.MoreSevere(got.Categories[name].Risk), "category %s regressed below %s", name, r.Risk)
		}
	}

	var all []Level
	for _, r := range got.Categories {
		all = append(all, r.Risk)
	}

	assert.Equal(t, Max(all...), got.Overall)
}

func TestCanonical(t *testing.T) {
	in := Classification{
		Categories: map[string]Rating{
			"data collection & use": {Risk: Low, Explanation: "minimal"},
			"Made Up Category":      {Risk: High, Explanation: "ignored"},
		},
		Overall: High,
		Summary: "summary",
	}

	got := Canonical(in)

	assert.Equal(t, Rating{Risk: Low, Explanation: "minimal"}, got.Categories["Data Collection & Use"])
	assert.NotContains(t, got.Categories, "Made Up Category")
	assert.Equal(t, Low, got.Overall)
	assert.Equal(t, "summary", got.Summary)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := Default()
	clone := orig.Clone()

	clone.Categories[Categories[0]] = Rating{Risk: High}

	assert.Equal(t, Unknown, orig.Categories[Categories[0]].Risk)
}
