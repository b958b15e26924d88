package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theopenlane/privacyguard/internal/risk"
)

func TestParseResponse(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		overall risk.Level
		wantErr error
	}{
		{name: "plain json", input: lowRiskJSON, overall: risk.Low},
		{name: "code fence", input: "```json\n" + lowRiskJSON + "\n```", overall: risk.Low},
		{name: "think tags", input: "<think>{\"not\": \"this\"}</think>\n" + lowRiskJSON, overall: risk.Low},
		{name: "braces inside strings", input: `{"categories": {}, "overallRisk": "moderate", "summary": "uses {curly} braces"}`, overall: risk.Medium},
		{name: "unrecognized label", input: `{"categories": {}, "overallRisk": "n/a", "summary": "s"}`, overall: risk.Unknown},
		{name: "not json", input: "The policy looks fine to me.", wantErr: ErrMalformedResponse},
		{name: "unterminated", input: `{"categories": {`, wantErr: ErrMalformedResponse},
		{name: "missing summary", input: `{"categories": {}, "overallRisk": "Low"}`, wantErr: ErrInvalidResponse},
		{name: "missing categories", input: `{"overallRisk": "Low", "summary": "s"}`, wantErr: ErrInvalidResponse},
		{name: "empty overall", input: `{"categories": {}, "overallRisk": "", "summary": "s"}`, wantErr: ErrInvalidResponse},
		{name: "category without risk", input: `{"categories": {"Data Collection & Use": {"explanation": "x"}}, "overallRisk": "Low", "summary": "s"}`, wantErr: ErrInvalidResponse},
		{name: "categories wrong type", input: `{"categories": [], "overallRisk": "Low", "summary": "s"}`, wantErr: ErrInvalidResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseResponse(tc.input)

			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.overall, got.Overall)
		})
	}
}

func TestParseResponse_KeepsGatewayCategoryNames(t *testing.T) {
	got, err := ParseResponse(`{"categories": {"data collection & use": {"risk": "Moderate risk", "explanation": " opt-out available "}}, "overallRisk": "Medium", "summary": "s"}`)
	require.NoError(t, err)

	rating, ok := got.Categories["data collection & use"]
	require.True(t, ok)
	assert.Equal(t, risk.Medium, rating.Risk)
	assert.Equal(t, "opt-out available", rating.Explanation)
}

func TestPrompts(t *testing.T) {
	doc := DocumentPrompt("POLICY TEXT")
	assert.Contains(t, doc, "Privacy Policy:\nPOLICY TEXT")
	assert.Contains(t, doc, "- High: Severe concerns (selling data, minimal control)")
	assert.Contains(t, doc, `"summary": "Brief overall summary"`)

	for _, c := range risk.Categories {
		assert.Contains(t, doc, "- "+c)
	}

	section := ChunkPrompt("SECTION", 2, 5)
	assert.Contains(t, section, "Analyze CHUNK 2/5 of this privacy policy.")
	assert.Contains(t, section, "Privacy Policy Chunk 2/5:\nSECTION")
	assert.Contains(t, section, "Brief summary of this chunk's content")
}
