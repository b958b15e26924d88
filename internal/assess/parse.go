package assess

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/theopenlane/privacyguard/internal/risk"
)

//go:embed classification.schema.json
var classificationSchema string

const schemaResource = "classification.schema.json"

// responseSchema validates the shape of a gateway response before it is trusted
var responseSchema = mustCompileSchema()

// thinkTagPattern matches reasoning blocks some models emit ahead of the answer
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource(schemaResource, strings.NewReader(classificationSchema)); err != nil {
		panic(err)
	}

	return compiler.MustCompile(schemaResource)
}

type rawRating struct {
	Risk        string `json:"risk"`
	Explanation string `json:"explanation"`
}

type rawClassification struct {
	Categories  map[string]rawRating `json:"categories"`
	OverallRisk string               `json:"overallRisk"`
	Summary     string               `json:"summary"`
}

// ParseResponse extracts the first JSON object from a gateway response, validates it
// against the classification schema, and normalizes every risk label. Categories are
// returned as named by the gateway; nothing is defaulted here
func ParseResponse(text string) (risk.Classification, error) {
	obj, ok := extractObject(thinkTagPattern.ReplaceAllString(text, ""))
	if !ok {
		return risk.Classification{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedResponse)
	}

	var doc any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return risk.Classification{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := responseSchema.Validate(doc); err != nil {
		return risk.Classification{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return risk.Classification{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	out := risk.Classification{
		Categories: make(map[string]risk.Rating, len(raw.Categories)),
		Overall:    risk.ParseLevel(raw.OverallRisk),
		Summary:    strings.TrimSpace(raw.Summary),
	}

	for name, r := range raw.Categories {
		out.Categories[name] = risk.Rating{
			Risk:        risk.ParseLevel(r.Risk),
			Explanation: strings.TrimSpace(r.Explanation),
		}
	}

	return out, nil
}

// extractObject returns the first balanced {...} span, ignoring braces inside strings
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}
