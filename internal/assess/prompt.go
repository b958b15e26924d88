package assess

import (
	"fmt"
	"strings"

	"github.com/theopenlane/privacyguard/internal/risk"
)

const riskDefinitions = `Risk definitions:
- High: Severe concerns (selling data, minimal control)
- Medium: Moderate concerns with opt-outs
- Low: User-friendly, privacy-conscious
- Unknown: Not mentioned`

const responseTemplate = `Respond with JSON:
{
  "categories": {
    "Category Name": {
      "risk": "High/Medium/Low/Unknown",
      "explanation": "Brief explanation"
    }
  },
  "overallRisk": "High/Medium/Low/Unknown",
  "summary": "%s"
}`

func categoryList() string {
	lines := make([]string, 0, len(risk.Categories))

	for _, c := range risk.Categories {
		lines = append(lines, "- "+c)
	}

	return strings.Join(lines, "\n")
}

// DocumentPrompt builds the prompt that classifies a whole agreement in one call
func DocumentPrompt(text string) string {
	var b strings.Builder

	b.WriteString("Analyze this privacy policy and assess risks for users.\n\n")
	b.WriteString("Categories to evaluate (High/Medium/Low/Unknown risk):\n")
	b.WriteString(categoryList())
	b.WriteString("\n\n")
	b.WriteString(riskDefinitions)
	b.WriteString("\n\nPrivacy Policy:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, responseTemplate, "Brief overall summary")

	return b.String()
}

// ChunkPrompt builds the prompt for section n of total, numbered from 1
func ChunkPrompt(text string, n, total int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze CHUNK %d/%d of this privacy policy.\n\n", n, total)
	b.WriteString("Only assess categories addressed in this chunk (High/Medium/Low/Unknown risk):\n")
	b.WriteString(categoryList())
	b.WriteString("\n\n")
	b.WriteString(riskDefinitions)
	fmt.Fprintf(&b, "\n\nPrivacy Policy Chunk %d/%d:\n", n, total)
	b.WriteString(text)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, responseTemplate, "Brief summary of this chunk's content")

	return b.String()
}
