package risk

import (
	"maps"
	"slices"
	"strings"
)

const (
	// combinedSummaryPrefix opens the summary of a verdict assembled from several sections
	combinedSummaryPrefix = "This privacy policy assessment is based on analysis of multiple sections."
	// missingSummary stands in for a section that returned no summary
	missingSummary = "No summary available"
)

// Canonical fills in unmentioned categories, drops names outside the closed set,
// and recomputes the overall risk. The summary is kept as given
func Canonical(c Classification) Classification {
	out := Default()
	out.Summary = c.Summary

	fold(&out, c)

	out.Overall = OverallOf(out.Categories)

	return out
}

// Combine merges per-section classifications into one document verdict. A category
// only ever escalates: the first entry at a given severity keeps its explanation,
// and Unknown never replaces anything. With no input the all-Unknown default is returned
func Combine(parts []Classification) Classification {
	out := Default()

	if len(parts) == 0 {
		return out
	}

	summaries := make([]string, 0, len(parts))

	for _, p := range parts {
		fold(&out, p)

		summary := strings.TrimSpace(p.Summary)
		if summary == "" {
			summary = missingSummary
		}

		summaries = append(summaries, summary)
	}

	out.Overall = OverallOf(out.Categories)
	out.Summary = combinedSummaryPrefix + " " + strings.Join(summaries, " ")

	return out
}

// fold escalates the accumulated categories with the entries of p
func fold(acc *Classification, p Classification) {
	for _, name := range slices.Sorted(maps.Keys(p.Categories)) {
		rating := p.Categories[name]

		canonical, ok := CanonicalCategory(name)
		if !ok || rating.Risk == Unknown {
			continue
		}

		if rating.Risk.MoreSevere(acc.Categories[canonical].Risk) {
			acc.Categories[canonical] = rating
		}
	}
}
