// Package risk defines the privacy risk vocabulary and the rules for merging partial verdicts
package risk

import "strings"

// Level is a risk rating for a single category or a whole document
type Level string

const (
	// High marks severe concerns such as selling data or minimal user control
	High Level = "High"
	// Medium marks moderate concerns that come with opt-outs
	Medium Level = "Medium"
	// Low marks user-friendly, privacy-conscious practices
	Low Level = "Low"
	// Unknown marks a category the document does not address
	Unknown Level = "Unknown"
)

// Severity orders levels so that High > Medium > Low > Unknown
func (l Level) Severity() int {
	switch l {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// MoreSevere reports whether l ranks strictly above other
func (l Level) MoreSevere(other Level) bool {
	return l.Severity() > other.Severity()
}

// ParseLevel maps a free-text label onto a Level by case-insensitive substring match
func ParseLevel(label string) Level {
	s := strings.ToLower(label)

	switch {
	case strings.Contains(s, "high"):
		return High
	case strings.Contains(s, "medium"), strings.Contains(s, "moderate"):
		return Medium
	case strings.Contains(s, "low"):
		return Low
	default:
		return Unknown
	}
}

// Max returns the most severe of the given levels, Unknown when none are given
func Max(levels ...Level) Level {
	out := Unknown

	for _, l := range levels {
		if l.MoreSevere(out) {
			out = l
		}
	}

	return out
}

// Categories is the closed set of categories every classification reports on, in display order
var Categories = []string{
	"Data Collection & Use",
	"Third-Party Sharing & Selling",
	"Data Storage & Security",
	"User Rights & Control",
	"AI & Automated Decision-Making",
	"Policy Changes & Updates",
}

// NotAddressed is the explanation recorded for categories no input mentions
const NotAddressed = "Not addressed in the policy"

// CanonicalCategory matches a category name case-insensitively against Categories
func CanonicalCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)

	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}

	return "", false
}

// Rating is the verdict for a single category
type Rating struct {
	Risk        Level  `json:"risk"`
	Explanation string `json:"explanation"`
}

// Classification is a per-category verdict plus the derived overall risk
type Classification struct {
	Categories map[string]Rating `json:"categories"`
	Overall    Level             `json:"overallRisk"`
	Summary    string            `json:"summary"`
}

// Default returns a classification with every category Unknown
func Default() Classification {
	categories := make(map[string]Rating, len(Categories))

	for _, c := range Categories {
		categories[c] = Rating{Risk: Unknown, Explanation: NotAddressed}
	}

	return Classification{
		Categories: categories,
		Overall:    Unknown,
	}
}

// OverallOf derives the overall risk as the most severe category risk
func OverallOf(categories map[string]Rating) Level {
	out := Unknown

	for _, r := range categories {
		out = Max(out, r.Risk)
	}

	return out
}

// Clone returns a deep copy so stored verdicts can be reused without aliasing
func (c Classification) Clone() Classification {
	out := Classification{
		Categories: make(map[string]Rating, len(c.Categories)),
		Overall:    c.Overall,
		Summary:    c.Summary,
	}

	for k, v := range c.Categories {
		out.Categories[k] = v
	}

	return out
}
