package compliance

import "regexp"

const (
	// PageTypePrivacyPolicy identifies privacy policy pages
	PageTypePrivacyPolicy = "privacy_policy"
	// PageTypeTermsOfService identifies terms of service pages
	PageTypeTermsOfService = "terms_of_service"
	// PageTypeDataPolicy identifies data use policy pages
	PageTypeDataPolicy = "data_policy"
	// PageTypeCookiePolicy identifies cookie policy pages
	PageTypeCookiePolicy = "cookie_policy"
	// PageTypeGDPR identifies GDPR-specific pages
	PageTypeGDPR = "gdpr"
	// PageTypePolicyIndex identifies a landing page linking to several policies
	PageTypePolicyIndex = "policy_index"
)

// classificationRule defines regex patterns for a single page type
type classificationRule struct {
	pageType      string
	urlPatterns   []*regexp.Regexp
	titlePatterns []*regexp.Regexp
	bodyPatterns  []*regexp.Regexp
}

// classificationRules is the ordered list of classification rules; first match wins
var classificationRules []classificationRule

func init() {
	classificationRules = []classificationRule{
		{
			pageType: PageTypePrivacyPolicy,
			urlPatterns: compileAll(
				`(?i)/privac(y|y-policy|y-notice)`,
				`(?i)/(legal|about|policies)/privac`,
				`(?i)/data-protection`,
			),
			titlePatterns: compileAll(
				`(?i)privacy\s+(policy|notice|statement)`,
				`(?i)data\s+protection\s+(policy|notice)`,
			),
			bodyPatterns: compileAll(
				`(?i)personal\s+(data|information).{0,80}collect`,
				`(?i)we\s+collect\s+.{0,40}(personal|information)`,
				`(?i)this\s+privacy\s+(policy|notice)`,
			),
		},
		{
			pageType: PageTypeTermsOfService,
			urlPatterns: compileAll(
				`(?i)/(terms|tos)(/|$)`,
				`(?i)/terms-of-(service|use)`,
				`(?i)/(legal|about|policies)/terms`,
			),
			titlePatterns: compileAll(
				`(?i)terms\s+(of\s+service|of\s+use|&\s+conditions|and\s+conditions)`,
			),
			bodyPatterns: compileAll(
				`(?i)(binding\s+agreement|user\s+agreement|these\s+terms\s+govern)`,
				`(?i)by\s+(using|accessing).{0,40}you\s+agree`,
			),
		},
		{
			pageType: PageTypeDataPolicy,
			urlPatterns: compileAll(
				`(?i)/data-?(use-)?policy`,
			),
			titlePatterns: compileAll(
				`(?i)data\s+(use\s+)?policy`,
			),
		},
		{
			pageType: PageTypeCookiePolicy,
			urlPatterns: compileAll(
				`(?i)/(cookie-?policy|cookies)(/|$)`,
			),
			titlePatterns: compileAll(
				`(?i)cookie\s+(policy|notice|statement)`,
			),
			bodyPatterns: compileAll(
				`(?i)we\s+use\s+cookies`,
				`(?i)strictly\s+necessary\s+cookies`,
			),
		},
		{
			pageType: PageTypeGDPR,
			urlPatterns: compileAll(
				`(?i)/gdpr`,
			),
			titlePatterns: compileAll(
				`(?i)gdpr\s+(compliance|notice|rights|statement)`,
			),
			bodyPatterns: compileAll(
				`(?i)general\s+data\s+protection\s+regulation`,
				`(?i)data\s+subject\s+rights`,
				`(?i)right\s+to\s+erasure`,
			),
		},
		{
			pageType: PageTypePolicyIndex,
			urlPatterns: compileAll(
				`(?i)/(policies|legal)/?$`,
			),
			titlePatterns: compileAll(
				`(?i)^(legal|policies)(\s+(center|hub))?$`,
			),
		},
	}
}

// ClassifyPage determines the page type from URL, title, and body content.
// URL patterns are checked first across all rules, then title patterns,
// then body patterns, so a URL match always beats a body match from a
// higher-priority rule. Returns the matching page type constant or an
// empty string if nothing matches
func ClassifyPage(pageURL, title, body string) string {
	// Pass 1: check URL patterns (highest confidence)
	for _, rule := range classificationRules {
		if matchesAny(rule.urlPatterns, pageURL) {
			return rule.pageType
		}
	}

	// Pass 2: check title patterns
	for _, rule := range classificationRules {
		if matchesAny(rule.titlePatterns, title) {
			return rule.pageType
		}
	}

	// Pass 3: check body patterns (lowest confidence)
	for _, rule := range classificationRules {
		if matchesAny(rule.bodyPatterns, body) {
			return rule.pageType
		}
	}

	return ""
}

// compileAll compiles multiple regex patterns, panicking on invalid patterns
func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}

	return compiled
}

// matchesAny returns true if the input matches any of the compiled patterns
func matchesAny(patterns []*regexp.Regexp, input string) bool {
	for _, p := range patterns {
		if p.MatchString(input) {
			return true
		}
	}

	return false
}
