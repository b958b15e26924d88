package compliance

import "testing"

func TestClassifyPage_URLMatch(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"privacy policy path", "https://example.com/privacy", PageTypePrivacyPolicy},
		{"privacy policy hyphenated", "https://example.com/privacy-policy", PageTypePrivacyPolicy},
		{"privacy notice", "https://example.com/privacy-notice", PageTypePrivacyPolicy},
		{"legal privacy", "https://example.com/legal/privacy", PageTypePrivacyPolicy},
		{"google policies privacy", "https://google.com/policies/privacy", PageTypePrivacyPolicy},
		{"intl privacy", "https://google.com/intl/en/privacy", PageTypePrivacyPolicy},
		{"terms path", "https://example.com/terms", PageTypeTermsOfService},
		{"tos path", "https://example.com/tos", PageTypeTermsOfService},
		{"about terms", "https://example.com/about/terms", PageTypeTermsOfService},
		{"policies terms", "https://google.com/policies/terms", PageTypeTermsOfService},
		{"data policy", "https://example.com/data-policy", PageTypeDataPolicy},
		{"cookie policy", "https://example.com/cookie-policy", PageTypeCookiePolicy},
		{"cookies path", "https://example.com/cookies", PageTypeCookiePolicy},
		{"gdpr path", "https://example.com/gdpr", PageTypeGDPR},
		{"policies index", "https://example.com/policies", PageTypePolicyIndex},
		{"legal index", "https://example.com/legal/", PageTypePolicyIndex},
		{"no match", "https://example.com/about", ""},
		{"no match blog", "https://example.com/blog/post-1", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ClassifyPage(tc.url, "", "")
			if result != tc.expected {
				t.Errorf("ClassifyPage(%q, \"\", \"\"): expected %q, got %q", tc.url, tc.expected, result)
			}
		})
	}
}

func TestClassifyPage_TitleMatch(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		expected string
	}{
		{"privacy policy title", "Privacy Policy", PageTypePrivacyPolicy},
		{"privacy notice title", "Privacy Notice - Acme Corp", PageTypePrivacyPolicy},
		{"data protection", "Data Protection Policy", PageTypePrivacyPolicy},
		{"terms of service", "Terms of Service", PageTypeTermsOfService},
		{"terms and conditions", "Terms & Conditions", PageTypeTermsOfService},
		{"data policy", "Data Policy", PageTypeDataPolicy},
		{"cookie notice", "Cookie Notice", PageTypeCookiePolicy},
		{"gdpr compliance", "GDPR Compliance", PageTypeGDPR},
		{"legal center", "Legal Center", PageTypePolicyIndex},
		{"no match", "About Us", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ClassifyPage("https://example.com/page", tc.title, "")
			if result != tc.expected {
				t.Errorf("ClassifyPage(_, %q, \"\"): expected %q, got %q", tc.title, tc.expected, result)
			}
		})
	}
}

func TestClassifyPage_BodyMatch(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"privacy body", "We collect personal data to provide our services.", PageTypePrivacyPolicy},
		{"privacy notice body", "This privacy policy describes how we handle your information.", PageTypePrivacyPolicy},
		{"terms body", "By using our service, you agree to these terms of use.", PageTypeTermsOfService},
		{"cookies body", "We use cookies to improve your experience.", PageTypeCookiePolicy},
		{"gdpr body", "Under the General Data Protection Regulation, you have rights.", PageTypeGDPR},
		{"no match", "Welcome to our website. We build great products.", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := ClassifyPage("https://example.com/page", "Some Page", tc.body)
			if result != tc.expected {
				t.Errorf("ClassifyPage(_, _, %q): expected %q, got %q", tc.body, tc.expected, result)
			}
		})
	}
}

func TestClassifyPage_PriorityOrder(t *testing.T) {
	result := ClassifyPage("https://example.com/privacy", "Terms of Service", "We use cookies")
	if result != PageTypePrivacyPolicy {
		t.Errorf("expected URL match to win: got %q", result)
	}

	result = ClassifyPage("https://example.com/cookies", "Some Page", "This privacy policy describes")
	if result != PageTypeCookiePolicy {
		t.Errorf("expected URL match to beat body match: got %q", result)
	}
}
