package domain

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// multiPartSuffixes are public suffixes spanning two labels that Normalize keeps intact
var multiPartSuffixes = []string{
	"co.uk",
	"org.uk",
	"gov.uk",
	"ac.uk",
	"com.au",
	"net.au",
	"org.au",
	"edu.au",
	"co.jp",
}

// domainPattern finds a domain-shaped substring in otherwise unparseable input
var domainPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9-]*(?:\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}`)

// Normalize reduces an arbitrary URL, host, or email-like string to the registrable
// domain used as the key for every stored record. It never fails; input that holds
// nothing domain-shaped yields an empty string
func Normalize(raw string) string {
	input := strings.TrimSpace(raw)
	input = strings.TrimRight(input, "/")

	if input == "" {
		return ""
	}

	input = afterAt(input)

	if ip := net.ParseIP(strings.Trim(input, "[]")); ip != nil {
		return ip.String()
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	host := ""
	if u, err := url.Parse(input); err == nil {
		host = u.Hostname()
	}

	// Hostname only drops the last :port, so stray colons survive on non-IP hosts
	if net.ParseIP(host) == nil {
		host, _, _ = strings.Cut(host, ":")
	}

	host = strings.Trim(strings.ToLower(host), ".")
	if host == "" || strings.ContainsAny(host, " \t\r\n") {
		return fallback(raw)
	}

	return registrable(host)
}

// afterAt keeps only the part following an @ that appears before any path, so email
// addresses and userinfo reduce to their host while paths like /@handle are left alone
func afterAt(input string) string {
	start := 0
	if idx := strings.Index(input, "://"); idx != -1 {
		start = idx + len("://")
	}

	end := len(input)
	if idx := strings.IndexAny(input[start:], "/?#"); idx != -1 {
		end = start + idx
	}

	idx := strings.LastIndex(input[start:end], "@")
	if idx == -1 {
		return input
	}

	return input[start+idx+1:]
}

// registrable collapses a hostname to its registrable form using the fixed suffix list
func registrable(host string) string {
	labels := stripWWW(lo.Compact(strings.Split(host, ".")))
	host = strings.Join(labels, ".")

	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}

	if len(labels) <= 2 {
		return host
	}

	keep := 2

	for _, suffix := range multiPartSuffixes {
		if strings.HasSuffix(host, "."+suffix) {
			keep = strings.Count(suffix, ".") + 2
			break
		}
	}

	return strings.Join(stripWWW(labels[len(labels)-keep:]), ".")
}

// stripWWW drops leading www labels while at least one label remains
func stripWWW(labels []string) []string {
	for len(labels) > 1 && labels[0] == "www" {
		labels = labels[1:]
	}

	return labels
}

// fallback scans for the first domain-shaped token when URL parsing gives nothing usable
func fallback(raw string) string {
	match := domainPattern.FindString(raw)
	if match == "" {
		return ""
	}

	return registrable(strings.Trim(strings.ToLower(match), "."))
}
