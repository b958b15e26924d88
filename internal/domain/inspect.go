package domain

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Info describes a normalized domain key as seen by the public suffix list
type Info struct {
	// Key is the normalized domain key
	Key string `json:"key"`
	// Suffix is the public suffix of the key
	Suffix string `json:"suffix"`
	// Registrable is the effective TLD plus one label according to the public suffix list
	Registrable string `json:"registrable"`
	// ICANN reports whether the suffix is managed by ICANN rather than privately registered
	ICANN bool `json:"icann"`
	// IP reports whether the key is an IP literal
	IP bool `json:"ip,omitempty"`
}

// Inspect normalizes the input and checks that the resulting key is something an
// agreement can be looked up for: an IP literal or a name under a listed public suffix
func Inspect(raw string) (*Info, error) {
	key := Normalize(raw)
	if key == "" {
		return nil, ErrEmptyDomain
	}

	if net.ParseIP(key) != nil {
		return &Info{Key: key, Registrable: key, IP: true}, nil
	}

	if !strings.Contains(key, ".") {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomainFormat, key)
	}

	suffix, icann := publicsuffix.PublicSuffix(key)
	if !icann && strings.IndexByte(suffix, '.') == -1 {
		return nil, fmt.Errorf("%w: %s", ErrUnlistedSuffix, suffix)
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDomainFormat, err)
	}

	return &Info{
		Key:         key,
		Suffix:      suffix,
		Registrable: etld1,
		ICANN:       icann,
	}, nil
}
