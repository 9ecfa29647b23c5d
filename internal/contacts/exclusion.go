package contacts

import (
	"strings"

	"github.com/thib420/AI-Table-sub000/internal/validator"
)

// Automated-sender local parts that never become contacts, regardless of
// configuration
var systemSenderPrefixes = []string{
	"noreply",
	"no-reply",
	"donotreply",
	"postmaster",
	"mailer-daemon",
	"notifications",
	"bounce",
}

// ExclusionPolicy decides which harvested addresses are kept out of the
// contact set. System senders are always excluded; beyond that the policy
// applies a domain blocklist, a local-part prefix blocklist, and an optional
// allow-list of prefixes which, when set, excludes everything else.
type ExclusionPolicy struct {
	excludePrefixes []string
	excludeDomains  map[string]struct{}
	includePrefixes []string
}

// NewExclusionPolicy builds a policy from configured prefix and domain lists.
// All matching is case-insensitive.
func NewExclusionPolicy(excludePrefixes, excludeDomains, includePrefixes []string) *ExclusionPolicy {
	policy := &ExclusionPolicy{
		excludePrefixes: lowerAll(excludePrefixes),
		excludeDomains:  make(map[string]struct{}, len(excludeDomains)),
		includePrefixes: lowerAll(includePrefixes),
	}
	for _, domain := range excludeDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			policy.excludeDomains[domain] = struct{}{}
		}
	}
	return policy
}

// Excluded reports whether the address must be kept out of the contact set.
// Addresses that cannot be split into local part and domain are excluded.
func (p *ExclusionPolicy) Excluded(email string) bool {
	localPart, domain := validator.SplitAddress(email)
	if localPart == "" || domain == "" {
		return true
	}
	localPart = strings.ToLower(localPart)
	domain = strings.ToLower(domain)

	for _, prefix := range systemSenderPrefixes {
		if strings.HasPrefix(localPart, prefix) {
			return true
		}
	}

	if _, blocked := p.excludeDomains[domain]; blocked {
		return true
	}

	for _, prefix := range p.excludePrefixes {
		if prefix != "" && strings.HasPrefix(localPart, prefix) {
			return true
		}
	}

	if len(p.includePrefixes) > 0 {
		for _, prefix := range p.includePrefixes {
			if prefix != "" && strings.HasPrefix(localPart, prefix) {
				return false
			}
		}
		return true
	}

	return false
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
