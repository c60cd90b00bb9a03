package core

import (
	"fmt"
	"sort"
	"strings"
)

// ClaimRequirement states how badly the relying party wants a profile claim.
type ClaimRequirement string

const (
	ClaimRequest ClaimRequirement = "request"
	ClaimRequire ClaimRequirement = "require"
)

// Profile claim names understood by the relying party.
const (
	ClaimEmail    = "email"
	ClaimNickname = "nickname"
	ClaimFullName = "fullname"
)

// ClaimsRequest is the configured set of profile claims attached to every
// outbound authentication request. The core passes it through untouched.
type ClaimsRequest map[string]ClaimRequirement

// Names returns the requested claim names in a stable order.
func (c ClaimsRequest) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseClaimsRequest parses "email:require,nickname" style settings.
// A claim without a requirement defaults to ClaimRequest.
func ParseClaimsRequest(setting string) (ClaimsRequest, error) {
	claims := ClaimsRequest{}
	for _, part := range strings.Split(setting, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, requirement, found := strings.Cut(part, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("invalid claim setting %q", part)
		}

		req := ClaimRequest
		if found {
			req = ClaimRequirement(strings.ToLower(strings.TrimSpace(requirement)))
		}
		if req != ClaimRequest && req != ClaimRequire {
			return nil, fmt.Errorf("invalid claim requirement %q for %s", requirement, name)
		}

		claims[name] = req
	}
	return claims, nil
}
