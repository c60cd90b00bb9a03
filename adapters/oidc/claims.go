package oidc

import (
	"encoding/json"
	"sort"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/lborres/linkid/core"
)

// claimMapping ties a profile claim name to the OpenID Connect claim that
// carries it and the scope that releases it.
type claimMapping struct {
	claim string
	scope string
}

const (
	scopeEmail   = "email"
	scopeProfile = "profile"
)

var profileClaims = map[string]claimMapping{
	core.ClaimEmail:    {claim: "email", scope: scopeEmail},
	core.ClaimNickname: {claim: "preferred_username", scope: scopeProfile},
	core.ClaimFullName: {claim: "name", scope: scopeProfile},
}

// scopesFor returns openid plus every scope releasing a requested claim.
func scopesFor(claims core.ClaimsRequest) []string {
	seen := map[string]bool{oidc.ScopeOpenID: true}
	scopes := []string{oidc.ScopeOpenID}
	for _, name := range claims.Names() {
		m, ok := profileClaims[name]
		if !ok || seen[m.scope] {
			continue
		}
		seen[m.scope] = true
		scopes = append(scopes, m.scope)
	}
	sort.Strings(scopes[1:])
	return scopes
}

type essentialClaim struct {
	Essential bool `json:"essential"`
}

// claimsParameter builds the "claims" authorization parameter, marking
// required claims essential. It returns "" when nothing is requested.
func claimsParameter(claims core.ClaimsRequest) (string, error) {
	idToken := map[string]*essentialClaim{}
	for _, name := range claims.Names() {
		m, ok := profileClaims[name]
		if !ok {
			continue
		}
		if claims[name] == core.ClaimRequire {
			idToken[m.claim] = &essentialClaim{Essential: true}
		} else if _, set := idToken[m.claim]; !set {
			idToken[m.claim] = nil
		}
	}
	if len(idToken) == 0 {
		return "", nil
	}

	encoded, err := json.Marshal(map[string]any{"id_token": idToken})
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// idTokenClaims are the standard claims read from a verified ID token.
type idTokenClaims struct {
	Subject           string `json:"sub"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Nickname          string `json:"nickname"`
	Name              string `json:"name"`
}

// attributes returns the released values of the requested claims.
func (c idTokenClaims) attributes(requested []string) map[string]string {
	values := map[string]string{
		core.ClaimEmail:    c.Email,
		core.ClaimNickname: c.PreferredUsername,
		core.ClaimFullName: c.Name,
	}
	if values[core.ClaimNickname] == "" {
		values[core.ClaimNickname] = c.Nickname
	}

	attrs := map[string]string{}
	for _, name := range requested {
		if v := values[name]; v != "" {
			attrs[name] = v
		}
	}
	return attrs
}

// friendlyIdentifier picks the most readable name the provider released.
func (c idTokenClaims) friendlyIdentifier(claimed core.ClaimedIdentifier) string {
	switch {
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		return c.Email
	default:
		return claimed.String()
	}
}
