package oidc

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
)

const stateIssuer = "linkid-rp"

// stateClaims is what the relying party needs to finish a logon. It travels
// with the browser as a signed token, so no server side storage is needed.
type stateClaims struct {
	Provider  string   `json:"op"`
	Verifier  string   `json:"pkce"`
	Nonce     string   `json:"nonce"`
	ReturnURL string   `json:"ret,omitempty"`
	Claims    []string `json:"cl,omitempty"`
	jwt.RegisteredClaims
}

type stateCodec struct {
	secret []byte
	ttl    time.Duration
}

// encode signs c. The token ID doubles as the OAuth state parameter.
func (s *stateCodec) encode(c stateClaims, now time.Time) (token, id string, err error) {
	id, err = crypto.NewCorrelationID()
	if err != nil {
		return "", "", err
	}

	c.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    stateIssuer,
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign state: %w", err)
	}
	return token, id, nil
}

// decode verifies token and checks it was issued for the callback carrying
// the OAuth state parameter param.
func (s *stateCodec) decode(token, param string) (*stateClaims, error) {
	if token == "" {
		return nil, core.ErrRelyingPartyStateInvalid
	}

	claims := &stateClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrRelyingPartyStateInvalid, err)
	}
	if claims.ID == "" || claims.Provider == "" || claims.Verifier == "" {
		return nil, core.ErrRelyingPartyStateInvalid
	}
	if claims.ID != param {
		return nil, core.ErrRelyingPartyStateMismatched
	}
	return claims, nil
}
