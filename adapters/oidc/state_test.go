package oidc

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lborres/linkid/core"
)

func newTestCodec() *stateCodec {
	return &stateCodec{secret: []byte(testSecret), ttl: time.Minute}
}

// Requirement: Encoded state decodes back for the matching callback only
func TestStateCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec()
	in := stateClaims{Provider: "https://op.example.com", Verifier: "v", Nonce: "n", ReturnURL: "/inbox", Claims: []string{"email"}}

	token, id, err := codec.encode(in, time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := codec.decode(token, id)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Provider != in.Provider || got.Verifier != in.Verifier || got.Nonce != in.Nonce || got.ReturnURL != in.ReturnURL {
		t.Errorf("decoded = %+v, want %+v", got, in)
	}
	if len(got.Claims) != 1 || got.Claims[0] != "email" {
		t.Errorf("Claims = %v", got.Claims)
	}

	if _, err := codec.decode(token, "other"); !errors.Is(err, core.ErrRelyingPartyStateMismatched) {
		t.Errorf("mismatched param err = %v", err)
	}
}

// Requirement: State signed with another key, algorithm or issuer is rejected
func TestStateCodec_Rejects(t *testing.T) {
	codec := newTestCodec()
	valid := stateClaims{
		Provider: "https://op.example.com",
		Verifier: "v",
		Nonce:    "n",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			ID:        "id-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}

	sign := func(method jwt.SigningMethod, key any, c stateClaims) string {
		token, err := jwt.NewWithClaims(method, c).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return token
	}

	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	noVerifier := valid
	noVerifier.Verifier = ""

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong key", sign(jwt.SigningMethodHS256, []byte("another-secret-another-secret-00"), valid)},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{"wrong issuer", sign(jwt.SigningMethodHS256, codec.secret, otherIssuer)},
		{"no expiry", sign(jwt.SigningMethodHS256, codec.secret, noExpiry)},
		{"no verifier", sign(jwt.SigningMethodHS256, codec.secret, noVerifier)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := codec.decode(test.token, "id-1"); !errors.Is(err, core.ErrRelyingPartyStateInvalid) {
				t.Errorf("decode err = %v, want ErrRelyingPartyStateInvalid", err)
			}
		})
	}
}
