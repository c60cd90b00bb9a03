package core

import (
	"context"
	"errors"
	"testing"
)

type fakeRelyingParty struct {
	createCalled bool
	createInput  AuthRequestInput
	createResult *AuthRequest
	createErr    error
}

func (f *fakeRelyingParty) CreateRequest(ctx context.Context, in AuthRequestInput) (*AuthRequest, error) {
	f.createCalled = true
	f.createInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeRelyingParty) Response(ctx context.Context, cb Callback) (*ProviderResponse, bool) {
	return nil, false
}

// Requirement: invalid identifiers never reach the relying party.
func TestBeginAuthentication_InvalidIdentifier(t *testing.T) {
	// Arrange
	rp := &fakeRelyingParty{}
	errs := NewErrorBag(nil)

	// Act
	outcome := BeginAuthentication(context.Background(), rp, "=xri-name", "/back", nil, errs)

	// Assert
	show, ok := outcome.(ShowLogOn)
	if !ok {
		t.Fatalf("BeginAuthentication() = %T, want ShowLogOn", outcome)
	}
	if show.ReturnURL != "/back" {
		t.Errorf("ReturnURL = %q, want unchanged %q", show.ReturnURL, "/back")
	}
	if rp.createCalled {
		t.Error("relying party must not be called for an invalid identifier")
	}
	if msg, _ := errs.Get(ErrorKeyOpenIDIdentifier); msg != "Invalid Open ID identifier" {
		t.Errorf("OpenIdIdentifier message = %q", msg)
	}
}

// Requirement: a valid identifier yields an external redirect carrying the configured claims.
func TestBeginAuthentication_RedirectsToProvider(t *testing.T) {
	// Arrange
	rp := &fakeRelyingParty{createResult: &AuthRequest{RedirectURL: "https://op.example.com/authorize?x=1", State: "opaque"}}
	errs := NewErrorBag(nil)
	claims := ClaimsRequest{ClaimEmail: ClaimRequire}

	// Act
	outcome := BeginAuthentication(context.Background(), rp, "op.example.com", "/back", claims, errs)

	// Assert
	redirect, ok := outcome.(ExternalRedirect)
	if !ok {
		t.Fatalf("BeginAuthentication() = %T, want ExternalRedirect", outcome)
	}
	if redirect.URL != "https://op.example.com/authorize?x=1" || redirect.State != "opaque" {
		t.Errorf("unexpected redirect %+v", redirect)
	}
	if rp.createInput.Identifier.String() != "https://op.example.com" {
		t.Errorf("Identifier = %q", rp.createInput.Identifier)
	}
	if rp.createInput.Claims[ClaimEmail] != ClaimRequire {
		t.Error("claims request should be passed through")
	}
	if rp.createInput.ReturnURL != "/back" {
		t.Errorf("ReturnURL = %q", rp.createInput.ReturnURL)
	}
	if errs.Len() != 0 {
		t.Errorf("expected no errors, got %v", errs.Keys())
	}
}

// Requirement: protocol failures are recorded and the logon page is shown.
func TestBeginAuthentication_ProtocolFailure(t *testing.T) {
	tests := []struct {
		name    string
		rp      *fakeRelyingParty
		wantMsg string
	}{
		{
			name:    "discovery failure",
			rp:      &fakeRelyingParty{createErr: errors.New("discovery failed")},
			wantMsg: "Unable to authenticate: discovery failed",
		},
		{
			name:    "empty request",
			rp:      &fakeRelyingParty{createResult: &AuthRequest{}},
			wantMsg: "Unable to authenticate: no redirect built for https://op.example.com",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			errs := NewErrorBag(nil)

			// Act
			outcome := BeginAuthentication(context.Background(), test.rp, "https://op.example.com/", "/back", nil, errs)

			// Assert
			if _, ok := outcome.(ShowLogOn); !ok {
				t.Fatalf("BeginAuthentication() = %T, want ShowLogOn", outcome)
			}
			msg, ok := errs.Get(ErrorKeyProtocolException)
			if !ok {
				t.Fatalf("expected ProtocolException, got %v", errs.Keys())
			}
			if msg != test.wantMsg {
				t.Errorf("message = %q, want %q", msg, test.wantMsg)
			}
		})
	}
}
