package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
	"golang.org/x/oauth2"
)

const (
	defaultStateTTL = 10 * time.Minute

	// errorAccessDenied is the OAuth error a provider returns when the user
	// declines.
	errorAccessDenied = "access_denied"
)

var (
	ErrCallbackURLRequired = errors.New("oidc callback url is required")
	ErrClientsRequired     = errors.New("at least one oidc client is required")
	ErrIDTokenMissing      = errors.New("provider did not return an id_token")
	ErrNonceMismatch       = errors.New("id_token nonce does not match the request")
)

// Client is the registration of this site at one OpenID provider.
type Client struct {
	Issuer       string
	ClientID     string
	ClientSecret string
}

type Config struct {
	// Secret signs the state kept on the browser between the redirect and
	// the callback.
	Secret      string
	CallbackURL string
	Clients     []Client
	StateTTL    time.Duration

	// HTTPClient is used for discovery, token and key requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client
}

type provider struct {
	oauth    oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// RelyingParty runs the OpenID Connect authorization code flow with PKCE
// against the configured providers. The identifier a user types names the
// provider's issuer.
type RelyingParty struct {
	clients  map[string]Client // by normalized issuer
	callback string
	state    stateCodec
	http     *http.Client
	now      func() time.Time

	mu        sync.Mutex
	providers map[string]*provider
}

var _ core.RelyingParty = (*RelyingParty)(nil)

func New(cfg Config) (*RelyingParty, error) {
	if cfg.Secret == "" {
		return nil, core.ErrSecretRequired
	}
	if cfg.CallbackURL == "" {
		return nil, ErrCallbackURLRequired
	}
	if len(cfg.Clients) == 0 {
		return nil, ErrClientsRequired
	}

	clients := make(map[string]Client, len(cfg.Clients))
	for _, c := range cfg.Clients {
		issuer, err := core.ParseIdentifier(c.Issuer)
		if err != nil || c.ClientID == "" {
			return nil, fmt.Errorf("invalid oidc client for issuer %q", c.Issuer)
		}
		clients[issuer.String()] = c
	}

	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &RelyingParty{
		clients:   clients,
		callback:  cfg.CallbackURL,
		state:     stateCodec{secret: []byte(cfg.Secret), ttl: ttl},
		http:      httpClient,
		now:       time.Now,
		providers: make(map[string]*provider),
	}, nil
}

// discover returns the provider registered for issuer, running discovery on
// first use.
func (rp *RelyingParty) discover(ctx context.Context, issuer string) (*provider, error) {
	rp.mu.Lock()
	p, ok := rp.providers[issuer]
	rp.mu.Unlock()
	if ok {
		return p, nil
	}

	client, ok := rp.clients[issuer]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrProviderNotConfigured, issuer)
	}

	// the key set fetched later reuses this context, so it must outlive the request
	discoveryCtx := oidc.ClientContext(context.WithoutCancel(ctx), rp.http)
	op, err := oidc.NewProvider(discoveryCtx, client.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", client.Issuer, err)
	}

	p = &provider{
		oauth: oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			RedirectURL:  rp.callback,
			Endpoint:     op.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID},
		},
		verifier: op.Verifier(&oidc.Config{ClientID: client.ClientID}),
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()
	if existing, ok := rp.providers[issuer]; ok {
		return existing, nil
	}
	rp.providers[issuer] = p
	return p, nil
}

// CreateRequest builds the authorization redirect for in.Identifier.
func (rp *RelyingParty) CreateRequest(ctx context.Context, in core.AuthRequestInput) (*core.AuthRequest, error) {
	issuer := in.Identifier.String()
	p, err := rp.discover(ctx, issuer)
	if err != nil {
		return nil, err
	}

	verifier := oauth2.GenerateVerifier()
	nonce, err := crypto.NewCorrelationID()
	if err != nil {
		return nil, err
	}

	token, id, err := rp.state.encode(stateClaims{
		Provider:  issuer,
		Verifier:  verifier,
		Nonce:     nonce,
		ReturnURL: in.ReturnURL,
		Claims:    in.Claims.Names(),
	}, rp.now())
	if err != nil {
		return nil, err
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOnline,
		oauth2.S256ChallengeOption(verifier),
		oidc.Nonce(nonce),
	}
	param, err := claimsParameter(in.Claims)
	if err != nil {
		return nil, err
	}
	if param != "" {
		opts = append(opts, oauth2.SetAuthURLParam("claims", param))
	}

	cfg := p.oauth
	cfg.Scopes = scopesFor(in.Claims)

	return &core.AuthRequest{
		RedirectURL: cfg.AuthCodeURL(id, opts...),
		State:       token,
	}, nil
}

// Response reports a provider response when the callback carries a code or
// an error. Every failure past that point is an assertion, never an error.
func (rp *RelyingParty) Response(ctx context.Context, cb core.Callback) (*core.ProviderResponse, bool) {
	code, oauthErr := cb.Query.Get("code"), cb.Query.Get("error")
	if code == "" && oauthErr == "" {
		return nil, false
	}

	claims, err := rp.state.decode(cb.State, cb.Query.Get("state"))
	if err != nil {
		log.Warnw("oidc callback rejected", "error", err)
		return &core.ProviderResponse{Assertion: core.Failed{Reason: err.Error()}}, true
	}

	resp := &core.ProviderResponse{ReturnURL: claims.ReturnURL}
	if oauthErr != "" {
		resp.Assertion = assertionForError(oauthErr, cb.Query.Get("error_description"))
		return resp, true
	}

	assertion, err := rp.exchange(ctx, claims, code)
	if err != nil {
		log.Warnw("oidc code exchange failed", "provider", claims.Provider, "error", err)
		resp.Assertion = core.Failed{Reason: err.Error()}
		return resp, true
	}
	resp.Assertion = assertion
	return resp, true
}

func (rp *RelyingParty) exchange(ctx context.Context, claims *stateClaims, code string) (core.Assertion, error) {
	p, err := rp.discover(ctx, claims.Provider)
	if err != nil {
		return nil, err
	}

	ctx = oidc.ClientContext(ctx, rp.http)
	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(claims.Verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, ErrIDTokenMissing
	}

	idToken, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idToken.Nonce != claims.Nonce {
		return nil, ErrNonceMismatch
	}

	var released idTokenClaims
	if err := idToken.Claims(&released); err != nil {
		return nil, fmt.Errorf("parse id_token claims: %w", err)
	}

	claimed := claimedIdentifier(idToken.Issuer, idToken.Subject)
	return core.Authenticated{
		ClaimedIdentifier:  claimed,
		FriendlyIdentifier: released.friendlyIdentifier(claimed),
		Attributes:         released.attributes(claims.Claims),
	}, nil
}

// claimedIdentifier scopes the subject to its issuer. Subjects are only
// unique per issuer.
func claimedIdentifier(issuer, subject string) core.ClaimedIdentifier {
	return core.ClaimedIdentifier(issuer + "#" + subject)
}

func assertionForError(code, description string) core.Assertion {
	if code == errorAccessDenied {
		return core.Canceled{}
	}
	if description != "" {
		return core.Failed{Reason: description}
	}
	return core.Failed{Reason: code}
}
