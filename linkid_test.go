package linkid

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/services"
)

const testSecret = "01234567890123456789012345678901"

type dummyHTTP struct {
	registered *LinkID
	err        error
}

func (d *dummyHTTP) RegisterRoutes(l *LinkID) error {
	d.registered = l
	return d.err
}

func validConfig() Config {
	return Config{
		Secret:       testSecret,
		Database:     services.NewFakeStorageProvider(),
		HTTP:         &dummyHTTP{},
		RelyingParty: services.NewFakeRelyingParty(),
	}
}

// Requirement: New rejects incomplete configuration with the matching sentinel.
func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "missing secret", mutate: func(c *Config) { c.Secret = "" }, wantErr: ErrSecretRequired},
		{name: "short secret", mutate: func(c *Config) { c.Secret = "short-secret" }, wantErr: ErrSecretTooShort},
		{name: "missing database", mutate: func(c *Config) { c.Database = nil }, wantErr: ErrDBAdapterRequired},
		{name: "missing http adapter", mutate: func(c *Config) { c.HTTP = nil }, wantErr: ErrHTTPAdapterRequired},
		{name: "missing relying party", mutate: func(c *Config) { c.RelyingParty = nil }, wantErr: ErrRelyingPartyRequired},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			cfg := validConfig()
			test.mutate(&cfg)

			// Act
			_, err := New(cfg)

			// Assert
			if !errors.Is(err, test.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, test.wantErr)
			}
		})
	}
}

func TestNewShouldReturnErrSecretTooShortWithMinimum(t *testing.T) {
	cfg := validConfig()
	cfg.Secret = "short-secret"

	_, err := New(cfg)

	if !strings.Contains(err.Error(), "32") {
		t.Fatalf("expected error message to include minimum length, got %v", err)
	}
}

// Requirement: defaults are filled in and the adapter receives the instance.
func TestNew_Defaults(t *testing.T) {
	// Arrange
	adapter := &dummyHTTP{}
	cfg := validConfig()
	cfg.HTTP = adapter
	cfg.BasePath = "/auth/"

	// Act
	l, err := New(cfg)

	// Assert
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if adapter.registered != l {
		t.Error("RegisterRoutes should receive the new instance")
	}
	if l.BasePath != "/auth" || l.RegisterPath != "/auth/register" {
		t.Errorf("paths = %q, %q", l.BasePath, l.RegisterPath)
	}
	if l.Flash == nil || l.FlashTTL != defaultFlashTTL {
		t.Errorf("flash defaults not applied: %v, %v", l.Flash, l.FlashTTL)
	}
	if l.Accounts == nil || l.LogOn == nil || l.Sessions == nil {
		t.Error("services should be wired")
	}
}

func TestNew_RegisterRoutesError(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP = &dummyHTTP{err: errors.New("route conflict")}

	if _, err := New(cfg); err == nil || err.Error() != "route conflict" {
		t.Fatalf("New() error = %v, want route conflict", err)
	}
}

// Requirement: with caching disabled every verification reaches storage.
func TestNewShouldNotUseCacheWhenDisableCacheTrue(t *testing.T) {
	// Arrange
	storage := services.NewFakeStorageProvider()
	cfg := validConfig()
	cfg.Database = storage
	cfg.DisableCache = true
	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := l.Sessions.Create(context.Background(), "user1", "127.0.0.1", "ua", false)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Act
	_ = storage.DeleteSessionByHash(context.Background(), res.Session.TokenHash)
	_, err = l.Sessions.Verify(context.Background(), res.Token)

	// Assert
	if !errors.Is(err, core.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound because cache disabled, got %v", err)
	}
}

func TestNewShouldUseDefaultCache(t *testing.T) {
	storage := services.NewFakeStorageProvider()
	cfg := validConfig()
	cfg.Database = storage
	l, _ := New(cfg)
	res, _ := l.Sessions.Create(context.Background(), "user1", "127.0.0.1", "ua", false)

	_ = storage.DeleteSessionByHash(context.Background(), res.Session.TokenHash)
	_, err := l.Sessions.Verify(context.Background(), res.Token)

	if err != nil {
		t.Fatalf("cached session should still verify, got %v", err)
	}
}
