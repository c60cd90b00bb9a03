// Package config loads the linkid server configuration from the environment
// and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lborres/linkid/core"
	"github.com/spf13/viper"
)

const minSecretLength = 32

type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// BasePath is where the linkid routes are mounted.
	BasePath string `mapstructure:"BASE_PATH"`
	// RegisterPath is where unknown identifiers are sent; empty means BasePath + "/register".
	RegisterPath string `mapstructure:"REGISTER_PATH"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL enables the shared flash store. Empty keeps flashes in memory.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Secret signs relying party state. At least 32 characters.
	Secret string `mapstructure:"SECRET"`

	SessionMaxAgeRaw string `mapstructure:"SESSION_MAX_AGE"`
	FlashTTLRaw      string `mapstructure:"FLASH_TTL"`
	OIDCStateTTLRaw  string `mapstructure:"OIDC_STATE_TTL"`

	UsersCanRegister bool `mapstructure:"USERS_CAN_REGISTER"`
	CookieSecure     bool `mapstructure:"COOKIE_SECURE"`

	// OIDCCallbackURL is the absolute URL of GET <BasePath>/logon.
	OIDCCallbackURL string `mapstructure:"OIDC_CALLBACK_URL"`
	// OIDCProvidersRaw lists issuer|client_id|client_secret entries, comma separated.
	OIDCProvidersRaw string `mapstructure:"OIDC_PROVIDERS"`
	// OTELEndpoint is the OTLP/HTTP traces url. Empty disables tracing export.
	OTELEndpoint string `mapstructure:"OTEL_ENDPOINT"`

	// ProfileClaimsRaw lists name[:request|require] entries, comma separated.
	ProfileClaimsRaw string `mapstructure:"PROFILE_CLAIMS"`

	SessionMaxAge time.Duration      `mapstructure:"-"`
	FlashTTL      time.Duration      `mapstructure:"-"`
	OIDCStateTTL  time.Duration      `mapstructure:"-"`
	Providers     []Provider         `mapstructure:"-"`
	ProfileClaims core.ClaimsRequest `mapstructure:"-"`
}

// Provider is one OpenID provider registration.
type Provider struct {
	Issuer       string
	ClientID     string
	ClientSecret string
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // a missing .env is fine

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("BASE_PATH", "/api/auth")
	v.SetDefault("REGISTER_PATH", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SECRET", "")
	v.SetDefault("SESSION_MAX_AGE", "24h")
	v.SetDefault("FLASH_TTL", "5m")
	v.SetDefault("OIDC_STATE_TTL", "10m")
	v.SetDefault("USERS_CAN_REGISTER", true)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("OIDC_CALLBACK_URL", "")
	v.SetDefault("OIDC_PROVIDERS", "")
	v.SetDefault("PROFILE_CLAIMS", "email,nickname")
	v.SetDefault("OTEL_ENDPOINT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL must be set")
	}
	if len(c.Secret) < minSecretLength {
		return fmt.Errorf("config: SECRET must be at least %d characters", minSecretLength)
	}
	if c.OIDCCallbackURL == "" {
		return errors.New("config: OIDC_CALLBACK_URL must be set")
	}

	var err error
	if c.SessionMaxAge, err = positiveDuration("SESSION_MAX_AGE", c.SessionMaxAgeRaw); err != nil {
		return err
	}
	if c.FlashTTL, err = positiveDuration("FLASH_TTL", c.FlashTTLRaw); err != nil {
		return err
	}
	if c.OIDCStateTTL, err = positiveDuration("OIDC_STATE_TTL", c.OIDCStateTTLRaw); err != nil {
		return err
	}

	if c.Providers, err = parseProviders(c.OIDCProvidersRaw); err != nil {
		return err
	}
	if len(c.Providers) == 0 {
		return errors.New("config: OIDC_PROVIDERS must list at least one provider")
	}

	if c.ProfileClaims, err = core.ParseClaimsRequest(c.ProfileClaimsRaw); err != nil {
		return fmt.Errorf("config: PROFILE_CLAIMS: %w", err)
	}
	return nil
}

func positiveDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

// parseProviders parses "issuer|client_id|client_secret" entries. The secret
// may be empty for public clients.
func parseProviders(raw string) ([]Provider, error) {
	var providers []Provider
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, "|")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("config: OIDC_PROVIDERS entry %q must be issuer|client_id|client_secret", entry)
		}
		p := Provider{Issuer: strings.TrimSpace(parts[0]), ClientID: strings.TrimSpace(parts[1])}
		if len(parts) == 3 {
			p.ClientSecret = strings.TrimSpace(parts[2])
		}
		if p.Issuer == "" || p.ClientID == "" {
			return nil, fmt.Errorf("config: OIDC_PROVIDERS entry %q needs an issuer and a client id", entry)
		}
		providers = append(providers, p)
	}
	return providers, nil
}
