package linkid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/cache"
	"github.com/lborres/linkid/pkg/crypto"
	"github.com/lborres/linkid/services"
)

// interfaces
type (
	AuthStorage     = core.AuthStorage
	Cache           = core.Cache
	FlashStore      = core.FlashStore
	RelyingParty    = core.RelyingParty
	PasswordHandler = core.PasswordHandler
	LogOnHandler    = core.LogOnHandler
)

// structs
type (
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
	ClaimsRequest = core.ClaimsRequest
)

type (
	User        = core.User
	Association = core.Association
	Session     = core.Session
	SessionData = core.SessionData
	SignUpInput = core.SignUpInput
	SignInInput = core.SignInInput
)

// HTTPAdapter mounts the linkid routes on a web framework.
type HTTPAdapter interface {
	RegisterRoutes(l *LinkID) error
}

// AccountService is what HTTP adapters need from the account side: the
// public account operations plus opening a session for a known user.
type AccountService interface {
	core.AuthHandler
	StartSession(ctx context.Context, user *core.User, persistent bool, ipAddress, userAgent string) (*core.CreateSessionResult, error)
}

const (
	defaultBasePath  = "/api/auth"
	defaultSecretLen = 32
	defaultFlashTTL  = 5 * time.Minute
)

// Constructors & helpers (convenience re-exports)
var (
	NewArgon2            = crypto.NewArgon2
	NewSessionCache      = cache.NewSessionCache
	DefaultSessionConfig = core.DefaultSessionConfig
	ParseClaimsRequest   = core.ParseClaimsRequest
)

var (
	ErrUserExists         = core.ErrUserExists
	ErrUserNotFound       = core.ErrUserNotFound
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrIdentifierAssigned = core.ErrIdentifierAssigned
	ErrRegistrationOff    = core.ErrRegistrationOff
)

var (
	ErrMissingAuthHeader = core.ErrMissingAuthHeader
	ErrInvalidToken      = core.ErrInvalidToken
	ErrSessionNotFound   = core.ErrSessionNotFound
	ErrSessionExpired    = core.ErrSessionExpired
)

var (
	ErrDBAdapterRequired    = core.ErrDBAdapterRequired
	ErrHTTPAdapterRequired  = core.ErrHTTPAdapterRequired
	ErrRelyingPartyRequired = core.ErrRelyingPartyRequired
	ErrSecretRequired       = core.ErrSecretRequired
	ErrSecretTooShort       = core.ErrSecretTooShort
)

type Config struct {
	Secret   string
	BasePath string

	// RegisterPath is where unknown identifiers are sent to register.
	// Defaults to BasePath + "/register".
	RegisterPath string

	Database     AuthStorage
	HTTP         HTTPAdapter
	RelyingParty RelyingParty

	// FlashStore carries logon errors across one redirect. Defaults to an
	// in-memory store, which only works with a single instance.
	FlashStore FlashStore
	FlashTTL   time.Duration

	CacheAdapter   Cache
	DisableCache   bool
	SessionConfig  *SessionConfig
	PasswordHasher PasswordHandler

	UsersCanRegister bool
	Claims           ClaimsRequest

	// CookieSecure marks every cookie Secure. Leave it on outside local
	// development.
	CookieSecure bool
}

type LinkID struct {
	Accounts AccountService
	LogOn    LogOnHandler
	Sessions *services.SessionManager
	Flash    FlashStore

	Secret       string
	BasePath     string
	RegisterPath string
	FlashTTL     time.Duration
	CookieSecure bool
}

func New(config Config) (*LinkID, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrDBAdapterRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}
	if config.RelyingParty == nil {
		return nil, ErrRelyingPartyRequired
	}

	// Set Defaults

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheAdapter = cache.NewSessionCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	sessionConfig := config.SessionConfig
	if sessionConfig == nil {
		defaults := core.DefaultSessionConfig()
		sessionConfig = &defaults
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = crypto.NewArgon2()
	}

	basePath := strings.TrimSuffix(config.BasePath, "/")
	if basePath == "" {
		basePath = defaultBasePath
	}

	registerPath := config.RegisterPath
	if registerPath == "" {
		registerPath = basePath + "/register"
	}

	flashTTL := config.FlashTTL
	if flashTTL <= 0 {
		flashTTL = defaultFlashTTL
	}

	flash := config.FlashStore
	if flash == nil {
		flash = cache.NewFlashStore(flashTTL, 10_000)
	}

	sessionManager := services.NewSessionManager(*sessionConfig, config.Database, cacheAdapter)
	accounts := services.NewAuthService(config.Database, sessionManager, passwordHasher, config.UsersCanRegister)
	logOn := services.NewLogOnService(config.RelyingParty, config.Database, core.LogOnConfig{
		UsersCanRegister: config.UsersCanRegister,
		Claims:           config.Claims,
	})

	linkid := &LinkID{
		Accounts:     accounts,
		LogOn:        logOn,
		Sessions:     sessionManager,
		Flash:        flash,
		Secret:       config.Secret,
		BasePath:     basePath,
		RegisterPath: registerPath,
		FlashTTL:     flashTTL,
		CookieSecure: config.CookieSecure,
	}

	if err := config.HTTP.RegisterRoutes(linkid); err != nil {
		return nil, err
	}

	return linkid, nil
}
