package core

import (
	"context"
	"net/url"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORTS (Database operations)
// ============================================

// UserStorage defines user-related database operations
type UserStorage interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUserName(ctx context.Context, userName string) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CredentialStorage defines password credential operations
type CredentialStorage interface {
	CreateCredential(ctx context.Context, c *Credential) error
	GetCredential(ctx context.Context, userID string) (*Credential, error)
}

// AssociationStorage defines claimed identifier association operations
type AssociationStorage interface {
	// LinkIdentifier inserts a unless its claimed identifier is already
	// associated. It returns the ID of the user owning the identifier after
	// the call, which differs from a.UserID when another writer won.
	LinkIdentifier(ctx context.Context, a *Association) (ownerID string, err error)

	// UnlinkIdentifier removes the association of id with userID. It returns
	// ErrAssociationNotFound when id is not associated with userID.
	UnlinkIdentifier(ctx context.Context, id ClaimedIdentifier, userID string) error

	// GetUserByClaimedIdentifier returns ErrUserNotFound when the identifier
	// has no association.
	GetUserByClaimedIdentifier(ctx context.Context, id ClaimedIdentifier) (*User, error)

	GetUserAssociations(ctx context.Context, userID string) ([]*Association, error)
}

// SessionStorage defines session-related database operations
type SessionStorage interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByHash(ctx context.Context, tokenHash string) (*Session, error)
	GetSessionByID(ctx context.Context, id string) (*Session, error)
	GetUserSessions(ctx context.Context, userID string) ([]*Session, error)
	DeleteSessionByID(ctx context.Context, id string) error
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// AuthStorage is everything the account service needs from a database.
type AuthStorage interface {
	UserStorage
	CredentialStorage
	AssociationStorage
	SessionStorage
}

// ============================================
// CACHE PORT
// ============================================

// Cache defines session caching operations
type Cache interface {
	Get(tokenHash string) (*Session, error)
	Set(tokenHash string, session *Session) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// PASSWORD PORT
// ============================================

// PasswordHandler hashes and verifies local account passwords
type PasswordHandler interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// ============================================
// FLASH PORT
// ============================================

// FlashStore keeps recorded errors alive across exactly one redirect.
type FlashStore interface {
	// Save stores entries under id, replacing anything stored before.
	Save(ctx context.Context, id string, entries map[string]string) error

	// Take returns and deletes the entries stored under id. It returns
	// ErrFlashNotFound when nothing is stored or the entry expired.
	Take(ctx context.Context, id string) (map[string]string, error)
}

// ============================================
// RELYING PARTY PORT
// ============================================

// AuthRequestInput describes an outbound authentication request.
type AuthRequestInput struct {
	Identifier Identifier
	ReturnURL  string
	Claims     ClaimsRequest
}

// AuthRequest is the built outbound request.
type AuthRequest struct {
	RedirectURL string

	// State is opaque to everything but the relying party. The HTTP layer
	// keeps it on the client and passes it back in Callback.State.
	State string
}

// Callback carries what the provider sent back.
type Callback struct {
	Query url.Values
	State string
}

// ProviderResponse is a pending provider response.
type ProviderResponse struct {
	Assertion Assertion
	ReturnURL string
}

// RelyingParty performs the identity provider handshake.
type RelyingParty interface {
	// CreateRequest discovers the provider named by in.Identifier and builds
	// the redirect to it. Errors are protocol level failures.
	CreateRequest(ctx context.Context, in AuthRequestInput) (*AuthRequest, error)

	// Response reports whether cb carries a provider response and, if so,
	// the verified assertion.
	Response(ctx context.Context, cb Callback) (*ProviderResponse, bool)
}

// ============================================
// SESSION STATE PORT
// ============================================

// SessionState is the requesting session as seen by the logon flow.
type SessionState interface {
	// CurrentUser returns nil without error when nobody is signed in.
	CurrentUser(ctx context.Context) (*User, error)
	SignIn(ctx context.Context, user *User, persistent bool) error
}

// ============================================
// HANDLERS (for HTTP adapters)
// ============================================

// AuthHandler provides account operations for HTTP adapters
type AuthHandler interface {
	SignUp(ctx context.Context, input SignUpInput, ipAddress, userAgent string) (*SignUpResult, error)
	SignIn(ctx context.Context, input SignInInput, ipAddress, userAgent string) (*SignInResult, error)
	SignOut(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*SessionData, error)
}

// LogOnHandler runs the two phases of a provider logon for HTTP adapters
type LogOnHandler interface {
	BeginLogOn(ctx context.Context, rawIdentifier, returnURL string, errs *ErrorBag) Outcome
	CompleteLogOn(ctx context.Context, cb Callback, returnURL string, session SessionState, errs *ErrorBag) Outcome
}
