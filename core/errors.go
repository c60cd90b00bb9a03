package core

import "errors"

// Account errors
var (
	ErrUserExists         = errors.New("user already exists")          // 409 Conflict
	ErrUserNotFound       = errors.New("user not found")               // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid username or password") // 401 Unauthorized
	ErrCredentialNotFound = errors.New("credential not found")
)

// Association errors
var (
	ErrAssociationNotFound = errors.New("association not found")
	ErrIdentifierAssigned  = errors.New("claimed identifier already assigned to another account") // 409
	ErrInvalidIdentifier   = errors.New("invalid open id identifier")                             // 400
)

// Session errors
var (
	ErrMissingAuthHeader = errors.New("missing authorization header") // 401
	ErrInvalidToken      = errors.New("invalid session token")        // 401
	ErrSessionNotFound   = errors.New("session not found")            // 401
	ErrSessionExpired    = errors.New("session expired")              // 401
	ErrCacheNotFound     = errors.New("entry not found in cache")
	ErrFlashNotFound     = errors.New("flash entry not found")
)

// Validation errors (client input)
var (
	ErrInvalidAuthHeader = errors.New("invalid authorization format, expected 'Bearer <token>'") // 401
	ErrUserNameRequired  = errors.New("user name is required")                                   // 400
	ErrPasswordRequired  = errors.New("password is required")                                    // 400
	ErrPasswordTooShort  = errors.New("password is too short")                                   // 400
	ErrPasswordTooLong   = errors.New("password is too long")                                    // 400
	ErrInvalidEmail      = errors.New("invalid email format")                                    // 400
	ErrRegistrationOff   = errors.New("registration is disabled")                                // 403
)

// Config errors (server-side configuration)
var (
	ErrDBAdapterRequired           = errors.New("database adapter is required")       // 500
	ErrHTTPAdapterRequired         = errors.New("adapter is required")                // 500
	ErrRelyingPartyRequired        = errors.New("relying party is required")          // 500
	ErrSecretRequired              = errors.New("secret is required")                 // 500
	ErrSecretTooShort              = errors.New("secret too short")                   // 500
	ErrProviderNotConfigured       = errors.New("no client registered for provider") // 500
	ErrRelyingPartyStateInvalid    = errors.New("relying party state is invalid")
	ErrRelyingPartyStateMismatched = errors.New("relying party state does not match callback")
)
