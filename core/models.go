package core

import "time"

// User represents a local account in the system
//
// This is the "identity" - who someone is
type User struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Association links an externally asserted claimed identifier to a local user.
//
// At most one association exists per claimed identifier. A user may hold many.
type Association struct {
	ID                 string            `json:"id"`
	UserID             string            `json:"userId"`
	ClaimedIdentifier  ClaimedIdentifier `json:"claimedIdentifier"`
	FriendlyIdentifier string            `json:"friendlyIdentifier"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// Credential is the password a user signs in with when not using a provider.
type Credential struct {
	UserID       string    `json:"userId"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Session represents an active login session
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TokenHash  string    `json:"-"` // Never expose in JSON (security!)
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	Persistent bool      `json:"persistent"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SessionData combines user and session info
// The model returned to clients
type SessionData struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}

// RegistrationDraft seeds the registration form after an unknown identifier
// was asserted. It is never persisted.
type RegistrationDraft struct {
	ClaimedIdentifier  ClaimedIdentifier `json:"claimedIdentifier"`
	FriendlyIdentifier string            `json:"friendlyIdentifier"`
	UserName           string            `json:"userName,omitempty"`
	Email              string            `json:"email,omitempty"`
	Attributes         map[string]string `json:"attributes,omitempty"`
}
