package core

// SignUpInput contains the data needed to register a new user
type SignUpInput struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// ClaimedIdentifier completes a provider logon that was routed to
	// registration. Empty for plain password sign-ups.
	ClaimedIdentifier  ClaimedIdentifier `json:"claimedIdentifier,omitempty"`
	FriendlyIdentifier string            `json:"friendlyIdentifier,omitempty"`
}

// SignUpResult contains the newly created user and their first session
type SignUpResult struct {
	User        *User        `json:"user"`
	Association *Association `json:"association,omitempty"`
	Session     *Session     `json:"session"`
	Token       string       `json:"token"` // The raw token (not the hash)
}

// SignInInput contains the credentials for authentication
type SignInInput struct {
	UserName   string `json:"userName"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// SignInResult contains the authenticated user and their session
type SignInResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
	Token   string   `json:"token"` // The raw token (not the hash)
}
