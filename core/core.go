package core

// LogOnConfig holds the site settings the logon flow consults.
type LogOnConfig struct {
	// UsersCanRegister routes unknown identifiers to registration. When
	// false they are rejected with AccessDenied.
	UsersCanRegister bool

	// Claims are attached to every outbound authentication request.
	Claims ClaimsRequest
}
