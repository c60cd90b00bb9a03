package core

import "time"

type SessionConfig struct {
	// MaxAge bounds every session, persistent or not. Non-persistent
	// sessions additionally end when the browser drops the cookie.
	MaxAge time.Duration
}

type CreateSessionResult struct {
	Session *Session `json:"session"`
	Token   string   `json:"token"`
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: 24 * time.Hour,
	}
}
