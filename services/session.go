package services

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
)

type SessionManager struct {
	config  core.SessionConfig
	storage core.SessionStorage
	cache   core.Cache // optional, nil disables caching
}

func NewSessionManager(config core.SessionConfig, storage core.SessionStorage, cache core.Cache) *SessionManager {
	if config.MaxAge <= 0 {
		config.MaxAge = core.DefaultSessionConfig().MaxAge
	}
	return &SessionManager{config: config, storage: storage, cache: cache}
}

// Create opens a session for userID. Non-persistent sessions are still
// bounded by MaxAge server side.
func (sm *SessionManager) Create(ctx context.Context, userID, ip, userAgent string, persistent bool) (*core.CreateSessionResult, error) {
	pair, err := crypto.GenerateHashedToken(crypto.DefaultTokenLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &core.Session{
		ID:         crypto.NewID(),
		UserID:     userID,
		TokenHash:  pair.Hash,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Persistent: persistent,
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  now.Add(sm.config.MaxAge),
	}

	if err := sm.storage.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if sm.cache != nil {
		// a cold cache only costs a storage read
		if err := sm.cache.Set(pair.Hash, session); err != nil {
			log.Warnw("session cache set failed", "sessionId", session.ID, "error", err)
		}
	}

	return &core.CreateSessionResult{Session: session, Token: pair.Token}, nil
}

func (sm *SessionManager) Verify(ctx context.Context, token string) (*core.Session, error) {
	if token == "" {
		return nil, core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)

	if sm.cache != nil {
		if session, err := sm.cache.Get(tokenHash); err == nil {
			if time.Now().After(session.ExpiresAt) {
				_ = sm.cache.Delete(tokenHash)
				return nil, core.ErrSessionExpired
			}
			return session, nil
		}
	}

	session, err := sm.storage.GetSessionByHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, core.ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, core.ErrSessionExpired
	}

	if sm.cache != nil {
		_ = sm.cache.Set(tokenHash, session)
	}

	return session, nil
}

func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return core.ErrInvalidToken
	}

	tokenHash := crypto.HashToken(token)
	if err := sm.storage.DeleteSessionByHash(ctx, tokenHash); err != nil {
		return err
	}

	if sm.cache != nil {
		_ = sm.cache.Delete(tokenHash)
	}

	return nil
}

func (sm *SessionManager) DestroyBySessionID(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return core.ErrSessionNotFound
	}

	// look the hash up first so the cache entry can go too
	if sm.cache != nil {
		if session, err := sm.storage.GetSessionByID(ctx, sessionID); err == nil && session != nil {
			_ = sm.cache.Delete(session.TokenHash)
		}
	}

	return sm.storage.DeleteSessionByID(ctx, sessionID)
}

func (sm *SessionManager) DestroyAllUserSessions(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, core.ErrUserNotFound
	}

	if sm.cache != nil {
		sessions, err := sm.storage.GetUserSessions(ctx, userID)
		if err != nil {
			return 0, err
		}
		for _, s := range sessions {
			_ = sm.cache.Delete(s.TokenHash)
		}
	}

	return sm.storage.DeleteUserSessions(ctx, userID)
}

// PurgeExpired deletes sessions past their expiry and returns how many went.
func (sm *SessionManager) PurgeExpired(ctx context.Context) (int, error) {
	count, err := sm.storage.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Infow("purged expired sessions", "count", count)
	}
	return count, nil
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (sm *SessionManager) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sm.PurgeExpired(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("session purge failed", "error", err)
			}
		}
	}
}
