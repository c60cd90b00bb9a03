package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

type AuthService struct {
	db                  core.AuthStorage
	passwordHasher      core.PasswordHandler
	sessionManager      *SessionManager
	registrationAllowed bool
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

func NewAuthService(db core.AuthStorage, sessionManager *SessionManager, passwordHasher core.PasswordHandler, registrationAllowed bool) *AuthService {
	return &AuthService{
		db:                  db,
		passwordHasher:      passwordHasher,
		sessionManager:      sessionManager,
		registrationAllowed: registrationAllowed,
	}
}

func validateSignUp(input core.SignUpInput) error {
	if strings.TrimSpace(input.UserName) == "" {
		return core.ErrUserNameRequired
	}
	if input.Password == "" {
		return core.ErrPasswordRequired
	}
	if len(input.Password) < minPasswordLength {
		return core.ErrPasswordTooShort
	}
	if len(input.Password) > maxPasswordLength {
		return core.ErrPasswordTooLong
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return core.ErrInvalidEmail
		}
	}
	return nil
}

// SignUp creates a local account with a password credential and signs it in.
// When input carries a claimed identifier the new account is associated with
// it, completing a provider logon that was routed to registration.
func (s *AuthService) SignUp(ctx context.Context, input core.SignUpInput, ipAddress, userAgent string) (*core.SignUpResult, error) {
	if !s.registrationAllowed {
		return nil, core.ErrRegistrationOff
	}
	if err := validateSignUp(input); err != nil {
		return nil, err
	}
	input.UserName = strings.TrimSpace(input.UserName)

	// Step 1: Reject taken user names and identifiers
	existing, err := s.db.GetUserByUserName(ctx, input.UserName)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, core.ErrUserExists
	}

	if input.ClaimedIdentifier != "" {
		owner, err := s.db.GetUserByClaimedIdentifier(ctx, input.ClaimedIdentifier)
		if err != nil && !errors.Is(err, core.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to check claimed identifier: %w", err)
		}
		if owner != nil {
			return nil, core.ErrIdentifierAssigned
		}
	}

	// Step 2: Hash the password
	hashedPassword, err := s.passwordHasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Step 3: Create the user and credential
	now := time.Now()
	user := &core.User{
		ID:        crypto.NewID(),
		UserName:  input.UserName,
		Email:     input.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	credential := &core.Credential{
		UserID:       user.ID,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateCredential(ctx, credential); err != nil {
		s.discardUser(ctx, user.ID)
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	// Step 4: Associate the claimed identifier
	var association *core.Association
	if input.ClaimedIdentifier != "" {
		association = &core.Association{
			ID:                 crypto.NewID(),
			UserID:             user.ID,
			ClaimedIdentifier:  input.ClaimedIdentifier,
			FriendlyIdentifier: input.FriendlyIdentifier,
			CreatedAt:          now,
		}
		ownerID, err := s.db.LinkIdentifier(ctx, association)
		if err != nil {
			s.discardUser(ctx, user.ID)
			return nil, fmt.Errorf("failed to associate identifier: %w", err)
		}
		if ownerID != user.ID {
			// lost the race to another registration
			s.discardUser(ctx, user.ID)
			return nil, core.ErrIdentifierAssigned
		}
	}

	// Step 5: Create a session for the new user
	sessionResult, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Infow("user registered", "userId", user.ID, "associated", association != nil)

	return &core.SignUpResult{
		User:        user,
		Association: association,
		Session:     sessionResult.Session,
		Token:       sessionResult.Token,
	}, nil
}

func (s *AuthService) discardUser(ctx context.Context, userID string) {
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		log.Errorw("failed to discard partially registered user", "userId", userID, "error", err)
	}
}

// SignIn authenticates a user with user name and password
func (s *AuthService) SignIn(ctx context.Context, input core.SignInInput, ipAddress, userAgent string) (*core.SignInResult, error) {
	if strings.TrimSpace(input.UserName) == "" {
		return nil, core.ErrUserNameRequired
	}
	if input.Password == "" {
		return nil, core.ErrPasswordRequired
	}

	user, err := s.db.GetUserByUserName(ctx, strings.TrimSpace(input.UserName))
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	credential, err := s.db.GetCredential(ctx, user.ID)
	if err != nil {
		// accounts created through a provider alone have no password
		if errors.Is(err, core.ErrCredentialNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	valid, err := s.passwordHasher.Verify(input.Password, credential.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, core.ErrInvalidCredentials
	}

	sessionResult, err := s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent, input.RememberMe)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &core.SignInResult{
		User:    user,
		Session: sessionResult.Session,
		Token:   sessionResult.Token,
	}, nil
}

// SignOut invalidates the session behind token
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if err := s.sessionManager.Destroy(ctx, token); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) || errors.Is(err, core.ErrInvalidToken) {
			return err
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetSession retrieves session data by token
func (s *AuthService) GetSession(ctx context.Context, token string) (*core.SessionData, error) {
	session, err := s.sessionManager.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return nil, core.ErrInvalidToken
		}
		return nil, err
	}

	user, err := s.db.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &core.SessionData{User: user, Session: session}, nil
}

// StartSession signs user in on a new session. The logon flow uses it once an
// identifier has been linked.
func (s *AuthService) StartSession(ctx context.Context, user *core.User, persistent bool, ipAddress, userAgent string) (*core.CreateSessionResult, error) {
	if user == nil || user.ID == "" {
		return nil, core.ErrUserNotFound
	}
	return s.sessionManager.Create(ctx, user.ID, ipAddress, userAgent, persistent)
}
