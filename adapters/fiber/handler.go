package fiber

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid"
	"github.com/lborres/linkid/core"
)

// Draft fields kept server side between the callback and registration
const (
	draftClaimedIdentifier  = "claimedIdentifier"
	draftFriendlyIdentifier = "friendlyIdentifier"
	draftUserName           = "userName"
	draftEmail              = "email"

	// prefetched profile attributes are stored as attribute.<claim>
	draftAttributePrefix = "attribute."
)

type registerView struct {
	ClaimedIdentifier  string            `json:"claimedIdentifier"`
	FriendlyIdentifier string            `json:"friendlyIdentifier"`
	UserName           string            `json:"userName,omitempty"`
	Email              string            `json:"email,omitempty"`
	Attributes         map[string]string `json:"attributes,omitempty"`
	ReturnURL          string            `json:"returnUrl"`
}

func draftEntries(d core.RegistrationDraft) map[string]string {
	entries := map[string]string{
		draftClaimedIdentifier:  d.ClaimedIdentifier.String(),
		draftFriendlyIdentifier: d.FriendlyIdentifier,
		draftUserName:           d.UserName,
		draftEmail:              d.Email,
	}
	for name, value := range d.Attributes {
		entries[draftAttributePrefix+name] = value
	}
	return entries
}

func draftAttributes(entries map[string]string) map[string]string {
	var attributes map[string]string
	for key, value := range entries {
		name, ok := strings.CutPrefix(key, draftAttributePrefix)
		if !ok || name == "" {
			continue
		}
		if attributes == nil {
			attributes = make(map[string]string)
		}
		attributes[name] = value
	}
	return attributes
}

// registerForm renders the registration view prefilled from the pending draft.
func (a *Adapter) registerForm(c fiber.Ctx) error {
	view := registerView{
		ClaimedIdentifier:  c.Query("claimedidentifier"),
		FriendlyIdentifier: c.Query("friendlyidentifier"),
		ReturnURL:          safeReturnURL(c.Query("returnUrl")),
	}

	if draft, ok := a.peekDraft(c); ok {
		view.ClaimedIdentifier = draft[draftClaimedIdentifier]
		view.FriendlyIdentifier = draft[draftFriendlyIdentifier]
		view.UserName = draft[draftUserName]
		view.Email = draft[draftEmail]
		view.Attributes = draftAttributes(draft)
	}

	return c.Status(http.StatusOK).JSON(view)
}

// register creates an account. A claimed identifier is only ever taken from
// the draft stored when the provider asserted it, never from the body.
func (a *Adapter) register(c fiber.Ctx) error {
	var input linkid.SignUpInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	input.ClaimedIdentifier = ""
	input.FriendlyIdentifier = ""
	draft, hasDraft := a.takeDraft(c)
	if hasDraft {
		input.ClaimedIdentifier = core.ClaimedIdentifier(draft[draftClaimedIdentifier])
		input.FriendlyIdentifier = draft[draftFriendlyIdentifier]
	}

	result, err := a.accounts.SignUp(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		if hasDraft && !errors.Is(err, core.ErrIdentifierAssigned) {
			// let the visitor fix the form and try again
			a.saveDraft(c, draft)
		}
		return handleAuthError(c, err)
	}

	a.clearCookie(c, registrationCookie)
	a.setSessionCookie(c, result.Token, result.Session)

	return c.Status(http.StatusCreated).JSON(result)
}

func (a *Adapter) signin(c fiber.Ctx) error {
	var input linkid.SignInInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := a.accounts.SignIn(c.Context(), input, c.IP(), c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return handleAuthError(c, err)
	}

	a.setSessionCookie(c, result.Token, result.Session)

	return c.Status(http.StatusOK).JSON(result)
}

func (a *Adapter) signout(c fiber.Ctx) error {
	token := extractToken(c)

	if err := a.accounts.SignOut(c.Context(), token); err != nil {
		return handleAuthError(c, err)
	}

	a.clearCookie(c, sessionCookie)

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "signed out successfully",
	})
}

func (a *Adapter) session(c fiber.Ctx) error {
	data, ok := c.Locals(localSessionData).(*core.SessionData)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"error": core.ErrMissingAuthHeader.Error(),
		})
	}
	return c.Status(http.StatusOK).JSON(data)
}

// extractToken extracts the session token from the request.
// Checks Authorization header (Bearer token) first, then falls back to cookie.
func extractToken(c fiber.Ctx) string {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return c.Cookies(sessionCookie)
}

// handleAuthError maps account errors to HTTP responses
func handleAuthError(c fiber.Ctx, err error) error {
	status := mapErrorToStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		message = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// mapErrorToStatus maps linkid errors to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrInvalidCredentials),
		errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSessionExpired),
		errors.Is(err, core.ErrMissingAuthHeader),
		errors.Is(err, core.ErrInvalidAuthHeader):
		return http.StatusUnauthorized

	case errors.Is(err, core.ErrUserNameRequired),
		errors.Is(err, core.ErrPasswordRequired),
		errors.Is(err, core.ErrPasswordTooShort),
		errors.Is(err, core.ErrPasswordTooLong),
		errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrInvalidIdentifier):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrUserExists),
		errors.Is(err, core.ErrIdentifierAssigned):
		return http.StatusConflict

	case errors.Is(err, core.ErrRegistrationOff):
		return http.StatusForbidden

	case errors.Is(err, core.ErrUserNotFound):
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
