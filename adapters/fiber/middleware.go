package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/lborres/linkid/core"
)

const (
	localUser        = "user"
	localSessionData = "sessionData"
)

// requireAuth validates the session token and stores user/session data in
// the context for downstream handlers.
func (a *Adapter) requireAuth(c fiber.Ctx) error {
	token := extractToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": core.ErrMissingAuthHeader.Error(),
		})
	}

	sessionData, err := a.accounts.GetSession(c.Context(), token)
	if err != nil {
		return handleAuthError(c, err)
	}

	c.Locals(localUser, sessionData.User)
	c.Locals(localSessionData, sessionData)

	return c.Next()
}
