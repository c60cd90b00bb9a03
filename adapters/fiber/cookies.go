package fiber

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
)

const (
	sessionCookie      = "linkid_session"
	flashCookie        = "linkid_flash"
	relyingPartyCookie = "linkid_rp_state"
	registrationCookie = "linkid_registration"

	relyingPartyMaxAge = 10 * 60 // seconds
)

// expiredCookie is the Expires value that makes browsers drop a cookie.
var expiredCookie = time.Unix(0, 0).UTC()

// setCookie writes an HttpOnly cookie scoped to the base path. A maxAge of
// zero makes it a browser session cookie.
func (a *Adapter) setCookie(c fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:        name,
		Value:       value,
		Path:        a.cookiePath(),
		MaxAge:      maxAge,
		SessionOnly: maxAge == 0,
		HTTPOnly:    true,
		Secure:      a.cookieSecure,
		SameSite:    fiber.CookieSameSiteLaxMode,
	})
}

func (a *Adapter) clearCookie(c fiber.Ctx, name string) {
	path := a.cookiePath()
	if name == sessionCookie {
		path = "/"
	}
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  expiredCookie,
		HTTPOnly: true,
		Secure:   a.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// setSessionCookie stores the session token. Non-persistent sessions end
// with the browser.
func (a *Adapter) setSessionCookie(c fiber.Ctx, token string, session *core.Session) {
	cookie := &fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   a.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if session != nil && session.Persistent {
		cookie.Expires = session.ExpiresAt
	} else {
		cookie.SessionOnly = true
	}
	c.Cookie(cookie)
}

func (a *Adapter) cookiePath() string {
	if a.basePath == "" {
		return "/"
	}
	return a.basePath
}

func (a *Adapter) saveDraft(c fiber.Ctx, draft map[string]string) {
	id, err := crypto.NewCorrelationID()
	if err == nil {
		err = a.flash.Save(c.Context(), id, draft)
	}
	if err != nil {
		log.Errorw("registration draft save failed", "error", err)
		return
	}
	a.setCookie(c, registrationCookie, id, a.flashTTL)
}

func (a *Adapter) takeDraft(c fiber.Ctx) (map[string]string, bool) {
	id := c.Cookies(registrationCookie)
	if id == "" {
		return nil, false
	}
	draft, err := a.flash.Take(c.Context(), id)
	if err != nil {
		if !errors.Is(err, core.ErrFlashNotFound) {
			log.Warnw("registration draft take failed", "error", err)
		}
		return nil, false
	}
	if draft[draftClaimedIdentifier] == "" {
		return nil, false
	}
	return draft, true
}

// peekDraft reads the pending draft and stores it again under a new id.
func (a *Adapter) peekDraft(c fiber.Ctx) (map[string]string, bool) {
	draft, ok := a.takeDraft(c)
	if ok {
		a.saveDraft(c, draft)
	}
	return draft, ok
}

// requestSession is the session of one HTTP request as seen by the logon flow
type requestSession struct {
	c       fiber.Ctx
	adapter *Adapter
}

var _ core.SessionState = (*requestSession)(nil)

func (s *requestSession) CurrentUser(ctx context.Context) (*core.User, error) {
	token := extractToken(s.c)
	if token == "" {
		return nil, nil
	}

	data, err := s.adapter.accounts.GetSession(ctx, token)
	switch {
	case err == nil:
		return data.User, nil
	case errors.Is(err, core.ErrInvalidToken),
		errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrSessionExpired):
		// a stale cookie means nobody is signed in
		return nil, nil
	default:
		return nil, err
	}
}

func (s *requestSession) SignIn(ctx context.Context, user *core.User, persistent bool) error {
	result, err := s.adapter.accounts.StartSession(ctx, user, persistent, s.c.IP(), s.c.Get(fiber.HeaderUserAgent))
	if err != nil {
		return err
	}
	s.adapter.setSessionCookie(s.c, result.Token, result.Session)
	return nil
}

// safeReturnURL keeps local paths only, so a crafted returnUrl cannot bounce
// the browser to another site after logon.
func safeReturnURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return ""
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return raw
}
