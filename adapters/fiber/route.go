package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/lborres/linkid"
)

type Adapter struct {
	app *fiber.App

	accounts     linkid.AccountService
	logOn        linkid.LogOnHandler
	flash        linkid.FlashStore
	basePath     string
	registerPath string
	flashTTL     int // seconds
	cookieSecure bool
}

var _ linkid.HTTPAdapter = (*Adapter)(nil)

func New(app *fiber.App) *Adapter {
	return &Adapter{app: app}
}

func (a *Adapter) RegisterRoutes(l *linkid.LinkID) error {
	a.accounts = l.Accounts
	a.logOn = l.LogOn
	a.flash = l.Flash
	a.basePath = l.BasePath
	a.registerPath = l.RegisterPath
	a.flashTTL = int(l.FlashTTL.Seconds())
	a.cookieSecure = l.CookieSecure

	api := a.app.Group(l.BasePath)

	// Provider logon
	api.Get("/logon", a.logon)
	api.Post("/logon", a.beginLogon)
	api.Get("/register", a.registerForm)
	api.Post("/register", a.register)

	// Password accounts
	api.Post("/sign-in", a.signin)

	// Protected routes
	api.Post("/sign-out", a.requireAuth, a.signout)
	api.Get("/session", a.requireAuth, a.session)

	return nil
}
