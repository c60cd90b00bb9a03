package fiber

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/lborres/linkid/core"
	"github.com/lborres/linkid/pkg/crypto"
)

type logOnView struct {
	ReturnURL string            `json:"returnUrl"`
	Errors    map[string]string `json:"errors"`
}

// logon handles GET /logon. A pending provider response is reconciled,
// otherwise the logon view is rendered with any flashed errors.
func (a *Adapter) logon(c fiber.Ctx) error {
	returnURL := safeReturnURL(c.Query("returnUrl"))
	errs := core.NewErrorBag(nil)

	cb := core.Callback{
		Query: queryValues(c),
		State: c.Cookies(relyingPartyCookie),
	}
	if cb.State != "" {
		// state is good for one callback only
		a.clearCookie(c, relyingPartyCookie)
	}

	session := &requestSession{c: c, adapter: a}
	outcome := a.logOn.CompleteLogOn(c.Context(), cb, returnURL, session, errs)

	return a.respond(c, outcome, errs)
}

// beginLogon handles POST /logon.
func (a *Adapter) beginLogon(c fiber.Ctx) error {
	returnURL := safeReturnURL(c.FormValue("returnUrl"))
	errs := core.NewErrorBag(nil)

	outcome := a.logOn.BeginLogOn(c.Context(), c.FormValue("openIdIdentifier"), returnURL, errs)

	return a.respond(c, outcome, errs)
}

func (a *Adapter) respond(c fiber.Ctx, outcome core.Outcome, errs *core.ErrorBag) error {
	switch o := outcome.(type) {
	case core.ShowLogOn:
		if errs.Len() > 0 {
			return a.flashErrors(c, errs, o.ReturnURL)
		}
		return a.renderLogOn(c, o.ReturnURL)

	case core.Redirect:
		return c.Redirect().Status(http.StatusSeeOther).To(core.ReturnURLOrDefault(safeReturnURL(o.URL)))

	case core.ExternalRedirect:
		if o.State != "" {
			a.setCookie(c, relyingPartyCookie, o.State, relyingPartyMaxAge)
		}
		return c.Redirect().Status(http.StatusFound).To(o.URL)

	case core.Register:
		a.saveDraft(c, draftEntries(o.Draft))
		return c.Redirect().Status(http.StatusSeeOther).To(a.registerURL(o))

	default:
		panic(fmt.Sprintf("fiber: unhandled outcome %T", outcome))
	}
}

// flashErrors keeps the recorded errors for the next logon page and sends
// the browser there.
func (a *Adapter) flashErrors(c fiber.Ctx, errs *core.ErrorBag, returnURL string) error {
	entries := errs.Drain()

	id, err := crypto.NewCorrelationID()
	if err == nil {
		err = a.flash.Save(c.Context(), id, entries)
	}
	if err != nil {
		log.Errorw("flash save failed, rendering errors inline", "error", err)
		return c.Status(http.StatusOK).JSON(logOnView{ReturnURL: returnURL, Errors: core.ViewData(entries)})
	}

	a.setCookie(c, flashCookie, id, a.flashTTL)
	return c.Redirect().Status(http.StatusSeeOther).To(a.logOnURL(returnURL))
}

func (a *Adapter) renderLogOn(c fiber.Ctx, returnURL string) error {
	var entries map[string]string
	if id := c.Cookies(flashCookie); id != "" {
		taken, err := a.flash.Take(c.Context(), id)
		switch {
		case err == nil:
			entries = taken
		case !errors.Is(err, core.ErrFlashNotFound):
			log.Warnw("flash take failed", "error", err)
		}
		a.clearCookie(c, flashCookie)
	}

	errs := core.NewErrorBag(entries)
	return c.Status(http.StatusOK).JSON(logOnView{
		ReturnURL: returnURL,
		Errors:    core.ViewData(errs.Drain()),
	})
}

func (a *Adapter) logOnURL(returnURL string) string {
	target := a.basePath + "/logon"
	if returnURL != "" {
		target += "?" + url.Values{"returnUrl": {returnURL}}.Encode()
	}
	return target
}

func (a *Adapter) registerURL(o core.Register) string {
	q := url.Values{
		"claimedidentifier":  {o.Draft.ClaimedIdentifier.String()},
		"friendlyidentifier": {o.Draft.FriendlyIdentifier},
	}
	if o.ReturnURL != "" {
		q.Set("returnUrl", o.ReturnURL)
	}
	return a.registerPath + "?" + q.Encode()
}

func queryValues(c fiber.Ctx) url.Values {
	values := url.Values{}
	for key, value := range c.Queries() {
		values.Set(key, value)
	}
	return values
}
