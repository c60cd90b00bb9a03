package core

import (
	"context"
	"fmt"
)

// BeginAuthentication validates rawIdentifier and asks rp for the redirect to
// the provider. Failures are recorded in errs and answered with ShowLogOn;
// nothing escapes as an error.
func BeginAuthentication(ctx context.Context, rp RelyingParty, rawIdentifier, returnURL string, claims ClaimsRequest, errs *ErrorBag) Outcome {
	identifier, err := ParseIdentifier(rawIdentifier)
	if err != nil {
		errs.Record(ErrorKeyOpenIDIdentifier, msgInvalidIdentifier)
		return ShowLogOn{ReturnURL: returnURL}
	}

	req, err := rp.CreateRequest(ctx, AuthRequestInput{
		Identifier: identifier,
		ReturnURL:  returnURL,
		Claims:     claims,
	})
	if err == nil && (req == nil || req.RedirectURL == "") {
		err = fmt.Errorf("no redirect built for %s", identifier)
	}
	if err != nil {
		errs.Record(ErrorKeyProtocolException, fmt.Sprintf(msgUnableToAuthFormat, err.Error()))
		return ShowLogOn{ReturnURL: returnURL}
	}

	return ExternalRedirect{URL: req.RedirectURL, State: req.State}
}
