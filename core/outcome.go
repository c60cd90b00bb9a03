package core

// Outcome is what the HTTP layer does at the end of a logon phase:
// ShowLogOn, Redirect, ExternalRedirect or Register.
type Outcome interface {
	isOutcome()
}

// Decision is what the reconciler asks for after a callback. It is an
// Outcome, or LinkAndSignIn which the logon service turns into one.
type Decision interface {
	isDecision()
}

// ShowLogOn renders the logon page. Recorded errors travel with it.
type ShowLogOn struct {
	ReturnURL string
}

// Redirect sends the browser to a local URL.
type Redirect struct {
	URL string
}

// ExternalRedirect sends the browser to the identity provider. State must be
// handed back to the relying party on the callback.
type ExternalRedirect struct {
	URL   string
	State string
}

// Register routes the visitor to registration, prefilled from the assertion.
type Register struct {
	Draft     RegistrationDraft
	ReturnURL string
}

// LinkAndSignIn associates the asserted identifier with User, signs User in
// with a non-persistent session, then redirects to ReturnURL (or "/").
type LinkAndSignIn struct {
	User        *User
	Association Association
	ReturnURL   string

	// NewAssociation is set when the identifier had no owner, so linking
	// inserts a row that must be undone if signing in fails.
	NewAssociation bool
}

func (ShowLogOn) isOutcome()        {}
func (Redirect) isOutcome()         {}
func (ExternalRedirect) isOutcome() {}
func (Register) isOutcome()         {}

func (ShowLogOn) isDecision()     {}
func (Redirect) isDecision()      {}
func (Register) isDecision()      {}
func (LinkAndSignIn) isDecision() {}

// DefaultReturnURL is used when no return URL was carried.
const DefaultReturnURL = "/"

// ReturnURLOrDefault returns returnURL, or "/" when it is empty.
func ReturnURLOrDefault(returnURL string) string {
	if returnURL == "" {
		return DefaultReturnURL
	}
	return returnURL
}
