package core

import (
	"fmt"
	"strings"
)

// ReconcileInput is everything the reconciler looks at after a callback.
type ReconcileInput struct {
	// Assertion is nil when no provider response is pending.
	Assertion Assertion

	// Owner is the user already associated with the asserted identifier.
	Owner *User

	// SessionUser is the user signed in on the requesting session.
	SessionUser *User

	ReturnURL           string
	RegistrationAllowed bool
}

// Reconcile decides what to do with a provider assertion. It performs no
// side effects besides recording errors in errs.
func Reconcile(in ReconcileInput, errs *ErrorBag) Decision {
	if in.Assertion == nil {
		return ShowLogOn{ReturnURL: in.ReturnURL}
	}

	switch a := in.Assertion.(type) {
	case Authenticated:
		return reconcileAuthenticated(a, in, errs)
	case Canceled:
		errs.Record(ErrorKeyInvalidProvider, msgCanceledAtProvider)
		return ShowLogOn{ReturnURL: in.ReturnURL}
	case Failed:
		errs.Record(ErrorKeyUnknownError, a.Reason)
		return ShowLogOn{ReturnURL: in.ReturnURL}
	default:
		panic(fmt.Sprintf("core: unhandled assertion %T", in.Assertion))
	}
}

// pairing classifies the (owner, session user) pair. The order of the
// constants is the order the rows are evaluated in.
type pairing int

const (
	pairSelf     pairing = iota // both present, same user
	pairConflict                // both present, different users
	pairNeither                 // both absent
	pairOne                     // exactly one present
)

func classify(owner, sessionUser *User) pairing {
	switch {
	case owner != nil && sessionUser != nil && owner.ID == sessionUser.ID:
		return pairSelf
	case owner != nil && sessionUser != nil:
		return pairConflict
	case owner == nil && sessionUser == nil:
		return pairNeither
	default:
		return pairOne
	}
}

func reconcileAuthenticated(a Authenticated, in ReconcileInput, errs *ErrorBag) Decision {
	switch classify(in.Owner, in.SessionUser) {
	case pairSelf:
		return Redirect{URL: ReturnURLOrDefault(in.ReturnURL)}

	case pairConflict:
		errs.Record(ErrorKeyIdentifierAssigned, MsgIdentifierAssigned)
		return ShowLogOn{ReturnURL: in.ReturnURL}

	case pairNeither:
		if !in.RegistrationAllowed {
			errs.Record(ErrorKeyAccessDenied, msgAccessDenied)
			return ShowLogOn{ReturnURL: in.ReturnURL}
		}
		return Register{Draft: NewRegistrationDraft(a), ReturnURL: in.ReturnURL}

	default:
		user := in.SessionUser
		if user == nil {
			user = in.Owner
		}
		return LinkAndSignIn{
			User: user,
			Association: Association{
				UserID:             user.ID,
				ClaimedIdentifier:  a.ClaimedIdentifier,
				FriendlyIdentifier: a.FriendlyIdentifier,
			},
			ReturnURL:      in.ReturnURL,
			NewAssociation: in.Owner == nil,
		}
	}
}

// NewRegistrationDraft prefills a registration form from an assertion.
func NewRegistrationDraft(a Authenticated) RegistrationDraft {
	draft := RegistrationDraft{
		ClaimedIdentifier:  a.ClaimedIdentifier,
		FriendlyIdentifier: a.FriendlyIdentifier,
	}
	if len(a.Attributes) > 0 {
		draft.Attributes = make(map[string]string, len(a.Attributes))
		for k, v := range a.Attributes {
			draft.Attributes[k] = v
		}
	}

	draft.Email = a.Attributes[ClaimEmail]
	draft.UserName = a.Attributes[ClaimNickname]
	if draft.UserName == "" && draft.Email != "" {
		if local, ok := emailLocalPart(draft.Email); ok {
			draft.UserName = local
		}
	}
	return draft
}

func emailLocalPart(email string) (string, bool) {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	return email[:at], true
}
