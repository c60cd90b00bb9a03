package core

// ClaimedIdentifier is the identity a provider asserts belongs to the
// authenticating user. It is the key associations are stored under.
type ClaimedIdentifier string

func (c ClaimedIdentifier) String() string { return string(c) }

// Assertion is the provider's verdict on one authentication round trip.
//
// The set of variants is closed: Authenticated, Canceled and Failed. Code
// switching over an Assertion must handle all three.
type Assertion interface {
	isAssertion()
}

// Authenticated is a successful assertion.
type Authenticated struct {
	ClaimedIdentifier  ClaimedIdentifier
	FriendlyIdentifier string

	// Attributes holds profile claims the provider released, keyed by the
	// claim names of ClaimsRequest (email, nickname, fullname, ...).
	Attributes map[string]string
}

// Canceled means the user backed out at the provider.
type Canceled struct{}

// Failed means the provider, or verification of its response, failed.
type Failed struct {
	Reason string
}

func (Authenticated) isAssertion() {}
func (Canceled) isAssertion()      {}
func (Failed) isAssertion()        {}
