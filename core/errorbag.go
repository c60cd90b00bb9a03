package core

import "sync"

// Error keys recorded while handling a logon.
const (
	ErrorKeyOpenIDIdentifier   = "OpenIdIdentifier"
	ErrorKeyProtocolException  = "ProtocolException"
	ErrorKeyIdentifierAssigned = "IdentifierAssigned"
	ErrorKeyAccessDenied       = "AccessDenied"
	ErrorKeyInvalidProvider    = "InvalidProvider"
	ErrorKeyUnknownError       = "UnknownError"
)

// ErrorViewPrefix is prepended to each key when errors are exposed to views.
const ErrorViewPrefix = "error-"

const (
	msgInvalidIdentifier  = "Invalid Open ID identifier"
	msgUnableToAuthFormat = "Unable to authenticate: %s"
	MsgIdentifierAssigned = "ClaimedIdentifier has already been assigned to another account"
	msgAccessDenied       = "User does not exist on system"
	msgCanceledAtProvider = "Canceled at provider"
)

// ErrorBag collects keyed error messages for one logon round.
//
// Recording a key twice keeps one entry holding the latest message. The bag
// is handed from the request that records errors to the page that renders
// them through a FlashStore, then drained.
type ErrorBag struct {
	mu      sync.Mutex
	order   []string
	entries map[string]string
}

// NewErrorBag returns an empty bag, optionally seeded with entries taken
// from a FlashStore.
func NewErrorBag(seed map[string]string) *ErrorBag {
	b := &ErrorBag{entries: make(map[string]string, len(seed))}
	for key, message := range seed {
		b.Record(key, message)
	}
	return b
}

// Record stores message under key, replacing any earlier message.
func (b *ErrorBag) Record(key, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.entries == nil {
		b.entries = make(map[string]string)
	}
	if _, exists := b.entries[key]; !exists {
		b.order = append(b.order, key)
	}
	b.entries[key] = message
}

// Get returns the message recorded for key.
func (b *ErrorBag) Get(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	message, ok := b.entries[key]
	return message, ok
}

// Len returns the number of distinct keys recorded.
func (b *ErrorBag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Keys returns recorded keys in first-recorded order.
func (b *ErrorBag) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

// Drain returns all entries and empties the bag.
func (b *ErrorBag) Drain() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.entries
	if out == nil {
		out = map[string]string{}
	}
	b.entries = make(map[string]string)
	b.order = nil
	return out
}

// ViewData converts drained entries into the "error-<key>" form views consume.
func ViewData(entries map[string]string) map[string]string {
	view := make(map[string]string, len(entries))
	for key, message := range entries {
		view[ErrorViewPrefix+key] = message
	}
	return view
}
