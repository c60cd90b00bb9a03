package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lborres/linkid/core"
)

// FakeSessionStorage is a test-only fake implementing core.SessionStorage.
// It stores sessions in a map and exposes error fields for behavior injection.
type FakeSessionStorage struct {
	sessions  map[string]*core.Session
	mu        sync.RWMutex
	createErr error
	getErr    error
	deleteErr error
}

func NewFakeSessionStorage() *FakeSessionStorage {
	return &FakeSessionStorage{
		sessions: make(map[string]*core.Session),
	}
}

func (f *FakeSessionStorage) CreateSession(_ context.Context, s *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.sessions[s.TokenHash] = s
	return nil
}

func (f *FakeSessionStorage) GetSessionByHash(_ context.Context, tokenHash string) (*core.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[tokenHash]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return s, nil
}

func (f *FakeSessionStorage) GetSessionByID(_ context.Context, id string) (*core.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, core.ErrSessionNotFound
}

func (f *FakeSessionStorage) GetUserSessions(_ context.Context, userID string) ([]*core.Session, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var sessions []*core.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

func (f *FakeSessionStorage) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.sessions[tokenHash]; !ok {
		return core.ErrSessionNotFound
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *FakeSessionStorage) DeleteSessionByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k, s := range f.sessions {
		if s.ID == id {
			delete(f.sessions, k)
			return nil
		}
	}
	return core.ErrSessionNotFound
}

func (f *FakeSessionStorage) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for k, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, k)
			count++
		}
	}
	return count, nil
}

func (f *FakeSessionStorage) DeleteExpiredSessions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	count := 0
	for k, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, k)
			count++
		}
	}
	return count, nil
}

func (f *FakeSessionStorage) SessionCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.sessions)
}

// FakeStorageProvider is a test-only fake implementing core.AuthStorage.
// Association writes are serialized by the shared mutex, which gives
// LinkIdentifier the same compare-and-insert semantics as the database.
type FakeStorageProvider struct {
	*FakeSessionStorage
	users        map[string]*core.User
	credentials  map[string]*core.Credential
	associations map[core.ClaimedIdentifier]*core.Association

	lookupErr error
	linkErr   error
	unlinkErr error
	linkCalls int
}

var _ core.AuthStorage = (*FakeStorageProvider)(nil)

func NewFakeStorageProvider() *FakeStorageProvider {
	return &FakeStorageProvider{
		FakeSessionStorage: NewFakeSessionStorage(),
		users:              make(map[string]*core.User),
		credentials:        make(map[string]*core.Credential),
		associations:       make(map[core.ClaimedIdentifier]*core.Association),
	}
}

// UserStorage implementation
func (f *FakeStorageProvider) CreateUser(_ context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[u.ID]; exists {
		return core.ErrUserExists
	}
	for _, existing := range f.users {
		if existing.UserName == u.UserName {
			return core.ErrUserExists
		}
	}
	f.users[u.ID] = u
	return nil
}

func (f *FakeStorageProvider) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeStorageProvider) GetUserByUserName(_ context.Context, userName string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, u := range f.users {
		if u.UserName == userName {
			return u, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeStorageProvider) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[id]; !exists {
		return core.ErrUserNotFound
	}
	delete(f.users, id)
	delete(f.credentials, id)
	for key, a := range f.associations {
		if a.UserID == id {
			delete(f.associations, key)
		}
	}
	return nil
}

// CredentialStorage implementation
func (f *FakeStorageProvider) CreateCredential(_ context.Context, c *core.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials[c.UserID] = c
	return nil
}

func (f *FakeStorageProvider) GetCredential(_ context.Context, userID string) (*core.Credential, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if c, ok := f.credentials[userID]; ok {
		return c, nil
	}
	return nil, core.ErrCredentialNotFound
}

// AssociationStorage implementation
func (f *FakeStorageProvider) LinkIdentifier(_ context.Context, a *core.Association) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	if f.linkErr != nil {
		return "", f.linkErr
	}
	if existing, ok := f.associations[a.ClaimedIdentifier]; ok {
		return existing.UserID, nil
	}
	stored := *a
	f.associations[a.ClaimedIdentifier] = &stored
	return a.UserID, nil
}

func (f *FakeStorageProvider) UnlinkIdentifier(_ context.Context, id core.ClaimedIdentifier, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unlinkErr != nil {
		return f.unlinkErr
	}
	a, ok := f.associations[id]
	if !ok || a.UserID != userID {
		return core.ErrAssociationNotFound
	}
	delete(f.associations, id)
	return nil
}

func (f *FakeStorageProvider) GetUserByClaimedIdentifier(_ context.Context, id core.ClaimedIdentifier) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	a, ok := f.associations[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	u, ok := f.users[a.UserID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return u, nil
}

func (f *FakeStorageProvider) GetUserAssociations(_ context.Context, userID string) ([]*core.Association, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*core.Association
	for _, a := range f.associations {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Test helper methods
func (f *FakeStorageProvider) AddUser(id, userName string) *core.User {
	u := &core.User{ID: id, UserName: userName, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.mu.Lock()
	f.users[id] = u
	f.mu.Unlock()
	return u
}

func (f *FakeStorageProvider) Associate(id core.ClaimedIdentifier, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.associations[id] = &core.Association{ID: "assoc-" + string(id), UserID: userID, ClaimedIdentifier: id}
}

func (f *FakeStorageProvider) AssociationCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.associations)
}

func (f *FakeStorageProvider) OwnerOf(id core.ClaimedIdentifier) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if a, ok := f.associations[id]; ok {
		return a.UserID
	}
	return ""
}

func (f *FakeStorageProvider) LinkCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.linkCalls
}

// FakeCache is a test-only fake implementing core.Cache.
type FakeCache struct {
	cache  map[string]*core.Session
	mu     sync.RWMutex
	getErr error
	setErr error
	delErr error
	hits   int
	misses int
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		cache: make(map[string]*core.Session),
	}
}

func (f *FakeCache) Get(tokenHash string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.cache[tokenHash]
	if !ok {
		f.misses++
		return nil, core.ErrCacheNotFound
	}
	f.hits++
	return s, nil
}

func (f *FakeCache) Set(tokenHash string, session *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.cache[tokenHash] = session
	return nil
}

func (f *FakeCache) Delete(tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	delete(f.cache, tokenHash)
	return nil
}

func (f *FakeCache) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]*core.Session)
	return nil
}

func (f *FakeCache) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func (f *FakeCache) Hits() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.hits
}

// FakeRelyingParty is a test-only fake implementing core.RelyingParty.
type FakeRelyingParty struct {
	mu        sync.Mutex
	request   *core.AuthRequest
	createErr error
	response  *core.ProviderResponse
	requests  []core.AuthRequestInput
}

func NewFakeRelyingParty() *FakeRelyingParty {
	return &FakeRelyingParty{
		request: &core.AuthRequest{RedirectURL: "https://op.example.com/authorize", State: "state-token"},
	}
}

func (f *FakeRelyingParty) CreateRequest(_ context.Context, in core.AuthRequestInput) (*core.AuthRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.request, nil
}

func (f *FakeRelyingParty) Response(_ context.Context, _ core.Callback) (*core.ProviderResponse, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.response == nil {
		return nil, false
	}
	return f.response, true
}

// FailRequests makes CreateRequest return err.
func (f *FakeRelyingParty) FailRequests(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

// Respond makes every callback carry a.
func (f *FakeRelyingParty) Respond(a core.Assertion, returnURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.response = &core.ProviderResponse{Assertion: a, ReturnURL: returnURL}
}

// ClearResponse makes callbacks carry no provider response again.
func (f *FakeRelyingParty) ClearResponse() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.response = nil
}

func (f *FakeRelyingParty) Requests() []core.AuthRequestInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.AuthRequestInput(nil), f.requests...)
}

// FakeSessionState is a test-only fake implementing core.SessionState.
type FakeSessionState struct {
	mu         sync.Mutex
	user       *core.User
	currentErr error
	signInErr  error
	signIns    []*core.User
	persistent []bool
}

func NewFakeSessionState(user *core.User) *FakeSessionState {
	return &FakeSessionState{user: user}
}

func (f *FakeSessionState) CurrentUser(_ context.Context) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.user, nil
}

func (f *FakeSessionState) SignIn(_ context.Context, user *core.User, persistent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.signInErr != nil {
		return f.signInErr
	}
	f.user = user
	f.signIns = append(f.signIns, user)
	f.persistent = append(f.persistent, persistent)
	return nil
}

func (f *FakeSessionState) SignIns() []*core.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*core.User(nil), f.signIns...)
}

var errFakeStorageDown = errors.New("storage unavailable")
