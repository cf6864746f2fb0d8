package internal

import (
	"encoding/json"
	"strings"
)

// Auth is the session gate. The logged-in user is persisted under a single
// un-namespaced key; no user means no session, and the conversation core is
// never constructed without one. Credentials are not verified, matching the
// original sign-in flow, so Login is really account selection.
type Auth struct {
	store Store
}

// NewAuth creates the session gate over store.
func NewAuth(store Store) *Auth {
	return &Auth{store: store}
}

// CurrentUser returns the logged-in user, or nil when no session exists.
func (a *Auth) CurrentUser() (*User, error) {
	data, ok, err := a.store.Read(userKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, &ParseError{Key: userKey, Err: err}
	}

	return &user, nil
}

// CurrentUserID returns the logged-in user's identifier, or "" when no
// session exists.
func (a *Auth) CurrentUserID() (string, error) {
	user, err := a.CurrentUser()
	if err != nil || user == nil {
		return "", err
	}
	return user.ID, nil
}

// Login records a session for the given identity. The name defaults to the
// local part of the email, matching the original sign-in flow.
func (a *Auth) Login(email, name string) (*User, error) {
	if name == "" {
		name = email
		if i := strings.IndexByte(email, '@'); i > 0 {
			name = email[:i]
		}
	}

	user := &User{
		ID:    NewUserID(),
		Name:  name,
		Email: email,
	}

	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := a.store.Write(userKey, data); err != nil {
		return nil, err
	}

	return user, nil
}

// Logout ends the session. Conversation state stays in the store, keyed by
// the user id, and becomes reachable again on the next login with that id.
func (a *Auth) Logout() error {
	return a.store.Remove(userKey)
}
