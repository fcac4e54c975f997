package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionKey is the fixed name the signed-in user is stored under.
const SessionKey = "lc_user"

var ErrNoSession = errors.New("no signed-in user")

type SessionStore interface {
	Load() (Session, error)
	Save(s Session) error
	Clear() error
}

// FileSessionStore keeps the session as <dir>/lc_user.json.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(dir string) *FileSessionStore {
	return &FileSessionStore{path: filepath.Join(dir, SessionKey+".json")}
}

func (s *FileSessionStore) Path() string {
	return s.path
}

func (s *FileSessionStore) Load() (Session, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, err
	}

	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return Session{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	if sess.Token == "" {
		return Session{}, ErrNoSession
	}

	return sess, nil
}

func (s *FileSessionStore) Save(sess Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	// the file holds a bearer token
	return os.WriteFile(s.path, b, 0o600)
}

func (s *FileSessionStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type MemorySessionStore struct {
	mu   sync.Mutex
	sess *Session
}

func (m *MemorySessionStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return Session{}, ErrNoSession
	}
	return *m.sess, nil
}

func (m *MemorySessionStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = &s
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = nil
	return nil
}

// Auth ties the API client to a session store: signing in persists the
// session and arms the bearer token, signing out forgets both.
type Auth struct {
	api   *API
	store SessionStore
}

func NewAuth(api *API, store SessionStore) *Auth {
	return &Auth{api: api, store: store}
}

// Restore picks up a previously saved session, if any.
func (a *Auth) Restore() (Session, bool) {
	sess, err := a.store.Load()
	if err != nil {
		return Session{}, false
	}

	a.api.SetToken(sess.Token)
	return sess, true
}

func (a *Auth) Login(ctx context.Context, email, password string) (Session, error) {
	sess, err := a.api.Login(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return sess, a.remember(sess)
}

func (a *Auth) Register(ctx context.Context, name, email, password string) (Session, error) {
	sess, err := a.api.Register(ctx, name, email, password)
	if err != nil {
		return Session{}, err
	}
	return sess, a.remember(sess)
}

func (a *Auth) Logout() error {
	a.api.SetToken("")
	return a.store.Clear()
}

func (a *Auth) remember(sess Session) error {
	a.api.SetToken(sess.Token)
	return a.store.Save(sess)
}

// RequireSession is the route guard: screens behind it only render with a
// signed-in user. Anything else sends the caller to the login screen.
func (a *Auth) RequireSession() (Session, error) {
	sess, ok := a.Restore()
	if !ok {
		return Session{}, ErrNoSession
	}
	return sess, nil
}
