// Package session implements the in-memory session store and password
// authentication component described in spec.md §4.2: a single shared
// login password, sliding-expiry cookie sessions, and per-session active
// connection binding.
package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"sync"
	"time"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
)

// Expiry is the sliding session lifetime: any authenticated request resets
// the clock to now + Expiry.
const Expiry = 4 * time.Hour

// Session is the live state of one logged-in browser.
type Session struct {
	ID           string
	ConnectionID *uint
	ExpiresAt    time.Time
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Store is the session table: a single mutex-guarded map, matching
// spec.md §5's "protected by a single lock; operations are short" model.
type Store struct {
	password []byte

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a Store comparing logins against password.
func New(password string) *Store {
	return &Store{
		password: []byte(password),
		sessions: make(map[string]*Session),
	}
}

// Login verifies password via constant-time comparison and, on success,
// creates a new session with a 4-hour expiry.
func (s *Store) Login(password string) (*Session, error) {
	if subtle.ConstantTimeCompare(s.password, []byte(password)) != 1 {
		// A small fixed delay on every failed attempt slows down
		// password guessing; successful logins are not delayed.
		time.Sleep(150 * time.Millisecond)
		return nil, apperr.New(apperr.Unauthorized, "invalid password")
	}

	id, err := newSessionID()
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "generating session id", err)
	}

	sess := &Session{ID: id, ExpiresAt: time.Now().Add(Expiry)}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess, nil
}

// Authenticate looks up id, rejecting missing or expired sessions, and
// refreshes the sliding expiry on success.
func (s *Store) Authenticate(id string) (*Session, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, apperr.New(apperr.Unauthorized, "no active session")
	}
	if sess.expired(now) {
		delete(s.sessions, id)
		return nil, apperr.New(apperr.Unauthorized, "session expired")
	}

	sess.ExpiresAt = now.Add(Expiry)

	copySess := *sess
	return &copySess, nil
}

// BindConnection marks connectionID as the active connection for session
// id, replacing any prior binding. The caller is responsible for verifying
// the connection exists before calling this.
func (s *Store) BindConnection(id string, connectionID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return apperr.New(apperr.Unauthorized, "no active session")
	}

	sess.ConnectionID = &connectionID
	return nil
}

// Logout removes session id from the store.
func (s *Store) Logout(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
