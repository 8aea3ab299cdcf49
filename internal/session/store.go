package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"campusvote/internal/domain"
	"campusvote/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	yaml "gopkg.in/yaml.v3"
)

// Session is the live credential plus the user snapshot it was issued for.
type Session struct {
	AccessToken  string      `yaml:"access_token"`
	RefreshToken string      `yaml:"refresh_token,omitempty"`
	User         domain.User `yaml:"user"`
}

// Store owns the single client session. It persists the credential and user
// snapshot to a yaml file so they survive restarts; the resource cache
// deliberately does not. Exactly one session is live per store.
type Store struct {
	mu   sync.RWMutex
	sess *Session
	path string
	log  *logger.Logger
	now  func() time.Time
}

// NewStore creates a store backed by the given file and loads any persisted
// session from it. A missing or unreadable file just means starting
// unauthenticated.
func NewStore(path string, log *logger.Logger) *Store {
	s := &Store{
		path: path,
		log:  log,
		now:  time.Now,
	}
	if sess, err := load(path); err != nil {
		log.WithError(err).Debug("No persisted session loaded")
	} else {
		s.sess = sess
		log.WithField("student_id", sess.User.StudentID).Debug("Session restored from disk")
	}
	return s
}

// Current returns the live session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return Session{}, false
	}
	return *s.sess, true
}

// Establish transitions the store to Authenticated and persists the session.
func (s *Store) Establish(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = &sess

	if err := save(s.path, &sess); err != nil {
		s.log.WithError(err).Warn("Failed to persist session, continuing in-memory only")
		return err
	}
	s.log.WithField("student_id", sess.User.StudentID).Debug("Session established")
	return nil
}

// Clear transitions the store to Unauthenticated and removes the persisted
// credential. Clearing an already-empty store is a no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return
	}
	s.sess = nil
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).Warn("Failed to remove persisted session")
	}
	s.log.Debug("Session cleared")
}

// IsAuthenticated reports whether a usable credential is present. A JWT whose
// exp claim has already passed counts as absent; opaque tokens are accepted
// as-is since the backend is the one that actually rejects them.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil || s.sess.AccessToken == "" {
		return false
	}
	exp, ok := tokenExpiry(s.sess.AccessToken)
	if !ok {
		return true
	}
	return s.now().Before(exp)
}

// AccessToken returns the current access token, empty when unauthenticated.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.AccessToken
}

// tokenExpiry extracts the exp claim without verifying the signature.
// Verification is the backend's job; this is only a local fast-path.
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func load(path string) (*Session, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := yaml.Unmarshal(buf, &sess); err != nil {
		return nil, fmt.Errorf("session file is invalid: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, fmt.Errorf("session file has no access token")
	}
	return &sess, nil
}

func save(path string, sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	buf, err := yaml.Marshal(sess)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o600)
}
