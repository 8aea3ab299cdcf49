package service

import (
	"context"

	"campusvote/internal/domain"
	"campusvote/internal/session"
	"campusvote/internal/transport"
	"campusvote/pkg/cache"
	"campusvote/pkg/logger"
)

// AuthService drives the session lifecycle: registration and login establish
// the single live session, logout tears it down. All cached data is scoped to
// the session, so ending it purges the cache in full.
type AuthService struct {
	api      *transport.Client
	sessions *session.Store
	cache    *cache.Cache
	log      *logger.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(api *transport.Client, sessions *session.Store, c *cache.Cache, log *logger.Logger) *AuthService {
	return &AuthService{
		api:      api,
		sessions: sessions,
		cache:    c,
		log:      log,
	}
}

// Register creates an account and establishes the session from the returned
// tokens and user snapshot.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	var resp domain.AuthResponse
	if err := s.api.Post(ctx, "/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return s.establish(&resp)
}

// Login authenticates and establishes the session.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.User, error) {
	var resp domain.AuthResponse
	if err := s.api.Post(ctx, "/auth/login/", req, &resp); err != nil {
		return nil, err
	}
	return s.establish(&resp)
}

func (s *AuthService) establish(resp *domain.AuthResponse) (*domain.User, error) {
	sess := session.Session{
		AccessToken:  resp.Tokens.Access,
		RefreshToken: resp.Tokens.Refresh,
		User:         resp.User,
	}
	if err := s.sessions.Establish(sess); err != nil {
		// The credential is valid either way; persistence failure only costs
		// the restart survival.
		s.log.WithError(err).Warn("Session persisted in memory only")
	}
	s.log.WithField("student_id", resp.User.StudentID).Info("Authenticated")
	return &resp.User, nil
}

// Logout ends the session and purges every cache entry, since all cached
// data was scoped to the session that just ended.
func (s *AuthService) Logout() {
	s.sessions.Clear()
	s.cache.Clear()
	s.log.Info("Logged out")
}

// Profile fetches the authoritative user snapshot.
func (s *AuthService) Profile(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.api.Get(ctx, "/auth/profile/", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the locally persisted user snapshot, if a session is live.
func (s *AuthService) CurrentUser() (domain.User, bool) {
	sess, ok := s.sessions.Current()
	if !ok {
		return domain.User{}, false
	}
	return sess.User, true
}

// IsAuthenticated reports whether a usable session credential is present.
func (s *AuthService) IsAuthenticated() bool {
	return s.sessions.IsAuthenticated()
}
