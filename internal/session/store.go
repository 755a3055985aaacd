package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/12305/devTinder-Frontend/internal/api"
	"github.com/12305/devTinder-Frontend/internal/models"
	"github.com/12305/devTinder-Frontend/pkg/logger"
)

// Claims mirrors the backend's token claims.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Store owns the authenticated identity. Everything else asks it "who am I";
// nothing but the store logs in, restores or tears down a session.
type Store struct {
	api   *api.Client
	creds CredentialStore
	log   zerolog.Logger

	mu   sync.RWMutex
	user *models.User
}

func NewStore(client *api.Client, creds CredentialStore) *Store {
	return &Store{
		api:   client,
		creds: creds,
		log:   logger.With("session"),
	}
}

// Register creates an account and starts a session with it.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*models.User, error) {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.install(resp)
}

// Login authenticates and starts a session.
func (s *Store) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.api.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.install(resp)
}

func (s *Store) install(resp *api.AuthResponse) (*models.User, error) {
	s.api.SetToken(resp.Token)

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	if err := s.creds.Save(Credentials{Token: resp.Token, User: &user}); err != nil {
		// The session still works for this run; only persistence failed.
		s.log.Warn().Err(err).Msg("failed to persist credentials")
	}
	return &user, nil
}

// Restore rebuilds the session from persisted credentials at startup. A
// missing, malformed or expired credential resolves to logged-out (false);
// it is never a fatal error.
func (s *Store) Restore(ctx context.Context) bool {
	creds, err := s.creds.Load()
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read stored credentials")
		return false
	}
	if creds == nil {
		return false
	}

	claims, err := parseClaims(creds.Token)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored credential is not a usable token")
		_ = s.creds.Clear()
		return false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		s.log.Info().Msg("stored session expired")
		_ = s.creds.Clear()
		return false
	}

	user := creds.User
	if user == nil {
		// Older credential files held only the token; the id in the claims
		// is enough to operate, display fields fill in on next profile fetch.
		user = &models.User{ID: claims.UserID}
	}

	s.api.SetToken(creds.Token)
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.log.Info().Str("userId", user.ID).Msg("session restored")
	return true
}

// parseClaims decodes the token without verifying its signature; the client
// holds no signing secret. Verification is the server's job on every request.
func parseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// Logout tears the session down: best-effort offline announce, credential
// wipe, identity cleared.
func (s *Store) Logout(ctx context.Context) {
	if s.Authenticated() {
		if err := s.api.SetOnlineStatus(ctx, false); err != nil {
			s.log.Debug().Err(err).Msg("offline announce on logout failed")
		}
	}

	s.api.SetToken("")
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.creds.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear stored credentials")
	}
}

// Current returns the authenticated user, or nil when logged out.
func (s *Store) Current() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

// Token returns the active session credential.
func (s *Store) Token() string {
	return s.api.Token()
}
