// Package api exposes the portal's session operations and a generic
// catalog-driven call on top of the request pipeline.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/internal/pipeline"
	"github.com/samvad-hq/library-client/pkg/endpoints"
)

// ErrMissingTokens is returned when a login succeeds without a token pair.
var ErrMissingTokens = errors.New("login response carried no token pair")

// SessionStore is the write side of the credential store.
type SessionStore interface {
	SetTokens(ctx context.Context, pair domain.TokenPair) error
	SetUser(ctx context.Context, user *domain.User) error
	User(ctx context.Context) (*domain.User, error)
	Clear(ctx context.Context) error
}

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Session is what a successful login returns.
type Session struct {
	domain.TokenPair
	User *domain.User `json:"user"`
}

// Options holds optional collaborators.
type Options struct {
	Catalog *endpoints.Catalog
	Log     logger.Logger
}

// Service runs API operations through an Issuer.
type Service struct {
	issuer  pipeline.Issuer
	store   SessionStore
	catalog *endpoints.Catalog
	log     logger.Logger
}

// NewService builds a Service; a nil catalog uses the built-in one.
func NewService(issuer pipeline.Issuer, store SessionStore, opts Options) *Service {
	s := &Service{
		issuer:  issuer,
		store:   store,
		catalog: opts.Catalog,
		log:     logger.Ensure(opts.Log),
	}
	if s.catalog == nil {
		s.catalog = endpoints.DefaultCatalog()
	}
	return s
}

// Catalog returns the endpoint catalog in use.
func (s *Service) Catalog() *endpoints.Catalog { return s.catalog }

// Login authenticates and persists the token pair and profile.
func (s *Service) Login(ctx context.Context, creds Credentials) (*Session, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		return nil, errors.New("username and password are required")
	}

	session, err := call[Session](ctx, s, endpoints.UsersLogin, nil, nil, creds)
	if err != nil {
		return nil, err
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		return nil, ErrMissingTokens
	}

	if err := s.store.SetTokens(ctx, session.TokenPair); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	if err := s.store.SetUser(ctx, session.User); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}

	s.log.InfoObj("logged in", "session", map[string]any{
		"username": creds.Username,
		"expires":  session.ExpiresIn,
	})
	return &session, nil
}

// Register creates an account. It does not log in.
func (s *Service) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	user, err := call[domain.User](ctx, s, endpoints.UsersRegister, nil, nil, reg)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the session server side and always clears it locally.
// The server error, if any, is returned after the local clear.
func (s *Service) Logout(ctx context.Context) error {
	_, serverErr := s.Call(ctx, endpoints.UsersLogout, nil, nil, nil)
	if serverErr != nil {
		s.log.WarnObj("server logout failed, clearing local session anyway", "error", serverErr.Error())
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return serverErr
}

// Me fetches the current profile and refreshes the stored copy.
func (s *Service) Me(ctx context.Context) (*domain.User, error) {
	user, err := call[domain.User](ctx, s, endpoints.UsersMe, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("persist user: %w", err)
	}
	return &user, nil
}

// CachedUser returns the stored profile without a round trip.
func (s *Service) CachedUser(ctx context.Context) (*domain.User, error) {
	return s.store.User(ctx)
}

// ChangePassword changes the caller's password.
func (s *Service) ChangePassword(ctx context.Context, change PasswordChange) error {
	if change.OldPassword == "" || change.NewPassword == "" {
		return errors.New("old and new password are required")
	}
	_, err := s.Call(ctx, endpoints.UsersChangePassword, nil, nil, change)
	return err
}

// Call issues any catalog endpoint and returns the raw envelope data.
func (s *Service) Call(ctx context.Context, name string, params, query map[string]string, body any) (json.RawMessage, error) {
	req, err := s.catalog.Request(name, params, query, body)
	if err != nil {
		return nil, err
	}
	return s.issuer.Issue(ctx, req)
}

func call[T any](ctx context.Context, s *Service, name string, params, query map[string]string, body any) (T, error) {
	var out T
	req, err := s.catalog.Request(name, params, query, body)
	if err != nil {
		return out, err
	}
	return pipeline.Fetch[T](ctx, s.issuer, req)
}
