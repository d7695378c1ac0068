package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samvad-hq/library-client/internal/domain"
)

// Storage keys, shared with other clients of the same portal.
const (
	KeyAccessToken  = "library_access_token"
	KeyRefreshToken = "library_refresh_token"
	KeyUser         = "library_user_info"
)

// Store owns the client's credentials: the access/refresh token pair and
// the logged-in user's profile. A single Store is shared by the pipeline,
// the refresh coordinator and the guard; writes are last-write-wins.
type Store struct {
	backend Backend
}

// NewStore wraps backend; a nil backend gets an in-memory one.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend}
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// AccessToken returns the stored access token, or "" when unauthenticated.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "".
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.get(ctx, KeyRefreshToken)
}

// SetAccessToken replaces the access token.
func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.backend.Set(ctx, KeyAccessToken, token)
}

// SetRefreshToken replaces the refresh token.
func (s *Store) SetRefreshToken(ctx context.Context, token string) error {
	return s.backend.Set(ctx, KeyRefreshToken, token)
}

// SetTokens persists both halves of a pair.
func (s *Store) SetTokens(ctx context.Context, pair domain.TokenPair) error {
	if err := s.SetAccessToken(ctx, pair.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.SetRefreshToken(ctx, pair.RefreshToken); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// SetUser stores the profile. A nil user is ignored so a bad login response
// cannot overwrite a good profile with nothing.
func (s *Store) SetUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return nil
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.backend.Set(ctx, KeyUser, string(raw))
}

// User returns the stored profile or nil. Unreadable entries are removed.
func (s *Store) User(ctx context.Context) (*domain.User, error) {
	raw, err := s.get(ctx, KeyUser)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "undefined" || raw == "null" {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		if derr := s.backend.Delete(ctx, KeyUser); derr != nil {
			return nil, fmt.Errorf("remove corrupted user: %w", derr)
		}
		return nil, nil
	}
	return &user, nil
}

// Clear removes the tokens and the profile.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeyUser)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}
