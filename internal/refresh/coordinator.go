// Package refresh exchanges the stored refresh token for a new token pair.
//
// The exchange goes straight to the transport. It must never pass through
// the request pipeline, otherwise a 401 on the refresh endpoint would start
// another refresh.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/envelope"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/pkg/httpclient"
	"golang.org/x/sync/singleflight"
)

// DefaultPath is the portal's refresh endpoint.
const DefaultPath = "/api/users/refresh-token"

const flightKey = "refresh"

var (
	// ErrNoRefreshToken means there is nothing to exchange; no request is sent.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrRefreshFailed wraps every other failure. Nothing is persisted.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// TokenStore is the part of the credential store the coordinator needs.
type TokenStore interface {
	RefreshToken(ctx context.Context) (string, error)
	SetTokens(ctx context.Context, pair domain.TokenPair) error
}

// Options configures a Coordinator.
type Options struct {
	// Path of the refresh endpoint, DefaultPath when empty.
	Path string
	// Coalesce shares one in-flight exchange among concurrent callers.
	// When false every caller performs its own exchange.
	Coalesce bool
	Log      logger.Logger
}

// Coordinator performs the refresh exchange.
type Coordinator struct {
	client   httpclient.Client
	store    TokenStore
	path     string
	coalesce bool
	group    singleflight.Group
	log      logger.Logger
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// NewCoordinator wires a coordinator to a raw transport and the token store.
func NewCoordinator(client httpclient.Client, store TokenStore, opts Options) *Coordinator {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = DefaultPath
	}
	return &Coordinator{
		client:   client,
		store:    store,
		path:     path,
		coalesce: opts.Coalesce,
		log:      logger.Ensure(opts.Log),
	}
}

// Refresh exchanges the stored refresh token and persists the new pair.
func (c *Coordinator) Refresh(ctx context.Context) (domain.TokenPair, error) {
	if c == nil || c.client == nil || c.store == nil {
		return domain.TokenPair{}, fmt.Errorf("%w: coordinator is not initialized", ErrRefreshFailed)
	}
	if !c.coalesce {
		return c.exchange(ctx)
	}

	// The shared exchange outlives any single caller's cancellation; each
	// waiter still stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.exchange(shared)
	})

	select {
	case <-ctx.Done():
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.TokenPair{}, res.Err
		}
		if res.Shared {
			c.log.DebugObj("joined in-flight token refresh", "refresh", map[string]any{"path": c.path})
		}
		return res.Val.(domain.TokenPair), nil
	}
}

func (c *Coordinator) exchange(ctx context.Context) (domain.TokenPair, error) {
	token, err := c.store.RefreshToken(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if token == "" {
		return domain.TokenPair{}, ErrNoRefreshToken
	}

	resp, err := c.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   c.path,
		Body:   refreshRequest{RefreshToken: token},
	})
	if err != nil {
		c.log.WarnObj("token refresh request failed", "refresh_error", map[string]any{
			"path":  c.path,
			"error": err.Error(),
		})
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	result := envelope.Interpret(resp.Body())
	if !result.OK() {
		c.log.WarnObj("token refresh rejected", "refresh_error", map[string]any{
			"path":    c.path,
			"kind":    result.Kind.String(),
			"code":    result.Code,
			"message": result.Message,
		})
		return domain.TokenPair{}, fmt.Errorf("%w: %s response", ErrRefreshFailed, result.Kind)
	}

	var pair domain.TokenPair
	if err := json.Unmarshal(result.Data, &pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: decode token pair: %w", ErrRefreshFailed, err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return domain.TokenPair{}, fmt.Errorf("%w: response is missing tokens", ErrRefreshFailed)
	}

	if err := c.store.SetTokens(ctx, pair); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	c.log.InfoObj("access token refreshed", "refresh", map[string]any{"path": c.path})
	return pair, nil
}
