// Package guard answers the navigation questions a front end asks before
// showing a route: is anyone logged in, with which role, and where to go
// instead when the answer is no.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/logger"
)

const (
	DefaultLoginRoute = "/login"
	DefaultHomeRoute  = "/books"
)

// CredentialStore is the read side of the credential store.
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, error)
	User(ctx context.Context) (*domain.User, error)
}

// RoleRule restricts every path under Prefix to Roles.
type RoleRule struct {
	Prefix string
	Roles  []string
}

// AdminOnly builds one admin rule per prefix.
func AdminOnly(prefixes ...string) []RoleRule {
	rules := make([]RoleRule, 0, len(prefixes))
	for _, p := range prefixes {
		rules = append(rules, RoleRule{Prefix: p, Roles: []string{domain.RoleAdmin}})
	}
	return rules
}

// Decision is the outcome of Resolve. Redirect is empty when Allowed.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Options configures a Guard.
type Options struct {
	LoginRoute string
	HomeRoute  string
	Rules      []RoleRule
	Log        logger.Logger
}

type Guard struct {
	store      CredentialStore
	loginRoute string
	homeRoute  string
	rules      []RoleRule
	log        logger.Logger
	parser     *jwt.Parser
}

func New(store CredentialStore, opts Options) *Guard {
	g := &Guard{
		store:      store,
		loginRoute: normalize(opts.LoginRoute),
		homeRoute:  normalize(opts.HomeRoute),
		log:        logger.Ensure(opts.Log),
		parser:     jwt.NewParser(),
	}
	if opts.LoginRoute == "" {
		g.loginRoute = DefaultLoginRoute
	}
	if opts.HomeRoute == "" {
		g.homeRoute = DefaultHomeRoute
	}
	for _, r := range opts.Rules {
		if prefix := normalize(r.Prefix); prefix != "/" {
			g.rules = append(g.rules, RoleRule{Prefix: prefix, Roles: r.Roles})
		}
	}
	return g
}

// IsAuthenticated reports whether an access token is stored. Expiry is not
// checked here; the pipeline finds out on the next 401.
func (g *Guard) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := g.store.AccessToken(ctx)
	if err != nil {
		return false, fmt.Errorf("read access token: %w", err)
	}
	return token != "", nil
}

// CurrentRole returns the stored profile's role, falling back to the role
// claim of the access token. It returns "" when neither is available.
func (g *Guard) CurrentRole(ctx context.Context) (string, error) {
	user, err := g.store.User(ctx)
	if err != nil {
		return "", fmt.Errorf("read user: %w", err)
	}
	if user != nil && user.Role != "" {
		return user.Role, nil
	}

	token, err := g.store.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if token == "" {
		return "", nil
	}
	return g.roleClaim(token), nil
}

// roleClaim reads the role claim without verifying the signature; the
// client has no key and the server verifies every request anyway.
func (g *Guard) roleClaim(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := g.parser.ParseUnverified(token, claims); err != nil {
		g.log.DebugObj("access token is not a readable jwt", "error", err.Error())
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// Resolve decides whether path may be shown.
func (g *Guard) Resolve(ctx context.Context, path string) (Decision, error) {
	path = normalize(path)

	authed, err := g.IsAuthenticated(ctx)
	if err != nil {
		return Decision{}, err
	}
	if !authed {
		if path == g.loginRoute {
			return Decision{Allowed: true}, nil
		}
		return Decision{Redirect: g.loginRoute}, nil
	}

	if path == "/" && g.homeRoute != "/" {
		return Decision{Redirect: g.homeRoute}, nil
	}

	rule, ok := g.match(path)
	if !ok {
		return Decision{Allowed: true}, nil
	}
	role, err := g.CurrentRole(ctx)
	if err != nil {
		return Decision{}, err
	}
	for _, allowed := range rule.Roles {
		if strings.EqualFold(allowed, role) {
			return Decision{Allowed: true}, nil
		}
	}

	g.log.InfoObj("route denied for role", "guard", map[string]any{
		"path": path,
		"role": role,
	})
	return Decision{Redirect: g.homeRoute}, nil
}

// match returns the rule with the longest prefix covering path.
func (g *Guard) match(path string) (RoleRule, bool) {
	var best RoleRule
	found := false
	for _, r := range g.rules {
		if path != r.Prefix && !strings.HasPrefix(path, r.Prefix+"/") {
			continue
		}
		if !found || len(r.Prefix) > len(best.Prefix) {
			best, found = r, true
		}
	}
	return best, found
}

// normalize strips query, fragment and trailing slashes and ensures a
// leading one.
func normalize(path string) string {
	path = strings.TrimSpace(path)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
