package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/library-client/internal/credentials"
	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/refresh"
	"github.com/samvad-hq/library-client/pkg/httpclient"
)

type sentNotification struct {
	message  string
	severity domain.Severity
}

type recordingSink struct {
	mu    sync.Mutex
	items []sentNotification
}

func (r *recordingSink) Notify(_ context.Context, message string, severity domain.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, sentNotification{message, severity})
}

func (r *recordingSink) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.items...)
}

// portal mimics the backend: a single valid access token, and refresh
// tokens that are rotated (the old one stops working) on every exchange.
type portal struct {
	mu           sync.Mutex
	access       string
	refreshToken string
	generation   int
	rejectAll    bool
	refreshGate  chan struct{}

	meCalls      atomic.Int32
	refreshCalls atomic.Int32
	authHeaders  []string
	requestIDs   []string

	srv *httptest.Server
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	p := &portal{access: "access-1", refreshToken: "refresh-1", generation: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me", p.handleMe)
	mux.HandleFunc(refresh.DefaultPath, p.handleRefresh)
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (p *portal) handleMe(w http.ResponseWriter, r *http.Request) {
	p.meCalls.Add(1)
	auth := r.Header.Get(HeaderAuthorization)

	p.mu.Lock()
	p.authHeaders = append(p.authHeaders, auth)
	p.requestIDs = append(p.requestIDs, r.Header.Get(HeaderRequestID))
	valid := !p.rejectAll && auth == "Bearer "+p.access
	p.mu.Unlock()

	if !valid {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 10004, "message": "Token无效或已过期"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "ok", "data": map[string]any{"id": 1, "username": "alice", "role": "user"}})
}

func (p *portal) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p.refreshCalls.Add(1)
	if p.refreshGate != nil {
		<-p.refreshGate
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	p.mu.Lock()
	defer p.mu.Unlock()
	if body.RefreshToken == "" || body.RefreshToken != p.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 10004, "message": "Token无效或已过期"})
		return
	}
	p.generation++
	p.access = fmt.Sprintf("access-%d", p.generation)
	p.refreshToken = fmt.Sprintf("refresh-%d", p.generation)
	writeJSON(w, http.StatusOK, map[string]any{"code": 200, "message": "ok", "data": map[string]any{
		"access_token":  p.access,
		"refresh_token": p.refreshToken,
		"token_type":    "Bearer",
		"expires_in":    86400,
	}})
}

type harness struct {
	pipeline   *Pipeline
	store      *credentials.Store
	sink       *recordingSink
	navigation atomic.Int32
}

func newHarness(t *testing.T, baseURL string, coalesce bool) *harness {
	t.Helper()
	client := httpclient.NewRestyClient(baseURL, 2*time.Second)
	store := credentials.NewStore(credentials.NewMemoryBackend())
	h := &harness{store: store, sink: &recordingSink{}}
	coord := refresh.NewCoordinator(client, store, refresh.Options{Coalesce: coalesce})
	h.pipeline = New(client, store, coord, Options{
		Sink:      h.sink,
		Navigator: NavigatorFunc(func(context.Context) { h.navigation.Add(1) }),
	})
	return h
}

func (h *harness) seed(t *testing.T, access, refreshToken string) {
	t.Helper()
	if err := h.store.SetTokens(context.Background(), domain.TokenPair{AccessToken: access, RefreshToken: refreshToken}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestIssueAttachesBearerOnlyWhenTokenStored(t *testing.T) {
	var headers []string
	var mu sync.Mutex
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		headers = append(headers, r.Header.Get(HeaderAuthorization))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "data": nil})
	})
	h := newHarness(t, srv.URL, true)
	ctx := context.Background()

	if _, err := h.pipeline.Issue(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/books"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	h.seed(t, "tok-123", "r")
	if _, err := h.pipeline.Issue(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/books"}); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if headers[0] != "" {
		t.Fatalf("expected no Authorization without token, got %q", headers[0])
	}
	if headers[1] != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", headers[1])
	}
}

func TestIssueDoesNotMutateCallerRequest(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 200, "data": 1})
	})
	h := newHarness(t, srv.URL, true)
	h.seed(t, "tok", "r")

	req := httpclient.Request{Method: http.MethodGet, Path: "/x", Headers: map[string]string{"X-Caller": "1"}}
	if _, err := h.pipeline.Issue(context.Background(), req); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(req.Headers) != 1 {
		t.Fatalf("caller headers mutated: %#v", req.Headers)
	}
}

func TestIssueUnauthenticatedSuccessReturnsData(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code":200,"data":{"id":1}}`))
	})
	h := newHarness(t, srv.URL, true)

	data, err := h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodGet, Path: "/api/books/1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if string(data) != `{"id":1}` {
		t.Fatalf("expected data unchanged, got %s", data)
	}
	if got := h.sink.all(); len(got) != 0 {
		t.Fatalf("success must not notify, got %+v", got)
	}
}

func TestIssueBusinessErrorNotifiesOnce(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 400, "message": "密码错误"})
	})
	h := newHarness(t, srv.URL, true)

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodPost, Path: "/api/users/login"})
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("expected BusinessError, got %v", err)
	}
	if bizErr.Message != "密码错误" || bizErr.Code != 400 || err.Error() != "密码错误" {
		t.Fatalf("unexpected business error %+v", bizErr)
	}
	got := h.sink.all()
	if len(got) != 1 || got[0].message != "密码错误" || got[0].severity != domain.SeverityError {
		t.Fatalf("expected exactly one error notification, got %+v", got)
	}
}

func TestIssueBusinessErrorFallbackMessage(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"code": 30002})
	})
	h := newHarness(t, srv.URL, true)

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Path: "/api/borrow"})
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) || bizErr.Message != "unknown business error" {
		t.Fatalf("expected fallback business message, got %v", err)
	}
	if got := h.sink.all(); len(got) != 1 || got[0].message != "unknown business error" {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestIssueMalformedBodyNeverSurfacesRawText(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><head><title>502 Bad Gateway</title></head><body>nginx</body></html>"))
	})
	h := newHarness(t, srv.URL, true)

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Path: "/api/books"})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %T", err)
	}
	if malformed.Title != "502 Bad Gateway" || malformed.StatusCode != http.StatusOK || !strings.HasPrefix(malformed.ContentType, "text/html") {
		t.Fatalf("unexpected detail %+v", malformed)
	}
	got := h.sink.all()
	if len(got) != 1 || got[0].message != MalformedResponseMessage {
		t.Fatalf("expected generic interface error notification, got %+v", got)
	}
	if strings.Contains(got[0].message, "<html>") {
		t.Fatalf("raw body leaked into notification")
	}
}

func TestIssueEmptyBody(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := newHarness(t, srv.URL, true)

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodDelete, Path: "/api/books/1"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if got := h.sink.all(); len(got) != 0 {
		t.Fatalf("empty body is not a user-facing failure, got %+v", got)
	}
}

func TestIssueTransportFailureMessages(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		want    string
	}{
		{
			name: "server message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]any{"code": 20001, "message": "图书不存在"})
			},
			status: http.StatusNotFound,
			want:   "图书不存在",
		},
		{
			name: "status text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream down"))
			},
			status: http.StatusBadGateway,
			want:   "Bad Gateway",
		},
		{
			name: "envelope without message",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusForbidden, map[string]any{"code": 403})
			},
			status: http.StatusForbidden,
			want:   "Forbidden",
		},
		{
			name: "no body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
			want:   "Internal Server Error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, tc.handler)
			h := newHarness(t, srv.URL, true)

			_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Path: "/api/books/9"})
			var tErr *TransportError
			if !errors.As(err, &tErr) {
				t.Fatalf("expected TransportError, got %v", err)
			}
			if tErr.StatusCode != tc.status || tErr.Message != tc.want {
				t.Fatalf("expected %d %q, got %d %q", tc.status, tc.want, tErr.StatusCode, tErr.Message)
			}
			got := h.sink.all()
			if len(got) != 1 || got[0].message != tc.want || got[0].severity != domain.SeverityError {
				t.Fatalf("expected one notification %q, got %+v", tc.want, got)
			}
		})
	}
}

func TestIssueNetworkErrorAndTimeout(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	h := newHarness(t, closed.URL, true)

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Path: "/api/books"})
	var tErr *TransportError
	if !errors.As(err, &tErr) || tErr.StatusCode != 0 || tErr.Message == "" {
		t.Fatalf("expected network TransportError, got %v", err)
	}
	if len(h.sink.all()) != 1 {
		t.Fatalf("expected one notification for network error")
	}

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-release }))
	defer slow.Close()
	defer close(release)

	client := httpclient.NewRestyClient(slow.URL, 50*time.Millisecond)
	sink := &recordingSink{}
	p := New(client, credentials.NewStore(nil), nil, Options{Sink: sink})
	_, err = p.Issue(context.Background(), httpclient.Request{Path: "/slow"})
	if !errors.As(err, &tErr) || tErr.Message != TimeoutMessage {
		t.Fatalf("expected timeout TransportError, got %v", err)
	}
	if got := sink.all(); len(got) != 1 || got[0].message != TimeoutMessage {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestIssueRefreshesAndRetriesOnce(t *testing.T) {
	portal := newPortal(t)
	h := newHarness(t, portal.srv.URL, true)
	h.seed(t, "stale-access", "refresh-1")

	user, err := Fetch[domain.User](context.Background(), h.pipeline, httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}

	if portal.meCalls.Load() != 2 || portal.refreshCalls.Load() != 1 {
		t.Fatalf("expected 2 calls and 1 refresh, got %d/%d", portal.meCalls.Load(), portal.refreshCalls.Load())
	}
	if portal.authHeaders[0] != "Bearer stale-access" || portal.authHeaders[1] != "Bearer access-2" {
		t.Fatalf("unexpected auth headers %v", portal.authHeaders)
	}
	if portal.requestIDs[0] == "" || portal.requestIDs[0] != portal.requestIDs[1] {
		t.Fatalf("expected retry to keep the request id, got %v", portal.requestIDs)
	}
	access, _ := h.store.AccessToken(context.Background())
	if access != "access-2" {
		t.Fatalf("expected refreshed token stored, got %q", access)
	}
	if got := h.sink.all(); len(got) != 0 {
		t.Fatalf("transparent refresh must not notify, got %+v", got)
	}
	if h.navigation.Load() != 0 {
		t.Fatalf("unexpected navigation to login")
	}
}

func TestIssueSecond401AfterRefreshExpires(t *testing.T) {
	portal := newPortal(t)
	portal.rejectAll = true
	h := newHarness(t, portal.srv.URL, true)
	h.seed(t, "stale-access", "refresh-1")

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
	if got := portal.meCalls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 calls to the endpoint, got %d", got)
	}
	if got := portal.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 refresh, got %d", got)
	}
	access, _ := h.store.AccessToken(context.Background())
	refreshToken, _ := h.store.RefreshToken(context.Background())
	if access != "" || refreshToken != "" {
		t.Fatalf("expected credentials cleared, got %q/%q", access, refreshToken)
	}
	if h.navigation.Load() != 1 {
		t.Fatalf("expected one navigation to login, got %d", h.navigation.Load())
	}
	if got := h.sink.all(); len(got) != 0 {
		t.Fatalf("auth expiry must not notify, got %+v", got)
	}
}

func TestIssue401WithoutRefreshTokenClearsAndNavigates(t *testing.T) {
	portal := newPortal(t)
	h := newHarness(t, portal.srv.URL, true)
	ctx := context.Background()
	_ = h.store.SetAccessToken(ctx, "stale-access")
	_ = h.store.SetUser(ctx, &domain.User{Username: "alice"})

	_, err := h.pipeline.Issue(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
	if !errors.Is(err, ErrAuthExpired) || !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("expected ErrAuthExpired wrapping ErrNoRefreshToken, got %v", err)
	}
	if portal.refreshCalls.Load() != 0 {
		t.Fatalf("no refresh exchange expected without a refresh token")
	}
	if portal.meCalls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", portal.meCalls.Load())
	}
	if user, _ := h.store.User(ctx); user != nil {
		t.Fatalf("expected profile cleared")
	}
	if h.navigation.Load() != 1 {
		t.Fatalf("expected navigation to login")
	}
}

func TestIssueRefreshRejectedExpires(t *testing.T) {
	portal := newPortal(t)
	h := newHarness(t, portal.srv.URL, true)
	h.seed(t, "stale-access", "revoked-refresh")

	_, err := h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
	if !errors.Is(err, ErrAuthExpired) || !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("expected ErrAuthExpired wrapping ErrRefreshFailed, got %v", err)
	}
	if portal.meCalls.Load() != 1 {
		t.Fatalf("failed refresh must not resend the request, got %d calls", portal.meCalls.Load())
	}
	if len(h.sink.all()) != 0 {
		t.Fatalf("auth expiry must not notify")
	}
}

func TestIssueWithoutRefresherExpiresOn401(t *testing.T) {
	portal := newPortal(t)
	client := httpclient.NewRestyClient(portal.srv.URL, time.Second)
	store := credentials.NewStore(nil)
	_ = store.SetAccessToken(context.Background(), "stale")
	p := New(client, store, nil, Options{})

	_, err := p.Issue(context.Background(), httpclient.Request{Path: "/api/users/me"})
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("expected ErrAuthExpired, got %v", err)
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	const n = 8
	portal := newPortal(t)
	portal.refreshGate = make(chan struct{})
	h := newHarness(t, portal.srv.URL, true)
	h.seed(t, "stale-access", "refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for portal.meCalls.Load() < n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(portal.refreshGate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	if got := portal.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected a single refresh exchange, got %d", got)
	}
	if h.navigation.Load() != 0 {
		t.Fatalf("unexpected logout during concurrent refresh")
	}
}

func TestCancelDuringRefreshKeepsSession(t *testing.T) {
	for _, coalesce := range []bool{true, false} {
		t.Run(fmt.Sprintf("coalesce=%v", coalesce), func(t *testing.T) {
			portal := newPortal(t)
			gate := make(chan struct{})
			portal.refreshGate = gate
			var once sync.Once
			release := func() { once.Do(func() { close(gate) }) }
			t.Cleanup(release)

			h := newHarness(t, portal.srv.URL, coalesce)
			h.seed(t, "stale-access", "refresh-1")
			profile := &domain.User{ID: 1, Username: "alice", Role: domain.RoleAdmin}
			if err := h.store.SetUser(context.Background(), profile); err != nil {
				t.Fatalf("SetUser: %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				_, err := h.pipeline.Issue(ctx, httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
				done <- err
			}()

			deadline := time.Now().Add(2 * time.Second)
			for portal.refreshCalls.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			cancel()

			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("Issue did not return after cancellation")
			}
			if !errors.Is(err, context.Canceled) || !errors.Is(err, ErrInterrupted) {
				t.Fatalf("expected interrupted error, got %v", err)
			}
			if errors.Is(err, ErrAuthExpired) {
				t.Fatalf("cancellation reported as expiry: %v", err)
			}
			if h.navigation.Load() != 0 {
				t.Fatalf("navigator called on cancellation")
			}
			if got := h.sink.all(); len(got) != 0 {
				t.Fatalf("unexpected notifications %+v", got)
			}
			user, err := h.store.User(context.Background())
			if err != nil || user == nil || user.Username != "alice" {
				t.Fatalf("profile lost: %+v %v", user, err)
			}

			release()
			if !coalesce {
				if access, _ := h.store.AccessToken(context.Background()); access != "stale-access" {
					t.Fatalf("expected stored token untouched, got %q", access)
				}
				return
			}
			// The shared exchange finishes on its own and persists the new pair.
			deadline = time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) {
				if access, _ := h.store.AccessToken(context.Background()); access == "access-2" {
					return
				}
				time.Sleep(time.Millisecond)
			}
			t.Fatalf("shared refresh did not persist the new pair")
		})
	}
}

func TestIndependentRefreshRejectsRotatedToken(t *testing.T) {
	const n = 4
	portal := newPortal(t)
	portal.refreshGate = make(chan struct{})
	h := newHarness(t, portal.srv.URL, false)
	h.seed(t, "stale-access", "refresh-1")

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.pipeline.Issue(context.Background(), httpclient.Request{Method: http.MethodGet, Path: "/api/users/me"})
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for portal.refreshCalls.Load() < n && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(portal.refreshGate)
	wg.Wait()

	// Every caller presented refresh-1; only the first exchange wins.
	var expired int
	for _, err := range errs {
		if errors.Is(err, ErrAuthExpired) {
			expired++
		}
	}
	if portal.refreshCalls.Load() != n || expired == 0 {
		t.Fatalf("expected %d exchanges and at least one expiry, got %d/%d", n, portal.refreshCalls.Load(), expired)
	}
}
