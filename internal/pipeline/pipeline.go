// Package pipeline issues authenticated requests against the portal API.
//
// A call runs through attachAuth, send, interpret and, on a 401,
// handleExpired. Callers only ever see the unwrapped envelope data or an
// error. A 401 is recovered at most once per call: the attempt counter is
// local to Issue, so a request that is rejected again after a successful
// refresh fails with ErrAuthExpired without a third round trip.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/samvad-hq/library-client/internal/domain"
	"github.com/samvad-hq/library-client/internal/envelope"
	"github.com/samvad-hq/library-client/internal/logger"
	"github.com/samvad-hq/library-client/internal/notify"
	"github.com/samvad-hq/library-client/pkg/httpclient"
)

const (
	// MalformedResponseMessage replaces non-envelope bodies in notifications.
	MalformedResponseMessage = "interface error, see the logs for details"
	// TimeoutMessage is shown when the transport gave up waiting.
	TimeoutMessage = "request timed out"

	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-Id"

	maxAttempts      = 2
	maxSnippetBytes  = 512
	expiryStatusCode = http.StatusUnauthorized
)

// CredentialStore is the part of the credential store the pipeline needs.
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Refresher renews the stored credentials.
type Refresher interface {
	Refresh(ctx context.Context) (domain.TokenPair, error)
}

// Navigator is told to leave for the login entry point once credentials are void.
type Navigator interface {
	ToLogin(ctx context.Context)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context)

func (f NavigatorFunc) ToLogin(ctx context.Context) { f(ctx) }

// Issuer is the contract every API caller depends on.
type Issuer interface {
	Issue(ctx context.Context, req httpclient.Request) (json.RawMessage, error)
}

// Options holds the optional collaborators of a Pipeline.
type Options struct {
	Sink      notify.Sink
	Navigator Navigator
	Log       logger.Logger
	// RequestID generates the X-Request-Id of each call; uuid by default.
	RequestID func() string
}

// Pipeline is the authenticated request façade.
type Pipeline struct {
	client    httpclient.Client
	store     CredentialStore
	refresher Refresher
	sink      notify.Sink
	nav       Navigator
	log       logger.Logger
	requestID func() string
}

// New builds a pipeline. client must be the raw transport; refresher may be
// nil, in which case every 401 is treated as expired credentials.
func New(client httpclient.Client, store CredentialStore, refresher Refresher, opts Options) *Pipeline {
	p := &Pipeline{
		client:    client,
		store:     store,
		refresher: refresher,
		sink:      opts.Sink,
		nav:       opts.Navigator,
		log:       logger.Ensure(opts.Log),
		requestID: opts.RequestID,
	}
	if p.sink == nil {
		p.sink = notify.SinkFunc(func(context.Context, string, domain.Severity) {})
	}
	if p.nav == nil {
		p.nav = NavigatorFunc(func(context.Context) {})
	}
	if p.requestID == nil {
		p.requestID = uuid.NewString
	}
	return p
}

// call is the per-Issue state. The caller's request is never modified.
type call struct {
	orig      httpclient.Request
	requestID string
	attempt   int
	token     string
}

// Issue sends req and returns the envelope's data.
func (p *Pipeline) Issue(ctx context.Context, req httpclient.Request) (json.RawMessage, error) {
	if p == nil || p.client == nil || p.store == nil {
		return nil, fmt.Errorf("pipeline is not initialized")
	}

	c := &call{orig: req, requestID: req.Headers[HeaderRequestID]}
	if c.requestID == "" {
		c.requestID = p.requestID()
	}

	for c.attempt = 1; c.attempt <= maxAttempts; c.attempt++ {
		out, err := p.attachAuth(ctx, c)
		if err != nil {
			return nil, err
		}

		resp, err := p.send(ctx, c, out)
		if err == nil {
			return p.interpret(ctx, c, resp)
		}

		if statusOf(err) != expiryStatusCode {
			return nil, p.transportFailure(ctx, c, resp, err)
		}
		if retry, expErr := p.handleExpired(ctx, c, err); !retry {
			return nil, expErr
		}
	}

	// handleExpired refuses a retry on the last attempt.
	return nil, fmt.Errorf("%w: retry budget exhausted", ErrAuthExpired)
}

// attachAuth clones the request with the stored bearer token, if any.
func (p *Pipeline) attachAuth(ctx context.Context, c *call) (httpclient.Request, error) {
	token, err := p.store.AccessToken(ctx)
	if err != nil {
		return httpclient.Request{}, fmt.Errorf("read access token: %w", err)
	}
	c.token = token

	out := c.orig.WithHeader(HeaderRequestID, c.requestID)
	if token != "" {
		out.Headers[HeaderAuthorization] = "Bearer " + token
	}
	return out, nil
}

func (p *Pipeline) send(ctx context.Context, c *call, req httpclient.Request) (httpclient.Response, error) {
	p.log.DebugObj("api request", "request", map[string]any{
		"method":        req.Method,
		"path":          req.Path,
		"attempt":       c.attempt,
		"request_id":    c.requestID,
		"authenticated": c.token != "",
	})
	return p.client.Do(ctx, req)
}

// interpret unwraps a 2xx body.
func (p *Pipeline) interpret(ctx context.Context, c *call, resp httpclient.Response) (json.RawMessage, error) {
	result := envelope.Interpret(resp.Body())

	switch result.Kind {
	case envelope.KindOK:
		return result.Data, nil
	case envelope.KindEmpty:
		p.log.WarnObj("api returned an empty body", "response", p.describe(c, resp))
		return nil, ErrEmptyResponse
	case envelope.KindMalformed:
		meta := p.describe(c, resp)
		malformed := &MalformedResponseError{
			StatusCode:  resp.StatusCode(),
			ContentType: resp.Header("Content-Type"),
			Title:       htmlTitle(resp.Body()),
		}
		meta["snippet"] = snippet(resp.Body())
		meta["content_type"] = malformed.ContentType
		if malformed.Title != "" {
			meta["html_title"] = malformed.Title
		}
		p.log.ErrorObj("api returned a non-envelope body", "response", meta)
		p.sink.Notify(ctx, MalformedResponseMessage, domain.SeverityError)
		return nil, malformed
	default:
		meta := p.describe(c, resp)
		meta["code"] = result.Code
		meta["message"] = result.Message
		p.log.InfoObj("api business error", "response", meta)
		p.sink.Notify(ctx, result.Message, domain.SeverityError)
		return nil, &BusinessError{Code: result.Code, Message: result.Message}
	}
}

// handleExpired decides whether a 401 earns a retry. It returns false with
// the terminal error when it does not.
func (p *Pipeline) handleExpired(ctx context.Context, c *call, cause error) (bool, error) {
	if c.attempt >= maxAttempts {
		return false, p.expire(ctx, c, cause)
	}

	// Another call may already have rotated the pair while this one was in
	// flight; retrying with the newer token is enough.
	current, err := p.store.AccessToken(ctx)
	if err == nil && current != "" && current != c.token {
		p.log.InfoObj("retrying with access token refreshed elsewhere", "retry", map[string]any{
			"path":       c.orig.Path,
			"request_id": c.requestID,
		})
		return true, nil
	}

	if p.refresher == nil {
		return false, p.expire(ctx, c, fmt.Errorf("%w: no refresher configured", ErrRefreshFailed))
	}
	if _, err := p.refresher.Refresh(ctx); err != nil {
		// The caller gave up, the credentials did not. A coalesced exchange
		// may still complete and persist a fresh pair.
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.log.InfoObj("token refresh abandoned by caller", "retry", map[string]any{
				"path":       c.orig.Path,
				"request_id": c.requestID,
				"error":      err.Error(),
			})
			return false, fmt.Errorf("%w: %w", ErrInterrupted, ctxErr)
		}
		return false, p.expire(ctx, c, err)
	}

	p.log.InfoObj("access token refreshed, retrying request", "retry", map[string]any{
		"path":       c.orig.Path,
		"request_id": c.requestID,
	})
	return true, nil
}

// expire voids the credentials and hands control to the navigator. No
// notification is emitted; the login entry point takes over.
func (p *Pipeline) expire(ctx context.Context, c *call, cause error) error {
	if err := p.store.Clear(ctx); err != nil {
		p.log.ErrorObj("failed to clear credentials", "error", err.Error())
	}
	p.log.WarnObj("authentication expired", "auth", map[string]any{
		"path":       c.orig.Path,
		"request_id": c.requestID,
		"attempt":    c.attempt,
		"cause":      cause.Error(),
	})
	p.nav.ToLogin(ctx)
	return fmt.Errorf("%w: %w", ErrAuthExpired, cause)
}

func (p *Pipeline) transportFailure(ctx context.Context, c *call, resp httpclient.Response, err error) error {
	msg := failureMessage(resp, err)
	status := statusOf(err)

	p.log.ErrorObj("api transport error", "transport_error", map[string]any{
		"method":     c.orig.Method,
		"path":       c.orig.Path,
		"request_id": c.requestID,
		"status":     status,
		"error":      err.Error(),
	})
	p.sink.Notify(ctx, msg, domain.SeverityError)
	return &TransportError{StatusCode: status, Message: msg, Cause: err}
}

func (p *Pipeline) describe(c *call, resp httpclient.Response) map[string]any {
	return map[string]any{
		"method":     c.orig.Method,
		"path":       c.orig.Path,
		"request_id": c.requestID,
		"status":     resp.StatusCode(),
	}
}

// Fetch issues req and decodes the data into T.
func Fetch[T any](ctx context.Context, issuer Issuer, req httpclient.Request) (T, error) {
	var out T
	data, err := issuer.Issue(ctx, req)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return out, nil
}

func statusOf(err error) int {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}
	return 0
}

// failureMessage prefers the server's message, then the status text, then
// the error itself.
func failureMessage(resp httpclient.Response, err error) string {
	if resp != nil && len(bytes.TrimSpace(resp.Body())) > 0 {
		if msg, ok := envelope.MessageOf(resp.Body()); ok {
			return msg
		}
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if text := statusErr.StatusText(); text != "" {
			return text
		}
	}
	if isTimeout(err) {
		return TimeoutMessage
	}
	return err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}

func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
