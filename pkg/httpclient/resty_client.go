package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// ContentTypeJSON is sent on every request.
	ContentTypeJSON = "application/json;charset=utf-8"

	// DefaultTimeout bounds a single request round trip.
	DefaultTimeout = 10 * time.Second
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient rooted at baseURL with the specified timeout.
func NewRestyClient(baseURL string, timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(baseURL, timeout)}
}

// NewRestyClientFrom wraps an already configured resty.Client.
func NewRestyClientFrom(c *resty.Client) *RestyClient {
	if c == nil {
		c = newRestyBaseClient("", DefaultTimeout)
	}
	return &RestyClient{client: c}
}

// newRestyBaseClient creates a new resty.Client with the JSON content type and timeout.
func newRestyBaseClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(0)
	c.SetHeader("Content-Type", ContentTypeJSON)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		c.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
	return c
}

// Do performs the request. Non-2xx responses come back as *StatusError
// together with the response itself.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("resty client is not initialized")
	}

	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if len(in.Query) > 0 {
		req.SetQueryParams(in.Query)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(method, in.Path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, in.Path, err)
	}

	adapted := &restyResponseAdapter{resp: resp}
	if resp.IsError() || resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return adapted, &StatusError{Response: adapted}
	}
	return adapted, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte             { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int          { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Status() string           { return r.resp.Status() }
func (r *restyResponseAdapter) Header(key string) string { return r.resp.Header().Get(key) }
