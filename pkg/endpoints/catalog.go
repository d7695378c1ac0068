package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samvad-hq/library-client/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// catalogFile represents the structure of the endpoints file.
type catalogFile struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Endpoint is one named API operation.
type Endpoint struct {
	Name    string `json:"name" yaml:"name"`
	Method  string `json:"method" yaml:"method"`
	Path    string `json:"path" yaml:"path"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Params lists the placeholders of the path template in order.
func (e Endpoint) Params() []string {
	var out []string
	rest := e.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return out
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return out
		}
		out = append(out, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}

// Expand fills the path template. Values are path-escaped; a placeholder
// without a value is an error.
func (e Endpoint) Expand(params map[string]string) (string, error) {
	var b strings.Builder
	rest := e.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("endpoint %q: unterminated placeholder in %q", e.Name, e.Path)
		}
		name := rest[open+1 : open+end]
		val := strings.TrimSpace(params[name])
		if val == "" {
			return "", fmt.Errorf("endpoint %q: missing path parameter %q", e.Name, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(val))
		rest = rest[open+end+1:]
	}
}

// Catalog is an immutable set of endpoints indexed by name.
type Catalog struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

// NewCatalog validates entries and builds a catalog.
func NewCatalog(entries []Endpoint) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, errors.New("catalog contains no endpoints")
	}

	c := &Catalog{
		endpoints: make([]Endpoint, len(entries)),
		idx:       make(map[string]Endpoint, len(entries)),
	}
	for i := range entries {
		ep := sanitizeEndpoint(entries[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := c.idx[ep.Name]; exists {
			return nil, fmt.Errorf("duplicate endpoint name %q", ep.Name)
		}
		c.endpoints[i] = ep
		c.idx[ep.Name] = ep
	}
	return c, nil
}

// LoadCatalog loads a catalog from a YAML/JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	parsed, err := parseCatalog(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewCatalog(parsed.Endpoints)
}

// parseCatalog attempts to decode the endpoints file content.
func parseCatalog(data []byte, ext string) (catalogFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if parsed, err := unmarshalCatalog(d.name, data, d.fn); err == nil {
			return parsed, nil
		}
	}

	return catalogFile{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func unmarshalCatalog(name string, data []byte, fn func([]byte, any) error) (catalogFile, error) {
	var parsed catalogFile
	if err := fn(data, &parsed); err != nil {
		return catalogFile{}, fmt.Errorf("decode %s endpoints: %w", name, err)
	}
	return parsed, nil
}

// sanitizeEndpoint trims and normalizes the endpoint fields.
func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.Name = strings.ToLower(strings.TrimSpace(ep.Name))
	ep.Method = strings.ToUpper(strings.TrimSpace(ep.Method))
	ep.Path = strings.TrimSpace(ep.Path)
	ep.Summary = strings.TrimSpace(ep.Summary)
	return ep
}

// validateEndpoint checks that required fields are present.
func validateEndpoint(ep Endpoint) error {
	if ep.Name == "" {
		return errors.New("name is required")
	}
	switch ep.Method {
	case "":
		return fmt.Errorf("method is required for endpoint %q", ep.Name)
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported method %q for endpoint %q", ep.Method, ep.Name)
	}
	if ep.Path == "" {
		return fmt.Errorf("path is required for endpoint %q", ep.Name)
	}
	if !strings.HasPrefix(ep.Path, "/") {
		return fmt.Errorf("path of endpoint %q must start with /", ep.Name)
	}
	if strings.Count(ep.Path, "{") != strings.Count(ep.Path, "}") {
		return fmt.Errorf("unbalanced placeholders in path of endpoint %q", ep.Name)
	}
	for _, p := range ep.Params() {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("empty placeholder in path of endpoint %q", ep.Name)
		}
	}
	return nil
}

// ByName returns the endpoint registered under name.
func (c *Catalog) ByName(name string) (Endpoint, bool) {
	if c == nil {
		return Endpoint{}, false
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Endpoint{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	ep, ok := c.idx[name]
	return ep, ok
}

// All returns the endpoints sorted by name.
func (c *Catalog) All() []Endpoint {
	if c == nil {
		return nil
	}

	c.mu.RLock()
	out := make([]Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Size returns the number of endpoints.
func (c *Catalog) Size() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.endpoints)
}

// Request builds the transport request for the named endpoint.
func (c *Catalog) Request(name string, params, query map[string]string, body any) (httpclient.Request, error) {
	ep, ok := c.ByName(name)
	if !ok {
		return httpclient.Request{}, fmt.Errorf("unknown endpoint %q", name)
	}
	path, err := ep.Expand(params)
	if err != nil {
		return httpclient.Request{}, err
	}

	req := httpclient.Request{Method: ep.Method, Path: path, Body: body}
	if len(query) > 0 {
		req.Query = make(map[string]string, len(query))
		for k, v := range query {
			req.Query[k] = v
		}
	}
	return req, nil
}
