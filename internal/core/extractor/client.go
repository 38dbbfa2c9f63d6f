package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultUserAgent is the browser profile sent with every upstream request
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// DefaultAppID is the web client's X-IG-App-ID
	DefaultAppID = "936619743392459"

	// DefaultGraphQLDocID is the persisted query id of the post detail query.
	// Upstream can retire it at any time without a distinguishable error.
	DefaultGraphQLDocID = "8845758582119845"

	maxBodySize = 10 * 1024 * 1024
)

var (
	// ErrExhausted is returned when every strategy failed
	ErrExhausted = errors.New("could not retrieve content from any strategy")

	// errNoPayload marks a response that lacked the expected payload
	errNoPayload = errors.New("payload marker not found")
)

// Endpoints are the upstream base URLs, overridable for tests
type Endpoints struct {
	Web string // e.g. https://www.instagram.com
	API string // e.g. https://api.instagram.com
}

// DefaultEndpoints points at production Instagram
var DefaultEndpoints = Endpoints{
	Web: "https://www.instagram.com",
	API: "https://api.instagram.com",
}

// StatusError is a non-2xx upstream response
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.Status)
}

// StrategyError records why a single strategy attempt failed. It stays
// internal: callers only ever see ErrExhausted.
type StrategyError struct {
	Strategy string
	Status   int
	Err      error
}

func (e *StrategyError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Strategy, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }

// Client is the upstream HTTP plumbing shared by all strategies
type Client struct {
	HTTP      *http.Client
	Endpoints Endpoints
	UserAgent string
	AppID     string
	DocID     string
}

// NewClient creates a client with production endpoints and default headers.
// Timeouts are applied per strategy through the request context.
func NewClient() *Client {
	return &Client{
		HTTP: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Endpoints: DefaultEndpoints,
		UserAgent: DefaultUserAgent,
		AppID:     DefaultAppID,
		DocID:     DefaultGraphQLDocID,
	}
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, headers)
}

func (c *Client) postForm(ctx context.Context, url, form string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, headers)
}

func (c *Client) do(req *http.Request, headers map[string]string) ([]byte, error) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{Status: resp.StatusCode, URL: req.URL.String()}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// browserHeaders is the full navigation profile of a desktop browser.
// Accept-Encoding is left to the transport so gzip is decoded transparently.
func (c *Client) browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                c.UserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Cache-Control":             "max-age=0",
	}
}

func (c *Client) lightHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      c.UserAgent,
		"Accept":          "text/html,application/xhtml+xml,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.9",
	}
}

// appHeaders spoofs the web app's identification headers for private endpoints
func (c *Client) appHeaders(referer string) map[string]string {
	return map[string]string{
		"User-Agent":      c.UserAgent,
		"Accept":          "*/*",
		"Accept-Language": "en-US,en;q=0.9",
		"X-IG-App-ID":     c.AppID,
		"X-FB-LSD":        graphqlLSD,
		"X-ASBD-ID":       "129477",
		"X-CSRFToken":     "missing",
		"Origin":          c.Endpoints.Web,
		"Referer":         referer,
		"Sec-Fetch-Dest":  "empty",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "same-origin",
	}
}
