package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/productboard/catalog"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8080/api"

// DefaultTimeout bounds every request made by a [Client].
const DefaultTimeout = 10 * time.Second

const maxResponseBodySize = 1 << 20 // 1MB

// ErrResponseTooLarge is returned when a successful response body exceeds the
// client's read limit.
var ErrResponseTooLarge = errors.New("response body too large")

// connection pooling limits; the dashboard talks to a single backend host
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Client talks to the product backend's REST API.
//
// Client uses per-request timeouts via context rather than a global timeout.
// Backend and transport failures are returned as a *catalog.APIError;
// transport failures carry StatusCode 0 and Kind catalog.KindNetwork. The
// client never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	headers    map[string]string
	now        func() time.Time
}

// Option configures a [Client].
type Option func(*Client) error

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		if key == "" {
			return errors.New("header key cannot be empty")
		}
		c.headers[key] = value
		return nil
	}
}

// New creates a [Client] for the backend rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		timeout: DefaultTimeout,
		headers: make(map[string]string),
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the backend root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts returns every product known to the backend.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []catalog.Product{}
	}
	return products, nil
}

// CreateProduct creates a product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, req catalog.ProductRequest) (string, error) {
	var out catalog.IDResponse
	if err := c.do(ctx, http.MethodPost, "/products", req, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// UpdateProduct replaces the editable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id string, req catalog.ProductRequest) error {
	return c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id), req, nil)
}

// DeleteProduct removes product id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil, nil)
}

// Close releases idle connections held by the client's transport.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.networkError(err)
	}
	defer func() {
		// drain a bounded remainder to allow connection reuse
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodySize))
		resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return c.networkError(fmt.Errorf("failed to read response body: %w", err))
	}
	oversize := len(data) > maxResponseBodySize
	if oversize {
		data = data[:maxResponseBodySize]
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(resp.StatusCode, data)
	}
	if oversize {
		return fmt.Errorf("%s %s: %w (limit %d bytes)", method, path, ErrResponseTooLarge, maxResponseBodySize)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) networkError(err error) *catalog.APIError {
	msg := "Network error occurred"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "Request timed out"
	}
	return &catalog.APIError{
		Timestamp: c.now(),
		ErrorCode: catalog.CodeNetwork,
		Message:   msg,
		Kind:      catalog.KindNetwork,
		Err:       err,
	}
}

func (c *Client) statusError(status int, data []byte) *catalog.APIError {
	var body catalog.ErrorResponse
	if err := json.Unmarshal(data, &body); err != nil {
		body = catalog.ErrorResponse{}
	}
	apiErr := catalog.NewAPIError(status, body)
	if apiErr.Timestamp.IsZero() {
		apiErr.Timestamp = c.now()
	}
	return apiErr
}
