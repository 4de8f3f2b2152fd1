// Package frappe implements the REST transport for Frappe/ERPNext-style
// backends: document CRUD under /api/resource and RPC-style methods under
// /api/method, with the backend's data and message envelopes unwrapped
// before payloads reach callers.
package frappe

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrInvalidConfig indicates an unusable client configuration
	ErrInvalidConfig = errors.New("invalid client configuration")

	// ErrMissingEnvelope indicates a success response without the expected
	// data or message wrapper
	ErrMissingEnvelope = errors.New("response missing expected envelope")
)

const (
	resourceBase = "/api/resource"
	methodBase   = "/api/method"

	defaultTimeout = 30 * time.Second
	defaultRPS     = 10
	defaultBurst   = 20

	maxResponseBytes = 10 << 20
)

// Config holds connection settings for one backend.
type Config struct {
	// BaseURL is the backend root, e.g. https://erp.example.com
	BaseURL string

	// APIKey and APISecret enable token auth via the Authorization header.
	// Leave both empty when HTTPClient already injects credentials.
	APIKey    string
	APISecret string

	// Timeout bounds each request. Zero means defaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond and Burst tune the outbound rate limiter.
	// Zero values take the package defaults.
	RequestsPerSecond float64
	Burst             int

	// InsecureSkipVerify disables TLS certificate verification. Only for
	// self-signed development instances. Ignored when HTTPClient is set.
	InsecureSkipVerify bool

	// HTTPClient overrides the transport, e.g. an oauth2-wrapped client.
	HTTPClient *http.Client
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base URL must be absolute: %q", ErrInvalidConfig, c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidConfig, u.Scheme)
	}
	return nil
}

// Client is a rate-limited HTTP client bound to one backend. Safe for
// concurrent use.
type Client struct {
	config  Config
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a client for the configured backend.
func New(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := config.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
		if config.InsecureSkipVerify {
			httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	return &Client{
		config:  config,
		baseURL: trimSlash(config.BaseURL),
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// BaseURL reports the backend root this client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListOptions narrows a ListDocs query. Fields and Filters follow the
// backend's JSON-encoded query conventions; Filters entries are
// [field, operator, value] triples.
type ListOptions struct {
	Fields  []string
	Filters [][]any
	Limit   int
}

// GetDoc fetches a single document.
func (c *Client) GetDoc(ctx context.Context, doctype, name string) (map[string]any, error) {
	raw, err := c.do(ctx, http.MethodGet, resourcePath(doctype, name), nil, nil, "")
	if err != nil {
		return nil, err
	}
	return decodeDoc(unwrapData(raw))
}

// CreateDoc posts a new document and returns the created document as the
// backend stored it.
func (c *Client) CreateDoc(ctx context.Context, doctype string, fields map[string]any) (map[string]any, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, resourcePath(doctype, ""), nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeDoc(unwrapData(raw))
}

// UpdateDoc puts fields onto an existing document and returns the updated
// document.
func (c *Client) UpdateDoc(ctx context.Context, doctype, name string, fields map[string]any) (map[string]any, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshaling document: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPut, resourcePath(doctype, name), nil, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	return decodeDoc(unwrapData(raw))
}

// DeleteDoc removes a document.
func (c *Client) DeleteDoc(ctx context.Context, doctype, name string) error {
	_, err := c.do(ctx, http.MethodDelete, resourcePath(doctype, name), nil, nil, "")
	return err
}

// ListDocs fetches documents of one doctype with field projection, filters,
// and a page size.
func (c *Client) ListDocs(ctx context.Context, doctype string, opts ListOptions) ([]map[string]any, error) {
	query := url.Values{}
	if len(opts.Fields) > 0 {
		fields, err := json.Marshal(opts.Fields)
		if err != nil {
			return nil, fmt.Errorf("marshaling fields: %w", err)
		}
		query.Set("fields", string(fields))
	}
	if len(opts.Filters) > 0 {
		filters, err := json.Marshal(opts.Filters)
		if err != nil {
			return nil, fmt.Errorf("marshaling filters: %w", err)
		}
		query.Set("filters", string(filters))
	}
	if opts.Limit > 0 {
		query.Set("limit_page_length", strconv.Itoa(opts.Limit))
	}

	raw, err := c.do(ctx, http.MethodGet, resourcePath(doctype, ""), query, nil, "")
	if err != nil {
		return nil, err
	}
	data, err := unwrapData(raw)
	if err != nil {
		return nil, err
	}
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decoding document list: %w", err)
	}
	return docs, nil
}

// Call invokes an RPC-style method endpoint via GET and unwraps the message
// envelope. The dotted method path is used as-is.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, methodBase+"/"+method, params, nil, "")
	if err != nil {
		return nil, err
	}
	return unwrapMessage(raw)
}

// Post invokes an RPC-style method endpoint with a JSON body and unwraps
// the message envelope.
func (c *Client) Post(ctx context.Context, method string, body any) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, methodBase+"/"+method, nil, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return nil, err
	}
	return unwrapMessage(raw)
}

// UploadOptions describes an optional attachment target for Upload.
type UploadOptions struct {
	Doctype string
	Docname string
	Private bool
}

// Upload posts file bytes as multipart form data to the backend's
// upload_file method and returns the stored file document.
func (c *Client) Upload(ctx context.Context, filename string, data []byte, opts UploadOptions) (map[string]any, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}
	private := "0"
	if opts.Private {
		private = "1"
	}
	_ = form.WriteField("is_private", private)
	if opts.Doctype != "" {
		_ = form.WriteField("doctype", opts.Doctype)
		_ = form.WriteField("docname", opts.Docname)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, methodBase+"/upload_file", nil, &buf, form.FormDataContentType())
	if err != nil {
		return nil, err
	}
	msg, err := unwrapMessage(raw)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(msg, &doc); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	return doc, nil
}

// do runs one rate-limited request and returns the raw success body.
// Non-2xx statuses come back as *APIError with the server message extracted.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "token "+c.config.APIKey+":"+c.config.APISecret)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		recordRequest(method, 0, time.Since(start))
		return nil, fmt.Errorf("erp request failed: %w", err)
	}
	defer resp.Body.Close()
	recordRequest(method, resp.StatusCode, time.Since(start))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: extractServerMessage(respBody)}
	}
	return respBody, nil
}

func resourcePath(doctype, name string) string {
	p := resourceBase + "/" + url.PathEscape(doctype)
	if name != "" {
		p += "/" + url.PathEscape(name)
	}
	return p
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

func unwrapData(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("%w: data", ErrMissingEnvelope)
	}
	return envelope.Data, nil
}

func unwrapMessage(raw json.RawMessage) (json.RawMessage, error) {
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(envelope.Message) == 0 {
		return nil, fmt.Errorf("%w: message", ErrMissingEnvelope)
	}
	return envelope.Message, nil
}

func decodeDoc(data json.RawMessage, err error) (map[string]any, error) {
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	return doc, nil
}
