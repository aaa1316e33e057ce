// Package vaultapi implements the read path against the vault server:
// login, vault lookup by name, entry lookup by name and retrieval of an
// entry's password. Every call is a single blocking attempt.
package vaultapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// HeaderToken carries the session token on authenticated calls
	HeaderToken = "tokenId"
	// HeaderRequestID correlates all calls of one run on the server side
	HeaderRequestID = "X-Request-ID"

	loginPath = "/api/v1/login"
	vaultPath = "/api/v1/vault"

	// maxBodySize caps how much of a response is read into memory
	maxBodySize = 4 << 20
)

// Credentials identify the calling application to the vault server
type Credentials struct {
	AppKey    string
	AppSecret string
}

// Vault is a named container of entries
type Vault struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Entry is a named secret record inside a vault
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Diagnostics receives debug-level detail. It is never used for anything a
// user must see.
type Diagnostics interface {
	Debug(format string, args ...interface{})
}

type nopDiagnostics struct{}

func (nopDiagnostics) Debug(string, ...interface{}) {}

// Client talks to one vault server
type Client struct {
	baseURL    string
	httpClient *http.Client
	diag       Diagnostics
	requestID  string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDiagnostics sets the sink for debug output
func WithDiagnostics(d Diagnostics) Option {
	return func(c *Client) {
		if d != nil {
			c.diag = d
		}
	}
}

// WithRequestID sets the correlation id sent with every request
func WithRequestID(id string) Option {
	return func(c *Client) {
		c.requestID = id
	}
}

// NewClient creates a client for the server at serverURL
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: missing host", serverURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		diag:       nopDiagnostics{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// BaseURL returns the normalized server URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticate exchanges the application key and secret for a session token.
func (c *Client) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	c.diag.Debug("Attempting to get auth token...")

	ex, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   loginPath,
		body: map[string]string{
			"appKey":    creds.AppKey,
			"appSecret": creds.AppSecret,
		},
	})
	if err != nil {
		return "", &AuthenticationError{Err: err, Exchange: ex}
	}

	if !ex.ok() {
		return "", &AuthenticationError{
			StatusCode: ex.StatusCode,
			Message:    ex.ServerMessage(),
			Exchange:   ex,
		}
	}

	if err := validateBody(loginSchema, ex.Body); err != nil {
		return "", &AuthenticationError{
			StatusCode: ex.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrMissingToken, err),
			Exchange:   ex,
		}
	}

	token, ok := searchString(tokenQuery, ex.Body)
	if !ok || token == "" {
		return "", &AuthenticationError{
			StatusCode: ex.StatusCode,
			Err:        ErrMissingToken,
			Exchange:   ex,
		}
	}

	c.diag.Debug("Successfully obtained auth token")
	return token, nil
}

// ResolveVault returns the id of the first vault named exactly vaultName.
// A missing vault, or a first match with an empty id, is reported through
// found, not as an error.
func (c *Client) ResolveVault(ctx context.Context, token, vaultName string) (id string, found bool, err error) {
	c.diag.Debug("Attempting to get vault ID for vault: %s", vaultName)

	var resp struct {
		Data []Vault `json:"data"`
	}
	if err := c.lookup(ctx, "list vaults", vaultListSchema, request{
		method: http.MethodGet,
		path:   vaultPath,
		token:  token,
	}, &resp); err != nil {
		return "", false, err
	}

	c.diag.Debug("Found %d vaults", len(resp.Data))

	for _, v := range resp.Data {
		if v.Name != vaultName {
			continue
		}
		// the first match decides; one without an id counts as absent
		if v.ID == "" {
			c.diag.Debug("Vault %s has no ID", vaultName)
			return "", false, nil
		}
		c.diag.Debug("Found vault ID: %s", v.ID)
		return v.ID, true, nil
	}

	names := make([]string, len(resp.Data))
	for i, v := range resp.Data {
		names[i] = v.Name
	}
	c.diag.Debug("Available vaults: %s", strings.Join(names, ", "))

	return "", false, nil
}

// ResolveEntry returns the id of the entry named entryName inside vaultID.
// The server filters by name; the first element of the result is used.
func (c *Client) ResolveEntry(ctx context.Context, token, vaultID, entryName string) (string, error) {
	c.diag.Debug("Attempting to get entry ID for entry: %s in vault: %s", entryName, vaultID)

	var resp struct {
		Data []Entry `json:"data"`
	}
	req := request{
		method: http.MethodGet,
		path:   vaultPath + "/" + url.PathEscape(vaultID) + "/entry",
		token:  token,
		query:  url.Values{"name": {entryName}},
		body:   map[string]string{"name": entryName},
	}
	ex, err := c.lookupExchange(ctx, "find entry", entryListSchema, req, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Data) == 0 || resp.Data[0].ID == "" {
		c.diag.Debug("Response data:\n%s", indentJSON(ex.Body))
		return "", &EntryNotFoundError{
			Entry:    entryName,
			VaultID:  vaultID,
			Exchange: ex,
		}
	}

	id := resp.Data[0].ID
	c.diag.Debug("Found entry ID: %s", id)
	return id, nil
}

// FetchPassword returns the password stored in the entry, unmodified.
func (c *Client) FetchPassword(ctx context.Context, token, vaultID, entryID string) (string, error) {
	c.diag.Debug("Attempting to get password for entry: %s in vault: %s", entryID, vaultID)

	var resp struct {
		Data struct {
			Password string `json:"password"`
		} `json:"data"`
	}
	if err := c.lookup(ctx, "fetch entry", entrySchema, request{
		method: http.MethodGet,
		path:   vaultPath + "/" + url.PathEscape(vaultID) + "/entry/" + url.PathEscape(entryID),
		token:  token,
		query:  url.Values{"includeSensitiveData": {"true"}},
		body:   map[string]bool{"includeSensitiveData": true},
	}, &resp); err != nil {
		return "", err
	}

	c.diag.Debug("Successfully retrieved password")
	return resp.Data.Password, nil
}

func (c *Client) lookup(ctx context.Context, op string, schema *gojsonschema.Schema, req request, out interface{}) error {
	_, err := c.lookupExchange(ctx, op, schema, req, out)
	return err
}

// lookupExchange performs an authenticated read, validates the body and decodes it into out.
func (c *Client) lookupExchange(ctx context.Context, op string, schema *gojsonschema.Schema, req request, out interface{}) (*Exchange, error) {
	ex, err := c.do(ctx, req)
	if err != nil {
		return ex, &LookupError{Op: op, Err: err, Exchange: ex}
	}

	if !ex.ok() {
		return ex, &LookupError{
			Op:         op,
			StatusCode: ex.StatusCode,
			Message:    ex.ServerMessage(),
			Exchange:   ex,
		}
	}

	if err := validateBody(schema, ex.Body); err != nil {
		return ex, &LookupError{Op: op, StatusCode: ex.StatusCode, Err: err, Exchange: ex}
	}

	if err := json.Unmarshal(ex.Body, out); err != nil {
		return ex, &LookupError{
			Op:         op,
			StatusCode: ex.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
			Exchange:   ex,
		}
	}

	return ex, nil
}

type request struct {
	method string
	path   string
	token  string
	query  url.Values
	body   interface{}
}

// do sends one request and records both sides of the exchange. The returned
// error covers only failures to build or send the request or read the reply;
// HTTP status is left to the caller.
func (c *Client) do(ctx context.Context, r request) (*Exchange, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	ex := &Exchange{
		Method: r.method,
		URL:    target,
		Query:  r.query,
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return ex, fmt.Errorf("failed to marshal request: %w", err)
		}
		ex.Payload = payload
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return ex, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set(HeaderToken, r.token)
	}
	if c.requestID != "" {
		req.Header.Set(HeaderRequestID, c.requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ex, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	ex.StatusCode = resp.StatusCode
	ex.StatusText = http.StatusText(resp.StatusCode)
	ex.Header = resp.Header

	ex.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ex, fmt.Errorf("failed to read response: %w", err)
	}

	return ex, nil
}
