// Package api implements the client side of the backend HTTP contract:
// typed session and catalog operations over a statically composed request
// pipeline. The package detects authorization failures but never reacts to
// them; ownership of the credential lies with the session manager.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vidvault/client/internal/credstore"
	"github.com/vidvault/client/internal/logging"
	"github.com/vidvault/client/internal/models"
)

const defaultTimeout = 10 * time.Second

// Client issues requests against the vidvault backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credstore.Store
}

// Options tunes client construction. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	RateLimit int
	RateBurst int
	// Transport replaces the base transport beneath the middleware chain.
	// Tests use it; production leaves it nil.
	Transport http.RoundTripper
}

// NewClient builds a Client whose every request flows through the same
// middleware chain: logging, request IDs, rate limiting, and bearer
// injection from the credential store. The chain is fixed here and cannot
// be mutated afterwards.
func NewClient(baseURL string, store credstore.Store, opts Options) (*Client, error) {
	if store == nil {
		return nil, fmt.Errorf("api: credential store must be provided")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", baseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := opts.RateLimit
	if limit <= 0 {
		limit = 10
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 5
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)

	transport := Chain(opts.Transport,
		RequestLogger(),
		RequestID(),
		RateLimit(limiter),
		BearerInjector(store),
	)

	return &Client{
		baseURL: strings.TrimRight(parsed.String(), "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		store: store,
	}, nil
}

// BaseURL exposes the configured endpoint for link construction.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// authFailureMode selects how a 401/403 response is reported.
type authFailureMode int

const (
	// reportUnauthorized tags the failure ErrUnauthorized: the session's
	// token is stale, invalid, or missing, and the session manager reacts.
	reportUnauthorized authFailureMode = iota
	// reportBadCredentials turns the failure into *AuthError: the request
	// itself carried credentials, so a rejection means they were wrong, not
	// that an existing session went stale.
	reportBadCredentials
)

// Signup registers a new account. Rejections arrive as *ValidationError
// with the backend's message intact.
func (c *Client) Signup(ctx context.Context, email, password string) (models.UserProfile, error) {
	var profile models.UserProfile
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	}, &profile, "signup", reportUnauthorized)
	return profile, err
}

// Login exchanges credentials for a bearer token and the profile snapshot
// issued with it. It does not persist anything; the session manager owns
// the credential store.
func (c *Client) Login(ctx context.Context, email, password string) (credstore.Credential, error) {
	var resp struct {
		AccessToken string             `json:"access_token"`
		User        models.UserProfile `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp, "login", reportBadCredentials); err != nil {
		return credstore.Credential{}, err
	}

	cred := credstore.Credential{Token: resp.AccessToken, User: resp.User}
	if !cred.Complete() {
		return credstore.Credential{}, &NetworkError{Op: "login", Err: fmt.Errorf("backend returned incomplete credential")}
	}
	return cred, nil
}

// FetchProfile validates the current token against the backend and returns
// the fresh profile snapshot.
func (c *Client) FetchProfile(ctx context.Context) (models.UserProfile, error) {
	var profile models.UserProfile
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &profile, "fetch profile", reportUnauthorized)
	return profile, err
}

// Logout tells the backend to revoke the current token. Callers treat it as
// best effort: local state clearing never waits on this succeeding.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil, "logout", reportUnauthorized)
}

// doJSON performs one request/response cycle: encode, send, classify,
// decode. The op string names the operation in errors and logs; mode
// decides whether a 401 means bad credentials or a stale session.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any, op string, mode authFailureMode) error {
	ctx, span := logging.StartSpan(ctx, op)
	defer span.End()
	ctx = logging.WithOperationID(ctx, op)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.classify(op, mode, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// classify maps an error response onto the taxonomy. An authorization
// failure is tagged regardless of what the payload says.
func (c *Client) classify(op string, mode authFailureMode, resp *http.Response) error {
	message := resp.Status
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if mode == reportBadCredentials {
			return &AuthError{Message: message}
		}
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode >= 500:
		return &NetworkError{Op: op, Err: fmt.Errorf("server error: %s", message)}
	default:
		return &ValidationError{Message: message}
	}
}
