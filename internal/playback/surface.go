package playback

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/vidvault/client/internal/api"
	"github.com/vidvault/client/internal/logging"
)

// maxEmbedBody caps how much of the embed page the surface will read.
const maxEmbedBody = 1 << 20

// ErrForbiddenHost is returned when a link points anywhere other than the
// configured backend.
var ErrForbiddenHost = errors.New("playback link does not target the backend")

// Surface fetches the embed page for a playback link. It refuses to contact
// any host other than the configured backend, so a compromised or buggy link
// can never reach a raw media origin directly.
type Surface struct {
	httpClient *http.Client
	host       string
	scheme     string
}

// NewSurface returns a Surface pinned to the backend base URL. The supplied
// client performs the actual requests.
func NewSurface(baseURL string, httpClient *http.Client) (*Surface, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base URL %q must include scheme and host", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Surface{httpClient: httpClient, host: parsed.Host, scheme: parsed.Scheme}, nil
}

// NewRestrictedClient builds an HTTP client that refuses any destination
// other than the backend host, including after redirects. Use it as the
// Surface client outside tests.
func NewRestrictedClient(baseURL string, timeout time.Duration) (*http.Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("base URL %q has no host", baseURL)
	}
	builder := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedHosts(parsed.Hostname())
	if port := parsed.Port(); port != "" {
		// url.Parse already guarantees the port is numeric.
		n, _ := strconv.Atoi(port)
		builder = builder.SetAllowedPorts(n)
	}
	wrapped := safeurl.Client(builder.Build())
	return wrapped.Client, nil
}

// Load fetches the embed page for link and returns its body. Expired or
// revoked playback tokens surface as api.ErrUnauthorized; callers treat
// that like any other authorization failure and invalidate the session, so
// the next login issues fresh playback tokens with the dashboard.
func (s *Surface) Load(ctx context.Context, link Link) (string, error) {
	target, err := url.Parse(link.URL)
	if err != nil {
		return "", fmt.Errorf("parse playback link: %w", err)
	}
	if target.Host != s.host || target.Scheme != s.scheme {
		return "", fmt.Errorf("%w: host %q", ErrForbiddenHost, target.Host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build embed request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &api.NetworkError{Op: "playback", Err: err}
	}
	defer resp.Body.Close()

	logging.FromContext(ctx).Debug("loaded embed page",
		slog.String("path", target.Path),
		slog.Int("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("playback: %w", api.ErrUnauthorized)
	case resp.StatusCode >= 500:
		return "", &api.NetworkError{Op: "playback", Err: fmt.Errorf("backend returned %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("playback rejected with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEmbedBody))
	if err != nil {
		return "", &api.NetworkError{Op: "playback", Err: err}
	}
	return string(body), nil
}
