// Package playback constructs and loads the one URL the playback surface is
// allowed to open: the backend's token-gated embed endpoint. No code path in
// this package can produce a direct media-source URL; malformed inputs still
// yield a backend-routed URL for the backend to reject.
package playback

import (
	"net/url"
	"strings"
)

// Link is the derived playback URL. It is recomputed per playback session
// and never persisted.
type Link struct {
	URL string
}

// Builder derives embed links from the configured backend endpoint. Build is
// a pure function: no I/O, no side effects, deterministic.
type Builder struct {
	base string
}

// NewBuilder returns a Builder rooted at the backend base URL.
func NewBuilder(baseURL string) Builder {
	return Builder{base: strings.TrimRight(baseURL, "/")}
}

// Build encodes the video identifier, its playback token, and the user
// identifier into the backend embed endpoint.
func (b Builder) Build(videoID, playbackToken, userID string) Link {
	return Link{
		URL: b.base + "/video/" + url.PathEscape(videoID) + "/embed" +
			"?token=" + queryEscape(playbackToken) +
			"&user_id=" + queryEscape(userID),
	}
}

// queryEscape percent-encodes a query value. Spaces become %20, matching the
// encoding the backend expects for playback tokens.
func queryEscape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
