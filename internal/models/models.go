package models

// UserProfile is an immutable snapshot of the account as the backend last
// reported it. Snapshots are replaced wholesale on re-fetch, never patched
// field by field.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	// CreatedAt is the server-formatted timestamp, passed through verbatim.
	CreatedAt string `json:"created_at"`
}

// Video is one tile of the server-authoritative dashboard catalog. The
// playback token is single-purpose: it belongs to exactly one video for one
// playback session and must never be logged or persisted.
type Video struct {
	ID            string `json:"video_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	ThumbnailURL  string `json:"thumbnail_url"`
	PlaybackToken string `json:"playback_token"`
}

// Dashboard is the catalog response in exactly the order the backend sent it.
type Dashboard struct {
	Videos []Video `json:"videos"`
	Count  int     `json:"count"`
}
