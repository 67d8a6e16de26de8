package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vidvault/client/internal/models"
)

// fakeBackend implements the slice of the backend HTTP contract the client
// consumes, minting real HS256 tokens the way the production backend does.
type fakeBackend struct {
	mu      sync.Mutex
	secret  []byte
	users   map[string]fakeUser // keyed by email
	revoked map[string]bool
	videos  []models.Video

	failLogout    bool
	failTransport bool
	requests      []recordedRequest
}

type fakeUser struct {
	ID       string
	Email    string
	Name     string
	Password string
	Created  string
}

type recordedRequest struct {
	Method string
	Path   string
	Bearer string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		secret:  []byte("test-signing-secret"),
		users:   make(map[string]fakeUser),
		revoked: make(map[string]bool),
		videos: []models.Video{
			{ID: "v1", Title: "First", Description: "first video", ThumbnailURL: "https://cdn.example.com/t1.jpg", PlaybackToken: "tok1"},
			{ID: "v2", Title: "Second", Description: "second video", ThumbnailURL: "https://cdn.example.com/t2.jpg", PlaybackToken: "tok2"},
		},
	}
}

func (b *fakeBackend) start() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(b.handle))
}

func (b *fakeBackend) issueToken(userID string) string {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		panic(err)
	}
	return token
}

// authenticate returns the subject of a valid, unrevoked bearer token.
func (b *fakeBackend) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(header, "Bearer ")
	if b.revoked[raw] {
		return "", false
	}

	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return "", false
	}
	return sub, true
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Bearer: strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	})

	if b.failTransport {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
			}
		}
		return
	}

	switch r.URL.Path {
	case "/auth/signup":
		b.handleSignup(w, r)
	case "/auth/login":
		b.handleLogin(w, r)
	case "/auth/me":
		b.handleMe(w, r)
	case "/auth/logout":
		b.handleLogout(w, r)
	case "/dashboard":
		b.handleDashboard(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (b *fakeBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email and password are required"})
		return
	}
	if _, exists := b.users[req.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "User with this email already exists"})
		return
	}

	user := fakeUser{
		ID:       "user-" + req.Email,
		Email:    req.Email,
		Password: req.Password,
		Created:  "2025-01-02T03:04:05",
	}
	b.users[req.Email] = user

	writeJSON(w, http.StatusCreated, models.UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.Created,
	})
}

func (b *fakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request body is required"})
		return
	}

	user, ok := b.users[req.Email]
	if !ok || user.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid email or password"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": b.issueToken(user.ID),
		"user": models.UserProfile{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			CreatedAt: user.Created,
		},
	})
}

func (b *fakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token has expired"})
		return
	}
	for _, user := range b.users {
		if user.ID == userID {
			writeJSON(w, http.StatusOK, models.UserProfile{
				ID:        user.ID,
				Email:     user.Email,
				Name:      user.Name,
				CreatedAt: user.Created,
			})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
}

func (b *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if b.failLogout {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "logout unavailable"})
		return
	}
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if _, ok := b.authenticate(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing or invalid token"})
		return
	}
	b.revoked[raw] = true
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (b *fakeBackend) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := b.authenticate(r); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token has expired"})
		return
	}
	writeJSON(w, http.StatusOK, models.Dashboard{Videos: b.videos, Count: len(b.videos)})
}

func (b *fakeBackend) lastRequest() recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return recordedRequest{}
	}
	return b.requests[len(b.requests)-1]
}

func (b *fakeBackend) register(email, password string) fakeUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	user := fakeUser{
		ID:       "user-" + email,
		Email:    email,
		Password: password,
		Created:  "2025-01-02T03:04:05",
	}
	b.users[email] = user
	return user
}

func profileOf(user fakeUser) models.UserProfile {
	return models.UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.Created,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
