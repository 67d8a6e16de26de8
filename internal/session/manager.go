// Package session owns the client's authentication state. All transitions
// flow through the Manager; nothing else writes the credential store, and no
// other component holds session state of its own.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/vidvault/client/internal/api"
	"github.com/vidvault/client/internal/credstore"
	"github.com/vidvault/client/internal/logging"
	"github.com/vidvault/client/internal/models"
)

// Status enumerates the session lifecycle. Unknown and Restoring are
// transient: once left they are never re-entered within one process.
type Status int

const (
	// StatusUnknown is the initial state before Restore has run.
	StatusUnknown Status = iota
	// StatusRestoring is the transient state while stored credentials are
	// reconciled against the backend.
	StatusRestoring
	// StatusAuthenticated means a validated credential is live.
	StatusAuthenticated
	// StatusUnauthenticated means no usable session exists.
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusRestoring:
		return "restoring"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// Snapshot is an immutable view of the session at one instant. Err carries
// the failure that produced an unauthenticated state, which is how a
// network-failure restore stays distinguishable from an explicit rejection.
type Snapshot struct {
	Status  Status
	Profile models.UserProfile
	Err     error
}

// Client captures the API operations the manager drives.
type Client interface {
	Login(ctx context.Context, email, password string) (credstore.Credential, error)
	FetchProfile(ctx context.Context) (models.UserProfile, error)
	Logout(ctx context.Context) error
}

// Listener observes session transitions. Listeners are invoked after the
// transition is committed, outside the manager's lock.
type Listener func(Snapshot)

// Manager is the session state machine.
type Manager struct {
	mu      sync.Mutex
	status  Status
	profile models.UserProfile
	lastErr error
	// generation counts credential clears. Restore captures it before its
	// validation call and refuses to commit if it moved, so a clear that
	// lands while the token is in flight can never be overwritten.
	generation uint64
	client     Client
	store      credstore.Store
	listeners  []Listener
}

// NewManager constructs a Manager in the Unknown state.
func NewManager(client Client, store credstore.Store) *Manager {
	if client == nil {
		panic("session: client must not be nil")
	}
	if store == nil {
		panic("session: credential store must not be nil")
	}
	return &Manager{
		status: StatusUnknown,
		client: client,
		store:  store,
	}
}

// Subscribe registers a listener for subsequent transitions.
func (m *Manager) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Snapshot returns the current session view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, Profile: m.profile, Err: m.lastErr}
}

// Restore reconciles local state with backend truth on cold start. It runs
// once per process: a present token is validated via the profile endpoint,
// an explicit rejection clears the store, and a transport failure leaves the
// stored credential untouched so a later start can try again.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.status != StatusUnknown {
		snap := Snapshot{Status: m.status, Profile: m.profile, Err: m.lastErr}
		m.mu.Unlock()
		return snap
	}
	m.status = StatusRestoring
	gen := m.generation
	m.mu.Unlock()

	logger := logging.FromContext(ctx)

	cred, ok := m.store.Load(ctx)
	if !ok {
		logger.Info("no stored credential, starting unauthenticated")
		return m.transition(StatusUnauthenticated, models.UserProfile{}, nil)
	}

	profile, err := m.client.FetchProfile(ctx)
	switch {
	case err == nil:
		// Token confirmed valid. The snapshot is refreshed wholesale while
		// the original token is retained unchanged. The store write and the
		// state commit happen under the lock so no clear can interleave.
		refreshed := credstore.Credential{Token: cred.Token, User: profile}

		m.mu.Lock()
		_, still := m.store.Load(ctx)
		if m.generation != gen || !still {
			// A clear won while the token was in flight. The validated
			// response must not resurrect the cleared credential or clobber
			// the transition that cleared it.
			stillRestoring := m.status == StatusRestoring
			snap := Snapshot{Status: m.status, Profile: m.profile, Err: m.lastErr}
			m.mu.Unlock()
			logger.Info("credential cleared during restore, staying unauthenticated")
			if stillRestoring {
				return m.transition(StatusUnauthenticated, models.UserProfile{}, nil)
			}
			return snap
		}
		if saveErr := m.store.Save(ctx, refreshed); saveErr != nil {
			logger.Warn("could not refresh stored credential", "error", saveErr)
		}
		m.status = StatusAuthenticated
		m.profile = profile
		m.lastErr = nil
		listeners := append([]Listener(nil), m.listeners...)
		snap := Snapshot{Status: m.status, Profile: m.profile}
		m.mu.Unlock()

		logger.Info("session restored", "user_id", profile.ID)
		for _, fn := range listeners {
			fn(snap)
		}
		return snap

	case errors.Is(err, api.ErrUnauthorized):
		// The backend rejected the token outright. Only this family of
		// failure destroys the credential.
		if clearErr := m.clearCredential(ctx); clearErr != nil {
			logger.Error("could not clear rejected credential", "error", clearErr)
		}
		logger.Info("stored credential rejected, cleared")
		return m.transition(StatusUnauthenticated, models.UserProfile{}, err)

	default:
		// Transport failure: session validity is unknown, so the stored
		// credential survives for the next start.
		logger.Warn("session restore inconclusive, keeping credential", "error", err)
		return m.transition(StatusUnauthenticated, models.UserProfile{}, err)
	}
}

// Login authenticates and persists the issued credential. A persistence
// failure is logged but does not abort the session: the credential stays
// live in memory for this process.
func (m *Manager) Login(ctx context.Context, email, password string) (models.UserProfile, error) {
	cred, err := m.client.Login(ctx, email, password)
	if err != nil {
		return models.UserProfile{}, err
	}

	if saveErr := m.store.Save(ctx, cred); saveErr != nil {
		logging.FromContext(ctx).Warn("credential not persisted, session is memory-only", "error", saveErr)
	}

	m.transition(StatusAuthenticated, cred.User, nil)
	return cred.User, nil
}

// Logout ends the session. The backend revocation call runs while the
// credential is still available to the transport, but it is best effort: its
// failure is swallowed and the local clear happens unconditionally.
func (m *Manager) Logout(ctx context.Context) {
	logger := logging.FromContext(ctx)

	if err := m.client.Logout(ctx); err != nil {
		logger.Warn("backend logout failed, clearing local session anyway", "error", err)
	}

	if err := m.clearCredential(ctx); err != nil {
		logger.Error("could not clear credential store on logout", "error", err)
	}
	m.transition(StatusUnauthenticated, models.UserProfile{}, nil)
}

// Invalidate reacts to an authorization failure observed anywhere in the
// client. The first caller clears the store and flips the state; concurrent
// and subsequent callers are no-ops, so the store is cleared exactly once
// per authenticated session.
func (m *Manager) Invalidate(ctx context.Context, cause error) {
	m.mu.Lock()
	if m.status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	m.status = StatusUnauthenticated
	m.profile = models.UserProfile{}
	m.lastErr = cause
	m.generation++
	clearErr := m.store.Clear(ctx)
	listeners := append([]Listener(nil), m.listeners...)
	snap := Snapshot{Status: m.status, Err: m.lastErr}
	m.mu.Unlock()

	if clearErr != nil {
		logging.FromContext(ctx).Error("could not clear invalidated credential", "error", clearErr)
	}
	logging.FromContext(ctx).Info("session invalidated", "cause", cause)

	for _, fn := range listeners {
		fn(snap)
	}
}

// HandleError routes an operation error into the state machine: an
// authorization failure invalidates the session, anything else is left for
// the caller to surface or retry.
func (m *Manager) HandleError(ctx context.Context, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		m.Invalidate(ctx, err)
	}
}

// clearCredential removes the stored credential under the lock, bumping the
// generation so an in-flight restore cannot re-save what was cleared.
func (m *Manager) clearCredential(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	err := m.store.Clear(ctx)
	m.mu.Unlock()
	return err
}

// transition commits a state change and notifies listeners outside the lock.
func (m *Manager) transition(status Status, profile models.UserProfile, cause error) Snapshot {
	m.mu.Lock()
	m.status = status
	m.profile = profile
	m.lastErr = cause
	listeners := append([]Listener(nil), m.listeners...)
	snap := Snapshot{Status: m.status, Profile: m.profile, Err: m.lastErr}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return snap
}
