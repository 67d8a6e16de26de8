package api_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidvault/client/internal/api"
	"github.com/vidvault/client/internal/credstore"
)

func newTestClient(t *testing.T, backend *fakeBackend, store credstore.Store) *api.Client {
	t.Helper()

	srv := backend.start()
	t.Cleanup(srv.Close)

	if store == nil {
		store = credstore.NewInMemoryStore()
	}

	client, err := api.NewClient(srv.URL, store, api.Options{})
	require.NoError(t, err)
	return client
}

func TestSignupReturnsProfile(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(t, backend, nil)

	profile, err := client.Signup(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "user-a@x.com", profile.ID)
	assert.Equal(t, "a@x.com", profile.Email)
}

func TestSignupDuplicateIsValidationError(t *testing.T) {
	backend := newFakeBackend()
	backend.register("a@x.com", "pw1")
	client := newTestClient(t, backend, nil)

	_, err := client.Signup(context.Background(), "a@x.com", "pw2")

	var vErr *api.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "User with this email already exists", vErr.Message)
}

func TestLoginReturnsCompleteCredential(t *testing.T) {
	backend := newFakeBackend()
	backend.register("a@x.com", "pw1")
	client := newTestClient(t, backend, nil)

	cred, err := client.Login(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	assert.True(t, cred.Complete())
	assert.Equal(t, "user-a@x.com", cred.User.ID)
	assert.NotEmpty(t, cred.Token)
}

func TestLoginBadPasswordIsAuthError(t *testing.T) {
	backend := newFakeBackend()
	backend.register("a@x.com", "pw1")
	client := newTestClient(t, backend, nil)

	_, err := client.Login(context.Background(), "a@x.com", "wrong")

	var aErr *api.AuthError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, "Invalid email or password", aErr.Message)
	assert.False(t, errors.Is(err, api.ErrUnauthorized), "login rejection is not a session invalidation signal")
}

func TestFetchProfileInjectsStoredBearer(t *testing.T) {
	backend := newFakeBackend()
	user := backend.register("a@x.com", "pw1")
	token := backend.issueToken(user.ID)

	store := credstore.NewInMemoryStore()
	client := newTestClient(t, backend, store)
	require.NoError(t, store.Save(context.Background(), credstore.Credential{
		Token: token,
		User:  profileOf(user),
	}))

	profile, err := client.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.ID)
	assert.Equal(t, token, backend.lastRequest().Bearer, "stored token must be injected verbatim")
}

func TestFetchProfileStaleTokenIsUnauthorized(t *testing.T) {
	backend := newFakeBackend()
	store := credstore.NewInMemoryStore()
	client := newTestClient(t, backend, store)

	user := backend.register("a@x.com", "pw1")
	require.NoError(t, store.Save(context.Background(), credstore.Credential{
		Token: "stale-garbage",
		User:  profileOf(user),
	}))

	_, err := client.FetchProfile(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestFetchProfileWithoutCredentialSendsNoHeader(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(t, backend, nil)

	_, err := client.FetchProfile(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Empty(t, backend.lastRequest().Bearer)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	backend := newFakeBackend()
	backend.failTransport = true
	client := newTestClient(t, backend, nil)

	_, err := client.FetchProfile(context.Background())

	var nErr *api.NetworkError
	require.ErrorAs(t, err, &nErr)
	assert.False(t, errors.Is(err, api.ErrUnauthorized))
	assert.True(t, api.IsRetryable(err))
}

func TestCanceledContextAbortsRequest(t *testing.T) {
	backend := newFakeBackend()
	client := newTestClient(t, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchProfile(ctx)

	var nErr *api.NetworkError
	require.ErrorAs(t, err, &nErr)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLogoutRevokesToken(t *testing.T) {
	backend := newFakeBackend()
	user := backend.register("a@x.com", "pw1")
	token := backend.issueToken(user.ID)

	store := credstore.NewInMemoryStore()
	client := newTestClient(t, backend, store)
	require.NoError(t, store.Save(context.Background(), credstore.Credential{
		Token: token,
		User:  profileOf(user),
	}))

	require.NoError(t, client.Logout(context.Background()))

	_, err := client.FetchProfile(context.Background())
	require.ErrorIs(t, err, api.ErrUnauthorized, "revoked token must stop authenticating")
}

func TestNewClientRejectsBadInputs(t *testing.T) {
	store := credstore.NewInMemoryStore()

	_, err := api.NewClient("not a url", store, api.Options{})
	assert.Error(t, err)

	_, err = api.NewClient("http://localhost:5000", nil, api.Options{})
	assert.Error(t, err)
}
