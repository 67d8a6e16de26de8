// Package credstore persists the bearer credential issued at login. The
// token and the user snapshot that accompanies it are written and cleared as
// a single unit; no caller ever observes one without the other.
package credstore

import (
	"context"
	"errors"

	"github.com/vidvault/client/internal/models"
)

var (
	// ErrIncompleteCredential indicates an attempted write of a credential
	// that is missing its token or its user snapshot.
	ErrIncompleteCredential = errors.New("credential must carry both token and user snapshot")
)

// Credential pairs the bearer token with the profile snapshot issued
// alongside it.
type Credential struct {
	Token string             `json:"token"`
	User  models.UserProfile `json:"user"`
}

// Complete reports whether both halves of the credential are populated.
func (c Credential) Complete() bool {
	return c.Token != "" && c.User.ID != ""
}

// Store is the durable home of the current credential.
//
// Load treats any underlying read or decode failure as absence, so a
// corrupted store degrades to a logged-out state instead of an error the
// caller cannot act on. Save and Clear surface their failures: the caller
// decides whether to proceed without durable state.
type Store interface {
	Load(ctx context.Context) (Credential, bool)
	Save(ctx context.Context, cred Credential) error
	Clear(ctx context.Context) error
}
