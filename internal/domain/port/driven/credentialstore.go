package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when a
// stored credential is encrypted but QABOX_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set QABOX_SECRET_KEY")

// CredentialStore defines the driven port for the single persisted console
// credential. It is a dumb slot: no structural or expiry validation happens
// here. Implementations must survive process restarts when persistent.
type CredentialStore interface {
	// Read returns the stored credential, or ("", nil) when none is stored.
	// Read has no side effects.
	Read(ctx context.Context) (string, error)

	// Write stores token, replacing any existing credential.
	Write(ctx context.Context, token string) error

	// Clear removes the credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
