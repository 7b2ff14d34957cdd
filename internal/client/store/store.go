// Package store implements CredentialStore, the durable home of the opaque
// credential and the cached profile.
//
// # Contract
//
// The credential and the profile are written and cleared as a pair: once Set
// returns, no reader observes one without the other. Clear removes both and is
// idempotent. ReplaceProfile and ClearIf are compare-and-set variants keyed on
// the credential a caller read earlier; they let the profile synchronizer apply
// a server answer only while that credential is still the stored one.
//
// The store does no network access and never validates credential contents.
//
// # Implementations
//
//   - SQLiteStore: backed by the metadata table of the local SQLite file.
//   - MemoryStore: process-local, used by tests and ephemeral sessions.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
)

var (
	// ErrEmptyCredential is returned by Set when the credential is blank.
	ErrEmptyCredential = errors.New("empty credential")

	// ErrCorruptProfile is returned when the persisted profile cannot be decoded.
	ErrCorruptProfile = errors.New("corrupt cached profile")
)

// CredentialStore persists the (credential, profile) pair.
type CredentialStore interface {
	// Get returns the stored credential, or "" when there is none.
	Get(ctx context.Context) (string, error)

	// CachedProfile returns the cached profile, or nil when there is none.
	CachedProfile(ctx context.Context) (*models.Profile, error)

	// Load returns a consistent snapshot of both fields and the sync time.
	// When the profile cannot be decoded the entry still carries the
	// credential and the error wraps ErrCorruptProfile.
	Load(ctx context.Context) (models.CacheEntry, error)

	// Set atomically stores the pair and stamps the sync time.
	Set(ctx context.Context, credential string, profile models.Profile) error

	// ReplaceProfile stores profile only while credential is the stored one.
	// It reports whether the write happened.
	ReplaceProfile(ctx context.Context, credential string, profile models.Profile) (bool, error)

	// ClearIf clears the pair only while credential is the stored one.
	// It reports whether the clear happened.
	ClearIf(ctx context.Context, credential string) (bool, error)

	// Clear removes both fields.
	Clear(ctx context.Context) error

	// IsPresent reports whether a credential is stored.
	IsPresent(ctx context.Context) (bool, error)
}

func encodeProfile(p models.Profile) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return b, nil
}

func decodeProfile(b []byte) (*models.Profile, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var p models.Profile
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptProfile, err)
	}
	return &p, nil
}
