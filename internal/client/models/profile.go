// Package models holds the client-side data model: the cached account
// profile and the persisted credential/profile pair.
package models

import "time"

// Profile is the cached representation of the authenticated account.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	IsPremium bool      `json:"isPremium"`
	Credits   int64     `json:"credits"`
}

// Clone returns a copy that shares no memory with p. A nil p yields nil.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// HasCredits reports whether the balance allows a credit-consuming action.
func (p Profile) HasCredits() bool {
	return p.Credits > 0
}

// Provenance tells a reader where returned session data came from.
type Provenance string

const (
	// ProvenanceFresh: just confirmed by the server.
	ProvenanceFresh Provenance = "fresh"
	// ProvenanceCached: served from the local cache after a non-authoritative failure.
	ProvenanceCached Provenance = "cached"
	// ProvenanceAbsent: no session.
	ProvenanceAbsent Provenance = "absent"
)

// CacheEntry is the persisted (credential, profile) pair. SyncedAt is the
// moment the profile was last written, zero when no profile is cached.
type CacheEntry struct {
	Credential string
	Profile    *Profile
	SyncedAt   time.Time
}

// HasCredential reports whether a credential is stored.
func (e CacheEntry) HasCredential() bool {
	return e.Credential != ""
}
