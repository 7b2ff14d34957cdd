package store

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/jonboulle/clockwork"
)

// MemoryStore is a CredentialStore held in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	entry models.CacheEntry
	clock clockwork.Clock
}

var _ CredentialStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. A nil clock means the real clock.
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryStore{clock: clock}
}

func (s *MemoryStore) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Credential, nil
}

func (s *MemoryStore) CachedProfile(ctx context.Context) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Profile.Clone(), nil
}

func (s *MemoryStore) Load(ctx context.Context) (models.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entry
	e.Profile = e.Profile.Clone()
	return e, nil
}

func (s *MemoryStore) Set(ctx context.Context, credential string, profile models.Profile) error {
	if credential == "" {
		return ErrEmptyCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = models.CacheEntry{
		Credential: credential,
		Profile:    profile.Clone(),
		SyncedAt:   s.clock.Now(),
	}
	return nil
}

func (s *MemoryStore) ReplaceProfile(ctx context.Context, credential string, profile models.Profile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if credential == "" || s.entry.Credential != credential {
		return false, nil
	}
	s.entry.Profile = profile.Clone()
	s.entry.SyncedAt = s.clock.Now()
	return true, nil
}

func (s *MemoryStore) ClearIf(ctx context.Context, credential string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if credential == "" || s.entry.Credential != credential {
		return false, nil
	}
	s.entry = models.CacheEntry{}
	return true, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = models.CacheEntry{}
	return nil
}

func (s *MemoryStore) IsPresent(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entry.Credential != "", nil
}
