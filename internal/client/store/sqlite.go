package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/voxkeeper/internal/dbx"
	"github.com/jonboulle/clockwork"
)

const (
	keyCredential = "credential"
	keyProfile    = "profile"
	keySyncedAt   = "synced_at"
)

// SQLiteStore is a CredentialStore over the metadata table. Every operation
// that touches more than one key runs in a single transaction.
type SQLiteStore struct {
	db    *sql.DB
	clock clockwork.Clock

	// serialises compare-and-set sequences inside this process
	mu sync.Mutex
}

var _ CredentialStore = (*SQLiteStore)(nil)

// NewSQLiteStore binds a store to a migrated database. A nil clock means the
// real clock.
func NewSQLiteStore(db *sql.DB, clock clockwork.Clock) *SQLiteStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLiteStore{db: db, clock: clock}
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, keyCredential)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *SQLiteStore) CachedProfile(ctx context.Context) (*models.Profile, error) {
	v, err := metadata.NewSQLiteRepository(s.db).Get(ctx, keyProfile)
	if err != nil {
		return nil, err
	}
	return decodeProfile(v)
}

func (s *SQLiteStore) Load(ctx context.Context) (models.CacheEntry, error) {
	var (
		entry   models.CacheEntry
		rawProf []byte
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)

		cred, err := repo.Get(ctx, keyCredential)
		if err != nil {
			return err
		}
		entry.Credential = string(cred)

		if rawProf, err = repo.Get(ctx, keyProfile); err != nil {
			return err
		}

		syncedAt, err := repo.Get(ctx, keySyncedAt)
		if err != nil {
			return err
		}
		if len(syncedAt) > 0 {
			t, err := time.Parse(time.RFC3339Nano, string(syncedAt))
			if err != nil {
				return fmt.Errorf("parse %s: %w", keySyncedAt, err)
			}
			entry.SyncedAt = t
		}
		return nil
	})
	if err != nil {
		return models.CacheEntry{}, err
	}

	// A corrupt profile still yields the credential so callers can decide
	// what an unusable cache means for them.
	entry.Profile, err = decodeProfile(rawProf)
	if err != nil {
		entry.SyncedAt = time.Time{}
		return entry, err
	}
	return entry, nil
}

func (s *SQLiteStore) Set(ctx context.Context, credential string, profile models.Profile) error {
	if credential == "" {
		return ErrEmptyCredential
	}
	raw, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyCredential, []byte(credential)); err != nil {
			return err
		}
		return s.writeProfile(ctx, repo, raw)
	})
}

func (s *SQLiteStore) ReplaceProfile(ctx context.Context, credential string, profile models.Profile) (bool, error) {
	if credential == "" {
		return false, nil
	}
	raw, err := encodeProfile(profile)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var written bool
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		cur, err := repo.Get(ctx, keyCredential)
		if err != nil {
			return err
		}
		if string(cur) != credential {
			return nil
		}
		if err := s.writeProfile(ctx, repo, raw); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func (s *SQLiteStore) ClearIf(ctx context.Context, credential string) (bool, error) {
	if credential == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cleared bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		cur, err := repo.Get(ctx, keyCredential)
		if err != nil {
			return err
		}
		if string(cur) != credential {
			return nil
		}
		if err := repo.Delete(ctx, keyCredential, keyProfile, keySyncedAt); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return cleared, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, keyCredential, keyProfile, keySyncedAt)
	})
}

func (s *SQLiteStore) IsPresent(ctx context.Context) (bool, error) {
	cred, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return cred != "", nil
}

func (s *SQLiteStore) writeProfile(ctx context.Context, repo metadata.Repository, raw []byte) error {
	if err := repo.Set(ctx, keyProfile, raw); err != nil {
		return err
	}
	return repo.Set(ctx, keySyncedAt, []byte(s.clock.Now().UTC().Format(time.RFC3339Nano)))
}
