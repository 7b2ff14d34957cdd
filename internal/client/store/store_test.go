package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func sampleProfile(credits int64) models.Profile {
	return models.Profile{
		ID:        "u1",
		Name:      "Ann",
		Email:     "ann@example.com",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Credits:   credits,
	}
}

// implementations runs every contract test against both stores.
func implementations(t *testing.T) map[string]func(clock clockwork.Clock) CredentialStore {
	return map[string]func(clock clockwork.Clock) CredentialStore{
		"memory": func(clock clockwork.Clock) CredentialStore { return NewMemoryStore(clock) },
		"sqlite": func(clock clockwork.Clock) CredentialStore { return NewSQLiteStore(setupDB(t), clock) },
	}
}

func TestStore_EmptyByDefault(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(clockwork.NewFakeClockAt(fixedNow))
			ctx := context.Background()

			cred, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Empty(t, cred)

			p, err := s.CachedProfile(ctx)
			require.NoError(t, err)
			assert.Nil(t, p)

			ok, err := s.IsPresent(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			e, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.CacheEntry{}, e)
		})
	}
}

func TestStore_SetStoresPairAndStampsTime(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(clockwork.NewFakeClockAt(fixedNow))
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "abc", sampleProfile(3)))

			cred, err := s.Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc", cred)

			p, err := s.CachedProfile(ctx)
			require.NoError(t, err)
			require.NotNil(t, p)
			assert.EqualValues(t, 3, p.Credits)
			assert.True(t, p.CreatedAt.Equal(sampleProfile(3).CreatedAt))

			e, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc", e.Credential)
			require.NotNil(t, e.Profile)
			assert.Equal(t, "ann@example.com", e.Profile.Email)
			assert.True(t, e.SyncedAt.Equal(fixedNow), "got %v", e.SyncedAt)

			ok, err := s.IsPresent(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_SetRejectsEmptyCredential(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(nil)
			err := s.Set(context.Background(), "", sampleProfile(1))
			require.ErrorIs(t, err, ErrEmptyCredential)
		})
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(nil)
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "abc", sampleProfile(3)))

			for i := 0; i < 2; i++ {
				require.NoError(t, s.Clear(ctx))

				ok, err := s.IsPresent(ctx)
				require.NoError(t, err)
				assert.False(t, ok)

				p, err := s.CachedProfile(ctx)
				require.NoError(t, err)
				assert.Nil(t, p)
			}
		})
	}
}

func TestStore_ReplaceProfile_OnlyForCurrentCredential(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			clock := clockwork.NewFakeClockAt(fixedNow)
			s := mk(clock)
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "abc", sampleProfile(3)))

			clock.Advance(time.Minute)

			ok, err := s.ReplaceProfile(ctx, "other", sampleProfile(99))
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.ReplaceProfile(ctx, "abc", sampleProfile(5))
			require.NoError(t, err)
			assert.True(t, ok)

			e, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "abc", e.Credential)
			assert.EqualValues(t, 5, e.Profile.Credits)
			assert.True(t, e.SyncedAt.Equal(fixedNow.Add(time.Minute)))
		})
	}
}

func TestStore_ReplaceProfile_AfterClearDoesNotResurrect(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(nil)
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "abc", sampleProfile(3)))
			require.NoError(t, s.Clear(ctx))

			ok, err := s.ReplaceProfile(ctx, "abc", sampleProfile(5))
			require.NoError(t, err)
			assert.False(t, ok)

			present, err := s.IsPresent(ctx)
			require.NoError(t, err)
			assert.False(t, present)

			ok, err = s.ReplaceProfile(ctx, "", sampleProfile(5))
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_ClearIf(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(nil)
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, "new", sampleProfile(3)))

			ok, err := s.ClearIf(ctx, "old")
			require.NoError(t, err)
			assert.False(t, ok, "must not wipe a newer login")

			present, err := s.IsPresent(ctx)
			require.NoError(t, err)
			assert.True(t, present)

			ok, err = s.ClearIf(ctx, "new")
			require.NoError(t, err)
			assert.True(t, ok)

			e, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, models.CacheEntry{}, e)
		})
	}
}

func TestStore_ConcurrentReadersSeeWholePairs(t *testing.T) {
	for name, mk := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			s := mk(nil)
			ctx := context.Background()

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					if i%2 == 0 {
						_ = s.Set(ctx, "abc", sampleProfile(int64(i)))
					} else {
						_ = s.Clear(ctx)
					}
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					e, err := s.Load(ctx)
					if err != nil {
						continue
					}
					assert.Equal(t, e.Credential != "", e.Profile != nil, "torn read: %+v", e)
				}
			}()
			wg.Wait()
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "abc", sampleProfile(3)))

	p, err := s.CachedProfile(ctx)
	require.NoError(t, err)
	p.Credits = 0

	again, err := s.CachedProfile(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, again.Credits)
}

func TestSQLiteStore_CorruptProfile(t *testing.T) {
	db := setupDB(t)
	s := NewSQLiteStore(db, nil)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata(key, value) VALUES ('credential', 'abc'), ('profile', '{not json')`)
	require.NoError(t, err)

	_, err = s.CachedProfile(ctx)
	require.ErrorIs(t, err, ErrCorruptProfile)

	entry, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrCorruptProfile)
	assert.Equal(t, "abc", entry.Credential)
	assert.Nil(t, entry.Profile)

	cred, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", cred)
}

func TestSQLiteStore_SetRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO metadata").WithArgs("credential", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO metadata").WithArgs("profile", sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	s := NewSQLiteStore(db, nil)
	err = s.Set(context.Background(), "abc", sampleProfile(1))
	require.ErrorContains(t, err, "failed to set metadata[profile]")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ClearRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM metadata").WithArgs("credential").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM metadata").WithArgs("profile").
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	s := NewSQLiteStore(db, nil)
	err = s.Clear(context.Background())
	require.ErrorContains(t, err, "failed to delete metadata[profile]")
	require.NoError(t, mock.ExpectationsWereMet())
}
