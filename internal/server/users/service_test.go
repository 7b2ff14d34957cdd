package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/dmitrijs2005/voxkeeper/internal/server/auth"
	"github.com/dmitrijs2005/voxkeeper/internal/server/config"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *clockwork.FakeClock) {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
		InitialCredits:              3,
		PasswordHashCost:            bcrypt.MinCost,
	}
	clock := clockwork.NewFakeClockAt(time.Now())
	return NewService(NewMemoryRepository(), cfg, clock), clock
}

func TestService_SignupIssuesToken(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	sess, err := s.Signup(ctx, " Ann ", "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, "Ann", sess.User.Name)
	assert.EqualValues(t, 3, sess.User.Credits)
	assert.NotEqual(t, []byte("secret1"), sess.User.PasswordHash)

	u, err := s.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)
}

func TestService_SignupValidation(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.Signup(context.Background(), "", "not-an-email", "123")
	require.ErrorIs(t, err, common.ErrorValidation)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	fields := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"name", "email", "password"}, fields)
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.Signup(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	_, err = s.Signup(ctx, "Ann 2", "ANN@example.com", "secret2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	_, err := s.Signup(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	sess, err := s.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = s.Login(ctx, "ann@example.com", "wrong!")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "ann", "")
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestService_AuthenticateFailures(t *testing.T) {
	ctx := context.Background()
	s, clock := newTestService(t)
	sess, err := s.Signup(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = s.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, auth.ErrInvalidToken)

	require.NoError(t, s.Delete(ctx, sess.User.ID))
	_, err = s.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, ErrUserNotFound)

	sess, err = s.Signup(ctx, "Bob", "bob@example.com", "secret1")
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = s.Authenticate(ctx, sess.Token)
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestService_Charge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	sess, err := s.Signup(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	id := sess.User.ID

	u, err := s.Charge(ctx, id, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, u.Credits)

	require.NoError(t, s.SetCredits(ctx, id, 0))
	_, err = s.Charge(ctx, id, 1)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	u, err = s.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, u.Credits)

	_, err = s.Charge(ctx, "missing", 1)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, s.SetCredits(ctx, "missing", 1), ErrUserNotFound)
	require.ErrorIs(t, s.Delete(ctx, "missing"), ErrUserNotFound)
	_, err = s.GetByEmail(ctx, "missing@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ConcurrentChargesNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	sess, err := s.Signup(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Charge(ctx, sess.User.ID, 1); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	u, err := s.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.EqualValues(t, 0, u.Credits)
}
