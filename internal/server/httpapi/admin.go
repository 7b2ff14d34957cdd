package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type faults struct {
	mu        sync.Mutex
	status    int
	remaining int
	delay     time.Duration
	clock     clockwork.Clock
}

func (f *faults) take() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.remaining <= 0 {
		return 0, false
	}
	f.remaining--
	return f.status, true
}

func (f *faults) latency() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.delay
}

func (f *faults) sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	clock := f.clock
	f.mu.Unlock()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	select {
	case <-clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InjectFailure makes the next count public requests answer status with a
// generic message, before authentication runs.
func (s *Server) InjectFailure(status, count int) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.status = status
	s.faults.remaining = count
}

// SetLatency delays every public request by d. Zero removes the delay.
func (s *Server) SetLatency(d time.Duration) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.delay = d
}

// SetClock replaces the clock SetLatency waits on.
func (s *Server) SetClock(c clockwork.Clock) {
	s.faults.mu.Lock()
	defer s.faults.mu.Unlock()
	s.faults.clock = c
}

// DeleteUser removes the account registered under email. Tokens already
// issued to it start failing with "User not found".
func (s *Server) DeleteUser(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, u.ID)
}

// SetCredits overwrites the balance of the account registered under email.
func (s *Server) SetCredits(ctx context.Context, email string, credits int64) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.users.SetCredits(ctx, u.ID, credits)
}
