package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/metrics"
	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/store"
	"github.com/sony/gobreaker"
)

// ProfileFetcher is the slice of client.Client the synchronizer needs.
type ProfileFetcher interface {
	Profile(ctx context.Context, credential string) (*models.Profile, error)
}

// SyncConfig bounds the remote profile fetch.
type SyncConfig struct {
	// FetchTimeout caps one fetch; zero means only the caller's context applies.
	FetchTimeout time.Duration

	// BreakerFailureThreshold consecutive transient failures open the breaker.
	// Zero disables the breaker.
	BreakerFailureThreshold uint32

	// BreakerOpenTimeout is how long the breaker stays open before probing.
	BreakerOpenTimeout time.Duration
}

// ProfileSynchronizer fetches the remote profile, classifies the outcome and
// decides whether the store is updated, preserved or cleared.
//
// The store is only ever written with compare-and-set calls keyed on the
// credential read at the start of the fetch, so an answer for a credential
// that was logged out or replaced meanwhile changes nothing.
type ProfileSynchronizer struct {
	fetcher ProfileFetcher
	store   store.CredentialStore
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
	deps
}

func NewProfileSynchronizer(fetcher ProfileFetcher, st store.CredentialStore, cfg SyncConfig, opts ...Option) *ProfileSynchronizer {
	s := &ProfileSynchronizer{
		fetcher: fetcher,
		store:   st,
		timeout: cfg.FetchTimeout,
		deps:    newDeps(opts),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "profile",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return cfg.BreakerFailureThreshold > 0 && counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		IsSuccessful: isAuthoritative,
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.log.Warn(context.Background(), "circuit breaker state changed",
				"component", name, "from", from.String(), "to", to.String())
			s.metrics.SetBreakerState(breakerStateValue(to))
		},
	})
	return s
}

// isAuthoritative reports whether err is a real answer from the server.
// Those do not count against the breaker.
func isAuthoritative(err error) bool {
	if err == nil {
		return true
	}
	apiErr, ok := client.AsAPIError(err)
	return ok && apiErr.StatusCode < 500
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

// Cached returns the local (credential, profile) pair without touching the
// network. A corrupt profile reads as no profile.
func (s *ProfileSynchronizer) Cached(ctx context.Context) (models.CacheEntry, error) {
	entry, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrCorruptProfile) {
			s.log.Warn(ctx, "ignoring unreadable cached profile", "error", err)
			return entry, nil
		}
		return models.CacheEntry{}, fmt.Errorf("load session: %w", err)
	}
	return entry, nil
}

// FetchProfile runs one synchronization. It never returns an error: every
// outcome, including local store failures, is one of the FetchResult variants.
func (s *ProfileSynchronizer) FetchProfile(ctx context.Context) FetchResult {
	res := s.fetchProfile(ctx)

	var reason Reason
	switch r := res.(type) {
	case CachedProfile:
		reason = r.Reason
	case NoCache:
		reason = r.Reason
	}
	s.metrics.ObserveSync(res.Kind(), string(reason))
	return res
}

func (s *ProfileSynchronizer) fetchProfile(ctx context.Context) FetchResult {
	entry, err := s.Cached(ctx)
	if err != nil {
		s.log.Error(ctx, "read credential store", "error", err)
		return NoCache{Reason: ReasonStoreError, Err: err}
	}
	if !entry.HasCredential() {
		return NoSession{}
	}

	profile, err := s.fetch(ctx, entry.Credential)
	if err == nil {
		written, werr := s.store.ReplaceProfile(ctx, entry.Credential, *profile)
		switch {
		case werr != nil:
			s.log.Error(ctx, "store fetched profile", "error", werr)
		case !written:
			s.log.Debug(ctx, "credential changed during fetch, profile not stored")
		}
		return FreshProfile{Profile: *profile}
	}

	rejected, reason := Classify(err)
	if rejected {
		apiErr, _ := client.AsAPIError(err)
		cleared, cerr := s.store.ClearIf(ctx, entry.Credential)
		switch {
		case cerr != nil:
			s.log.Error(ctx, "clear rejected credential", "error", cerr)
		case !cleared:
			s.log.Debug(ctx, "credential changed during fetch, rejection not applied")
		}
		s.log.Info(ctx, "credential rejected by server", "message", apiErr.Message)
		return Unauthorized{Message: apiErr.Message}
	}

	if entry.Profile != nil {
		s.log.Warn(ctx, "profile sync degraded, serving cache", "reason", reason, "error", err)
		return CachedProfile{
			Profile:  *entry.Profile,
			SyncedAt: entry.SyncedAt,
			Reason:   reason,
			Err:      err,
		}
	}

	s.log.Warn(ctx, "profile sync failed with nothing cached", "reason", reason, "error", err)
	return NoCache{Reason: reason, Err: err}
}

// fetch performs the bounded, breaker-guarded remote call.
func (s *ProfileSynchronizer) fetch(ctx context.Context, credential string) (*models.Profile, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.clock.Now()
	v, err := s.breaker.Execute(func() (interface{}, error) {
		return s.fetcher.Profile(ctx, credential)
	})
	s.metrics.ObserveFetch(s.clock.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", client.ErrUnavailable, err)
		}
		return nil, err
	}

	profile, ok := v.(*models.Profile)
	if !ok || profile == nil {
		return nil, fmt.Errorf("%w: empty profile", client.ErrMalformedResponse)
	}
	return profile, nil
}
