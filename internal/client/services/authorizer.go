package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
)

// Verdict is the outcome of a pre-flight credit check.
type Verdict string

const (
	VerdictPermit Verdict = "permit"
	VerdictDeny   Verdict = "deny"
	// VerdictUnknown means the balance could not be determined. Callers
	// proceed as with Permit; the action endpoint still enforces the balance.
	VerdictUnknown Verdict = "unknown"
)

// Deny reasons.
const (
	DenyInsufficientCredits = "insufficient-credits"
	DenyNotAuthenticated    = "not-authenticated"
)

// Decision is what ActionAuthorizer.Check concluded.
type Decision struct {
	Verdict Verdict
	Reason  string
	// Credits is the balance the decision was based on; valid when Known.
	Credits int64
	Known   bool
}

// Allowed reports whether the action may be attempted.
func (d Decision) Allowed() bool {
	return d.Verdict != VerdictDeny
}

// BalanceSource is the single path to the user's balance. Both
// ProfileSynchronizer and SessionController satisfy it.
type BalanceSource interface {
	Cached(ctx context.Context) (models.CacheEntry, error)
	FetchProfile(ctx context.Context) FetchResult
}

// ActionAuthorizer is an advisory gate in front of credit-consuming calls.
// It blocks only when the balance is known to be exhausted and lets the
// call through whenever the balance cannot be determined.
type ActionAuthorizer struct {
	source BalanceSource
	maxAge time.Duration
	deps
}

// NewActionAuthorizer returns an authorizer reading from source. A cached
// profile synced within maxAge decides locally; zero means the cache is
// always good enough.
//
// A check decided from the cache has no side effect. Without a usable cache
// Check calls source.FetchProfile once. With a SessionController as source
// that call is a session refresh: its result is applied to the session, and a
// server rejection logs the session out. With a ProfileSynchronizer as source
// only the store is updated, and the caller owns the session transition.
func NewActionAuthorizer(source BalanceSource, maxAge time.Duration, opts ...Option) *ActionAuthorizer {
	return &ActionAuthorizer{
		source: source,
		maxAge: maxAge,
		deps:   newDeps(opts),
	}
}

func (a *ActionAuthorizer) Check(ctx context.Context) Decision {
	d := a.check(ctx)
	a.metrics.ObserveDecision(string(d.Verdict))
	a.log.Debug(ctx, "pre-flight check",
		"verdict", d.Verdict, "reason", d.Reason, "credits", d.Credits, "known", d.Known)
	return d
}

func (a *ActionAuthorizer) check(ctx context.Context) Decision {
	entry, err := a.source.Cached(ctx)
	switch {
	case err != nil:
		a.log.Warn(ctx, "cached balance unreadable", "error", err)
	case !entry.HasCredential():
		return Decision{Verdict: VerdictDeny, Reason: DenyNotAuthenticated}
	case entry.Profile != nil && a.usable(entry.SyncedAt):
		return decide(entry.Profile.Credits)
	}

	switch r := a.source.FetchProfile(ctx).(type) {
	case FreshProfile:
		return decide(r.Profile.Credits)
	case CachedProfile:
		return decide(r.Profile.Credits)
	case Unauthorized, NoSession:
		return Decision{Verdict: VerdictDeny, Reason: DenyNotAuthenticated}
	default:
		return Decision{Verdict: VerdictUnknown}
	}
}

func (a *ActionAuthorizer) usable(syncedAt time.Time) bool {
	if a.maxAge <= 0 {
		return true
	}
	return !syncedAt.IsZero() && a.clock.Since(syncedAt) <= a.maxAge
}

func decide(credits int64) Decision {
	if credits <= 0 {
		return Decision{Verdict: VerdictDeny, Reason: DenyInsufficientCredits, Credits: credits, Known: true}
	}
	return Decision{Verdict: VerdictPermit, Credits: credits, Known: true}
}
