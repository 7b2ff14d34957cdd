package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/store"
)

// State is the SessionController lifecycle position.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateHydrating       State = "hydrating"
	StateAuthenticated   State = "authenticated"
)

// Signal is an inbound trigger from the host application.
type Signal int

const (
	// SignalStartup is delivered once when the application starts.
	SignalStartup Signal = iota
	// SignalFocus is delivered whenever the user comes back to the application.
	SignalFocus
)

func (s Signal) String() string {
	switch s {
	case SignalStartup:
		return "startup"
	case SignalFocus:
		return "focus"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Snapshot is a copy of the session state at one moment.
type Snapshot struct {
	State      State
	Profile    *models.Profile
	Provenance models.Provenance
	// Reason is set when Provenance is cached.
	Reason    Reason
	IsLoading bool
	Epoch     uint64
}

// IsAuthenticated is true whenever a profile is held, stale or not.
func (s Snapshot) IsAuthenticated() bool {
	return s.Profile != nil
}

// Synchronizer is what the controller needs from ProfileSynchronizer.
type Synchronizer interface {
	Cached(ctx context.Context) (models.CacheEntry, error)
	FetchProfile(ctx context.Context) FetchResult
}

// SessionController is the session state machine:
//
//	Unauthenticated -> Hydrating -> Authenticated -> Unauthenticated
//
// Every hydrate or refresh remembers the epoch it started in and applies its
// result only if the epoch is unchanged. Login, Logout, and an applied
// Unauthorized or NoSession each start a new epoch, so a fetch that was in
// flight across one of them cannot resurrect or overwrite the session.
// Among results of the current epoch the last to complete wins.
//
// Login and Logout hold life exclusively across their store write and epoch
// bump. Hydrate and refresh hold it shared while capturing their epoch, so a
// fetch never pairs the new epoch with a credential that is being replaced.
type SessionController struct {
	store store.CredentialStore
	sync  Synchronizer
	deps

	life sync.RWMutex

	mu         sync.Mutex
	state      State
	profile    *models.Profile
	provenance models.Provenance
	reason     Reason
	inflight   int
	epoch      uint64

	subMu   sync.Mutex
	nextSub int
	subs    map[int]func(Snapshot)
}

func NewSessionController(st store.CredentialStore, syncer Synchronizer, opts ...Option) *SessionController {
	return &SessionController{
		store:      st,
		sync:       syncer,
		deps:       newDeps(opts),
		state:      StateUnauthenticated,
		provenance: models.ProvenanceAbsent,
		subs:       make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state.
func (c *SessionController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *SessionController) snapshotLocked() Snapshot {
	return Snapshot{
		State:      c.state,
		Profile:    c.profile.Clone(),
		Provenance: c.provenance,
		Reason:     c.reason,
		IsLoading:  c.inflight > 0,
		Epoch:      c.epoch,
	}
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. fn runs on the goroutine that made the
// change and must not call back into the controller synchronously.
func (c *SessionController) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *SessionController) notify(s Snapshot) {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Handle dispatches an inbound signal.
func (c *SessionController) Handle(ctx context.Context, sig Signal) error {
	c.log.Debug(ctx, "session signal", "signal", sig.String())
	switch sig {
	case SignalStartup:
		return c.Hydrate(ctx)
	case SignalFocus:
		return c.Refresh(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSignal, sig)
	}
}

// Hydrate restores the session from the store at startup. The cached profile
// is exposed immediately, then confirmed against the server. It returns
// ErrNoCache when nothing could be confirmed or served from cache.
func (c *SessionController) Hydrate(ctx context.Context) error {
	c.life.RLock()
	entry, err := c.sync.Cached(ctx)
	if err != nil {
		c.life.RUnlock()
		return err
	}

	c.mu.Lock()
	if !entry.HasCredential() {
		c.resetLocked()
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.life.RUnlock()
		c.notify(snap)
		return nil
	}

	c.state = StateHydrating
	c.profile = entry.Profile.Clone()
	c.reason = ""
	if c.profile != nil {
		c.provenance = models.ProvenanceCached
	} else {
		c.provenance = models.ProvenanceAbsent
	}
	c.inflight++
	epoch := c.epoch
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.life.RUnlock()
	c.notify(snap)

	_, err = c.apply(ctx, epoch, c.sync.FetchProfile(ctx))
	return err
}

// Refresh re-runs the profile fetch. Safe to call repeatedly and
// concurrently. It returns ErrNoCache when nothing could be confirmed or
// served from cache.
func (c *SessionController) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx)
	return err
}

// FetchProfile is Refresh that hands back the raw result instead of an error.
// It lets the ActionAuthorizer read the balance through the controller so the
// session stays in step with what the authorizer saw.
func (c *SessionController) FetchProfile(ctx context.Context) FetchResult {
	res, _ := c.refresh(ctx)
	return res
}

func (c *SessionController) refresh(ctx context.Context) (FetchResult, error) {
	c.life.RLock()
	c.mu.Lock()
	c.inflight++
	epoch := c.epoch
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.life.RUnlock()
	c.notify(snap)

	return c.apply(ctx, epoch, c.sync.FetchProfile(ctx))
}

// Cached is the synchronizer's local read.
func (c *SessionController) Cached(ctx context.Context) (models.CacheEntry, error) {
	return c.sync.Cached(ctx)
}

// Login records a completed login exchange. No network call is made.
func (c *SessionController) Login(ctx context.Context, credential string, profile models.Profile) error {
	c.life.Lock()
	if err := c.store.Set(ctx, credential, profile); err != nil {
		c.life.Unlock()
		return fmt.Errorf("store session: %w", err)
	}

	c.mu.Lock()
	c.epoch++
	c.state = StateAuthenticated
	c.profile = profile.Clone()
	c.provenance = models.ProvenanceFresh
	c.reason = ""
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.life.Unlock()

	c.log.Info(ctx, "logged in", "user", profile.Email)
	c.notify(snap)
	return nil
}

// Logout ends the session unconditionally. The in-memory transition happens
// before the store is cleared and is not undone if clearing fails. Calling it
// again is harmless.
func (c *SessionController) Logout(ctx context.Context) error {
	c.life.Lock()
	c.mu.Lock()
	c.resetLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	err := c.store.Clear(ctx)
	c.life.Unlock()
	c.notify(snap)

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.log.Info(ctx, "logged out")
	return nil
}

// resetLocked moves to Unauthenticated and starts a new epoch.
func (c *SessionController) resetLocked() {
	c.epoch++
	c.state = StateUnauthenticated
	c.profile = nil
	c.provenance = models.ProvenanceAbsent
	c.reason = ""
}

func (c *SessionController) apply(ctx context.Context, epoch uint64, res FetchResult) (FetchResult, error) {
	c.mu.Lock()
	c.inflight--

	if epoch != c.epoch {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.metrics.ObserveStale()
		c.log.Debug(ctx, "discarding stale profile result",
			"result", res.Kind(), "started", epoch, "current", snap.Epoch)
		c.notify(snap)
		return res, nil
	}

	var err error
	switch r := res.(type) {
	case FreshProfile:
		c.state = StateAuthenticated
		c.profile = r.Profile.Clone()
		c.provenance = models.ProvenanceFresh
		c.reason = ""
	case CachedProfile:
		c.state = StateAuthenticated
		c.profile = r.Profile.Clone()
		c.provenance = models.ProvenanceCached
		c.reason = r.Reason
	case Unauthorized, NoSession:
		c.resetLocked()
	case NoCache:
		// The credential stays; only a server rejection may drop it.
		if c.state == StateHydrating {
			c.state = StateUnauthenticated
			c.profile = nil
			c.provenance = models.ProvenanceAbsent
		}
		c.reason = r.Reason
		err = noCacheError(r)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return res, err
}

func noCacheError(r NoCache) error {
	if r.Err == nil {
		return fmt.Errorf("%w: %s", ErrNoCache, r.Reason)
	}
	return fmt.Errorf("%w: %s: %w", ErrNoCache, r.Reason, r.Err)
}
