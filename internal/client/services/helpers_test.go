package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/client/store"
	"github.com/stretchr/testify/require"
)

// ---- fixtures ----

func testProfile(credits int64) models.Profile {
	return models.Profile{
		ID:        "u-1",
		Name:      "Ann",
		Email:     "ann@example.com",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Credits:   credits,
	}
}

func seedStore(t *testing.T, st store.CredentialStore, credential string, credits int64) {
	t.Helper()
	require.NoError(t, st.Set(context.Background(), credential, testProfile(credits)))
}

func unauthorized() error {
	return &client.APIError{StatusCode: 401, Message: "Invalid token"}
}

func unavailable() error {
	return client.ErrUnavailable
}

// ---- fake client ----

// fakeClient implements client.Client for unit tests and records the last
// call of each kind.
type fakeClient struct {
	mu sync.Mutex

	ProfileRet   *models.Profile
	ProfileErr   error
	ProfileCalls int
	// ProfileFn, when set, replaces ProfileRet/ProfileErr.
	ProfileFn             func(ctx context.Context, credential string) (*models.Profile, error)
	LastProfileCredential string

	LoginRet          *client.AuthResult
	LoginErr          error
	LastLoginEmail    string
	LastLoginPassword string

	SignupRet      *client.AuthResult
	SignupErr      error
	LastSignupName string

	GenerateRet            *client.SpeechResult
	GenerateErr            error
	GenerateCalls          int
	LastGenerateCredential string
	LastGenerateRequest    client.SpeechRequest
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) Profile(ctx context.Context, credential string) (*models.Profile, error) {
	f.mu.Lock()
	f.ProfileCalls++
	f.LastProfileCredential = credential
	fn, ret, err := f.ProfileFn, f.ProfileRet, f.ProfileErr
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, credential)
	}
	return ret.Clone(), err
}

func (f *fakeClient) profileCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ProfileCalls
}

func (f *fakeClient) Login(ctx context.Context, email, password string) (*client.AuthResult, error) {
	f.LastLoginEmail = email
	f.LastLoginPassword = password
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) Signup(ctx context.Context, name, email, password string) (*client.AuthResult, error) {
	f.LastSignupName = name
	return f.SignupRet, f.SignupErr
}

func (f *fakeClient) GenerateSpeech(ctx context.Context, credential string, req client.SpeechRequest) (*client.SpeechResult, error) {
	f.GenerateCalls++
	f.LastGenerateCredential = credential
	f.LastGenerateRequest = req
	return f.GenerateRet, f.GenerateErr
}

// ---- gated fetcher ----

// pendingFetch is one Profile call held until the test answers it.
type pendingFetch struct {
	credential string
	reply      chan fetchReply
}

type fetchReply struct {
	profile *models.Profile
	err     error
}

func (p *pendingFetch) respond(profile *models.Profile, err error) {
	p.reply <- fetchReply{profile: profile, err: err}
}

// gatedFetcher parks every Profile call until the test responds to it, so
// tests control the order in which in-flight fetches complete.
type gatedFetcher struct {
	calls chan *pendingFetch
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *pendingFetch, 16)}
}

func (g *gatedFetcher) Profile(ctx context.Context, credential string) (*models.Profile, error) {
	p := &pendingFetch{credential: credential, reply: make(chan fetchReply, 1)}
	g.calls <- p
	select {
	case r := <-p.reply:
		return r.profile, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// next waits for the next parked call.
func (g *gatedFetcher) next(t *testing.T) *pendingFetch {
	t.Helper()
	select {
	case p := <-g.calls:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a profile fetch")
		return nil
	}
}

// noBreaker keeps tests independent of failure streaks.
var noBreaker = SyncConfig{}
