package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/store"
)

// SpeechService runs credit-consuming generation requests behind the
// pre-flight check.
type SpeechService interface {
	Generate(ctx context.Context, req client.SpeechRequest) (*client.SpeechResult, error)
}

// speechGenerator is the slice of client.Client used for paid actions.
type speechGenerator interface {
	GenerateSpeech(ctx context.Context, credential string, req client.SpeechRequest) (*client.SpeechResult, error)
}

type speechService struct {
	client     speechGenerator
	store      store.CredentialStore
	authorizer *ActionAuthorizer
	session    *SessionController
	deps
}

func NewSpeechService(c speechGenerator, st store.CredentialStore, authorizer *ActionAuthorizer, session *SessionController, opts ...Option) SpeechService {
	return &speechService{
		client:     c,
		store:      st,
		authorizer: authorizer,
		session:    session,
		deps:       newDeps(opts),
	}
}

// Generate checks the balance, performs the request and then refreshes the
// session so the cached balance reflects the charge. A refusal for lack of
// credits is ErrInsufficientCredits whether it was decided here or remotely.
func (s *speechService) Generate(ctx context.Context, req client.SpeechRequest) (*client.SpeechResult, error) {
	d := s.authorizer.Check(ctx)
	if d.Verdict == VerdictDeny {
		switch d.Reason {
		case DenyInsufficientCredits:
			return nil, ErrInsufficientCredits
		default:
			return nil, ErrNotAuthenticated
		}
	}
	if d.Verdict == VerdictUnknown {
		s.log.Warn(ctx, "balance unknown, relying on server enforcement")
	}

	credential, err := s.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credential: %w", err)
	}
	if credential == "" {
		return nil, ErrNotAuthenticated
	}

	res, err := s.client.GenerateSpeech(ctx, credential, req)
	if err != nil {
		if client.IsInsufficientCredits(err) {
			s.refresh(ctx)
			return nil, ErrInsufficientCredits
		}
		return nil, fmt.Errorf("generate speech: %w", err)
	}

	s.refresh(ctx)
	return res, nil
}

// refresh is best effort; a failure leaves the previous balance cached.
func (s *speechService) refresh(ctx context.Context) {
	if s.session == nil {
		return
	}
	if err := s.session.Refresh(ctx); err != nil {
		s.log.Warn(ctx, "post-action refresh failed", "error", err)
	}
}
