package client

import (
	"context"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
)

// Client is the transport-agnostic contract with the remote account service.
type Client interface {
	// Profile fetches the account behind credential.
	Profile(ctx context.Context, credential string) (*models.Profile, error)

	// Login exchanges email/password for a credential and the account profile.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Signup creates an account and returns its first credential.
	Signup(ctx context.Context, name, email, password string) (*AuthResult, error)

	// GenerateSpeech runs a credit-consuming synthesis request.
	GenerateSpeech(ctx context.Context, credential string, req SpeechRequest) (*SpeechResult, error)
}

// AuthResult is a successful login or signup exchange.
type AuthResult struct {
	Token string
	User  models.Profile
}

// SpeechRequest describes one paid generation.
type SpeechRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// SpeechResult is the outcome of a successful generation.
type SpeechResult struct {
	AudioURL string
	// CreditsRemaining is set when the server reports the post-charge balance.
	CreditsRemaining *int64
}
