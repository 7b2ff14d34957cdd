// Package services contains the client's session and authorization layer:
// profile synchronization, the session state machine, the pre-flight credit
// gate, and the login and speech services the CLI drives.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Signup: create an account on the server and start a session with it.
//   - Login: exchange email/password for a credential and start a session.
//   - Logout: end the session locally; never fails because of the network.
//
// Server-side validation failures come back as *client.APIError with field
// errors. All methods honor context cancellation.
type AuthService interface {
	Signup(ctx context.Context, name, email string, password []byte) (*models.Profile, error)
	Login(ctx context.Context, email string, password []byte) (*models.Profile, error)
	Logout(ctx context.Context) error
}

// authenticator is the slice of client.Client used for the login exchange.
type authenticator interface {
	Login(ctx context.Context, email, password string) (*client.AuthResult, error)
	Signup(ctx context.Context, name, email, password string) (*client.AuthResult, error)
}

type authService struct {
	client  authenticator
	session *SessionController
}

// NewAuthService binds the login exchange to a session controller.
func NewAuthService(c authenticator, session *SessionController) AuthService {
	return &authService{client: c, session: session}
}

func (a *authService) Signup(ctx context.Context, name, email string, password []byte) (*models.Profile, error) {
	res, err := a.client.Signup(ctx, strings.TrimSpace(name), strings.TrimSpace(email), string(password))
	if err != nil {
		return nil, fmt.Errorf("signup error: %w", err)
	}
	return a.start(ctx, res)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.Profile, error) {
	res, err := a.client.Login(ctx, strings.TrimSpace(email), string(password))
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	return a.start(ctx, res)
}

func (a *authService) start(ctx context.Context, res *client.AuthResult) (*models.Profile, error) {
	if err := a.session.Login(ctx, res.Token, res.User); err != nil {
		return nil, err
	}
	return res.User.Clone(), nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}
