package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/dmitrijs2005/voxkeeper/internal/server/auth"
	"github.com/dmitrijs2005/voxkeeper/internal/server/config"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

const minPasswordLength = 6

// FieldError is one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rejected field of a signup or login request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return common.ErrorValidation
}

// Session is a freshly issued token and the account it belongs to.
type Session struct {
	Token string
	User  *User
}

type Service struct {
	repo           Repository
	jwtSecret      []byte
	tokenValidity  time.Duration
	initialCredits int64
	hashCost       int
	clock          clockwork.Clock
}

func NewService(repo Repository, cfg *config.Config, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		repo:           repo,
		jwtSecret:      []byte(cfg.SecretKey),
		tokenValidity:  cfg.AccessTokenValidityDuration,
		initialCredits: cfg.InitialCredits,
		hashCost:       cfg.PasswordHashCost,
		clock:          clock,
	}
}

func validateEmail(email string, fields []FieldError) []FieldError {
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return append(fields, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	return fields
}

func (s *Service) Signup(ctx context.Context, name, email, password string) (*Session, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)

	var fields []FieldError
	if name == "" {
		fields = append(fields, FieldError{Field: "name", Message: "is required"})
	}
	fields = validateEmail(email, fields)
	if len(password) < minPasswordLength {
		fields = append(fields, FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLength)})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, &User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now().UTC(),
		Credits:      s.initialCredits,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	fields := validateEmail(email, nil)
	if password == "" {
		fields = append(fields, FieldError{Field: "password", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *Service) issue(user *User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its account. It returns
// auth.ErrInvalidToken or auth.ErrTokenExpired for bad tokens and
// ErrUserNotFound when the account was deleted after the token was issued.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	userID, err := auth.GetUserIDFromTokenAt(token, s.jwtSecret, s.clock.Now())
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Charge deducts cost credits, refusing to go below zero.
func (s *Service) Charge(ctx context.Context, userID string, cost int64) (*User, error) {
	return s.update(ctx, userID, func(u *User) error {
		if u.Credits < cost {
			return ErrInsufficientCredits
		}
		u.Credits -= cost
		return nil
	})
}

// SetCredits overwrites the balance.
func (s *Service) SetCredits(ctx context.Context, userID string, credits int64) error {
	_, err := s.update(ctx, userID, func(u *User) error {
		u.Credits = credits
		return nil
	})
	return err
}

// Delete removes the account; its outstanding tokens then resolve to
// ErrUserNotFound.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// GetByEmail looks an account up for admin tooling.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *Service) update(ctx context.Context, userID string, fn func(u *User) error) (*User, error) {
	u, err := s.repo.Update(ctx, userID, fn)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}
