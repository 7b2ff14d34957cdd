package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/dmitrijs2005/voxkeeper/internal/netx"
	"github.com/google/uuid"
)

// envelope is the union of every response body the account service sends.
type envelope struct {
	Success          bool            `json:"success"`
	Message          string          `json:"message"`
	Errors           []FieldError    `json:"errors"`
	Token            string          `json:"token"`
	User             *models.Profile `json:"user"`
	AudioURL         string          `json:"audioUrl"`
	CreditsRemaining *int64          `json:"creditsRemaining"`
}

type HTTPClient struct {
	baseURL      string
	http         *http.Client
	maxBodySize  int64
	newRequestID func() string
}

var _ Client = (*HTTPClient)(nil)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// WithMaxBodySize bounds response bodies.
func WithMaxBodySize(n int64) Option {
	return func(c *HTTPClient) {
		c.maxBodySize = n
	}
}

// WithRequestIDFunc overrides X-Request-ID generation.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *HTTPClient) {
		c.newRequestID = fn
	}
}

// NewHTTPClient returns a client for the account service rooted at baseURL.
// Per-call deadlines come from the caller's context; the transport timeout
// is only a backstop.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:      strings.TrimRight(u.String(), "/"),
		http:         &http.Client{Timeout: 60 * time.Second},
		maxBodySize:  netx.DefaultMaxBodySize,
		newRequestID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *HTTPClient) Profile(ctx context.Context, credential string) (*models.Profile, error) {
	env, err := c.do(ctx, http.MethodGet, "/profile", credential, nil)
	if err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, fmt.Errorf("%w: profile response without user", ErrMalformedResponse)
	}
	return env.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/login", "", body)
	if err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	env, err := c.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, err
	}
	return authResult(env)
}

func (c *HTTPClient) GenerateSpeech(ctx context.Context, credential string, req SpeechRequest) (*SpeechResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/generate", credential, req)
	if err != nil {
		return nil, err
	}
	if env.AudioURL == "" {
		return nil, fmt.Errorf("%w: generate response without audioUrl", ErrMalformedResponse)
	}
	return &SpeechResult{AudioURL: env.AudioURL, CreditsRemaining: env.CreditsRemaining}, nil
}

func authResult(env *envelope) (*AuthResult, error) {
	if env.Token == "" || env.User == nil {
		return nil, fmt.Errorf("%w: auth response without token or user", ErrMalformedResponse)
	}
	return &AuthResult{Token: env.Token, User: *env.User}, nil
}

// do performs one call and sorts the outcome into transport failure
// (ErrUnavailable), server refusal (*APIError) or an undecodable success
// (ErrMalformedResponse).
func (c *HTTPClient) do(ctx context.Context, method, path, credential string, body any) (*envelope, error) {
	req, err := netx.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(common.RequestIDHeaderName, c.newRequestID())
	if credential != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+credential)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	raw, err := netx.ReadBody(resp, c.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if !ok {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !ok || !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Fields: env.Errors}
	}
	return &env, nil
}
