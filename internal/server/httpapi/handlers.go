package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/dmitrijs2005/voxkeeper/internal/netx"
	"github.com/dmitrijs2005/voxkeeper/internal/server/users"
	"github.com/google/uuid"
)

// generateCost is what one POST /generate charges.
const generateCost = 1

const maxRequestBody = 64 << 10

type profileDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	IsPremium bool      `json:"isPremium"`
	Credits   int64     `json:"credits"`
}

func toProfile(u *users.User) *profileDTO {
	return &profileDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		IsPremium: u.IsPremium,
		Credits:   u.Credits,
	}
}

type fieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type failureResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  []fieldErrorDTO `json:"errors,omitempty"`
}

type authResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    *profileDTO `json:"user"`
}

type profileResponse struct {
	Success bool        `json:"success"`
	User    *profileDTO `json:"user"`
}

type generateResponse struct {
	Success          bool   `json:"success"`
	AudioURL         string `json:"audioUrl"`
	CreditsRemaining int64  `json:"creditsRemaining"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type generateRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	netx.WriteJSON(w, status, failureResponse{Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		writeFailure(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// writeServiceError maps users.Service errors onto the wire envelope.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *users.ValidationError
	switch {
	case errors.As(err, &vErr):
		resp := failureResponse{Message: "Validation failed"}
		for _, f := range vErr.Fields {
			resp.Errors = append(resp.Errors, fieldErrorDTO{Field: f.Field, Message: f.Message})
		}
		netx.WriteJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, users.ErrEmailTaken):
		writeFailure(w, http.StatusConflict, "Email already registered")
	case errors.Is(err, users.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, users.ErrUserNotFound):
		writeFailure(w, http.StatusUnauthorized, common.MessageUserNotFound)
	case errors.Is(err, users.ErrInsufficientCredits):
		writeFailure(w, http.StatusPaymentRequired, common.MessageInsufficientCredits)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.users.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", sess.User.ID)
	netx.WriteJSON(w, http.StatusCreated, authResponse{Success: true, Token: sess.Token, User: toProfile(sess.User)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	netx.WriteJSON(w, http.StatusOK, authResponse{Success: true, Token: sess.Token, User: toProfile(sess.User)})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	netx.WriteJSON(w, http.StatusOK, profileResponse{Success: true, User: toProfile(user)})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.writeServiceError(w, r, &users.ValidationError{Fields: []users.FieldError{{Field: "text", Message: "is required"}}})
		return
	}

	user := userFromContext(r.Context())
	charged, err := s.users.Charge(r.Context(), user.ID, generateCost)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	netx.WriteJSON(w, http.StatusOK, generateResponse{
		Success:          true,
		AudioURL:         "/audio/" + uuid.NewString() + ".mp3",
		CreditsRemaining: charged.Credits,
	})
}
