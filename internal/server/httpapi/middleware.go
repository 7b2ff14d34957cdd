package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/voxkeeper/internal/common"
	"github.com/dmitrijs2005/voxkeeper/internal/server/users"
	"github.com/gorilla/mux"
)

type ctxKey string

const userKey ctxKey = "user"

func userFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(userKey).(*users.User)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// requestLogger logs every request with the caller's X-Request-ID and counts
// it by route and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routeName(r)
		s.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", rec.status,
			"request_id", r.Header.Get(common.RequestIDHeaderName))
	})
}

// injectFaults applies SetLatency and InjectFailure before the real handler.
func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := s.faults.latency(); d > 0 {
			if err := s.faults.sleep(r.Context(), d); err != nil {
				return
			}
		}
		if status, ok := s.faults.take(); ok {
			writeFailure(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken resolves the bearer credential to an account. Bad or expired
// tokens get "Invalid token"; tokens of deleted accounts get "User not found".
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			writeFailure(w, http.StatusUnauthorized, "No token provided")
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, users.ErrUserNotFound) {
				writeFailure(w, http.StatusUnauthorized, common.MessageUserNotFound)
				return
			}
			writeFailure(w, http.StatusUnauthorized, common.MessageInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}
