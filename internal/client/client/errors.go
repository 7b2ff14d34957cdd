package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/voxkeeper/internal/common"
)

var (
	// ErrUnavailable wraps transport failures: refused connections, resets,
	// timeouts and cancelled contexts.
	ErrUnavailable = errors.New("server unavailable")

	// ErrMalformedResponse is returned when a 2xx body is not the expected envelope.
	ErrMalformedResponse = errors.New("malformed response")
)

// FieldError is one validation complaint from signup or login.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a response the server produced but did not mark successful.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *APIError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "api error %d", e.StatusCode)
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		fmt.Fprintf(&sb, "; %s: %s", f.Field, f.Message)
	}
	return sb.String()
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsInsufficientCredits reports whether the server refused an action for lack
// of credits.
func IsInsufficientCredits(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Message == common.MessageInsufficientCredits
}
