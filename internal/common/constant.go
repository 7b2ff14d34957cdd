// Package common contains wire-level constants shared by the voxkeeper client
// and the mock account service.
package common

// AuthorizationHeaderName carries the bearer credential on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the opaque credential in the Authorization header.
const BearerPrefix = "Bearer "

// RequestIDHeaderName correlates a client call with server-side logs.
const RequestIDHeaderName = "X-Request-ID"

// Server-reported messages the client recognizes.
const (
	MessageInvalidToken        = "Invalid token"
	MessageUserNotFound        = "User not found"
	MessageInsufficientCredits = "Insufficient credits"
)

// RejectionMessages is the allow-list of server messages that, combined with a
// 401 or 403 status, invalidate the stored credential. Nothing else may.
var RejectionMessages = []string{
	MessageInvalidToken,
	MessageUserNotFound,
}

// IsRejectionMessage reports whether msg is one of RejectionMessages.
func IsRejectionMessage(msg string) bool {
	for _, m := range RejectionMessages {
		if m == msg {
			return true
		}
	}
	return false
}
