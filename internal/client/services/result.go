package services

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/client/client"
	"github.com/dmitrijs2005/voxkeeper/internal/client/models"
	"github.com/dmitrijs2005/voxkeeper/internal/common"
)

// Reason tags a non-authoritative failure.
type Reason string

const (
	ReasonNetworkError Reason = "network-error"
	ReasonServerError  Reason = "server-error"
	// ReasonStoreError marks a NoCache caused by the local store itself.
	ReasonStoreError Reason = "store-error"
)

// FetchResult is the closed set of profile fetch outcomes:
// FreshProfile, CachedProfile, Unauthorized, NoSession and NoCache.
type FetchResult interface {
	// Kind is a stable label for logs and metrics.
	Kind() string
	fetchResult()
}

// FreshProfile: the server confirmed the credential. The store holds Profile.
type FreshProfile struct {
	Profile models.Profile
}

// CachedProfile: the server could not give an authoritative answer and the
// previously cached profile is served unchanged.
type CachedProfile struct {
	Profile  models.Profile
	SyncedAt time.Time
	Reason   Reason
	Err      error
}

// Unauthorized: the server explicitly rejected the credential. The store has
// been cleared.
type Unauthorized struct {
	Message string
}

// NoSession: no credential is stored, nothing was sent.
type NoSession struct{}

// NoCache: a transient failure with nothing cached to fall back to.
type NoCache struct {
	Reason Reason
	Err    error
}

func (FreshProfile) Kind() string  { return "fresh" }
func (CachedProfile) Kind() string { return "cached" }
func (Unauthorized) Kind() string  { return "unauthorized" }
func (NoSession) Kind() string     { return "no-session" }
func (NoCache) Kind() string       { return "no-cache" }

func (FreshProfile) fetchResult()  {}
func (CachedProfile) fetchResult() {}
func (Unauthorized) fetchResult()  {}
func (NoSession) fetchResult()     {}
func (NoCache) fetchResult()       {}

// Classify sorts a failed profile fetch. Only a 401/403 carrying one of
// common.RejectionMessages is a rejection; any other server answer is a
// server-error and everything else a network-error.
func Classify(err error) (rejected bool, reason Reason) {
	if apiErr, ok := client.AsAPIError(err); ok {
		if isRejectionStatus(apiErr.StatusCode) && common.IsRejectionMessage(apiErr.Message) {
			return true, ""
		}
		return false, ReasonServerError
	}
	if errors.Is(err, client.ErrMalformedResponse) {
		return false, ReasonServerError
	}
	return false, ReasonNetworkError
}

func isRejectionStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
