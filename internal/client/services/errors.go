package services

import "errors"

var (
	// ErrNoCache means the profile could not be fetched and nothing was cached
	// to fall back to. The caller should ask the user to retry or log in.
	ErrNoCache = errors.New("profile unavailable and nothing cached")

	// ErrInsufficientCredits is the user-visible refusal of a paid action,
	// whether decided locally or by the server.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrNotAuthenticated is returned when a paid action is attempted without
	// a session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnknownSignal is returned by SessionController.Handle.
	ErrUnknownSignal = errors.New("unknown signal")
)
