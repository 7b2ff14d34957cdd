// Package client contains the voxkeeper side of the account service wire
// protocol and the local database bootstrap.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface): Profile,
//     Login, Signup and the credit-consuming GenerateSpeech.
//  2. An HTTP+JSON implementation (see HTTPClient) that sends the bearer
//     credential and an X-Request-ID, bounds response sizes and decodes the
//     {success, user|token|message|errors} envelope.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) that opens the
//     SQLite file and applies the embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable (the original cause, such as
// context.DeadlineExceeded, stays reachable through errors.Is). Responses the
// server produced but did not mark successful come back as *APIError with the
// status code and message untouched; this package never decides what a
// refusal means for the session. A success status with an unreadable body is
// ErrMalformedResponse.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All calls honor context cancellation
// and deadlines.
package client
