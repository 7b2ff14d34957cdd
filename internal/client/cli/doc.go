// Package cli provides the interactive voxkeeper command-line client.
//
// It wires configuration, the local session database, the account-service
// client and the session layer, then runs a REPL. On start it restores the
// previous session (startup signal) and afterwards refreshes the profile on
// a fixed interval (focus signal), so a network blip shows up as a "cached"
// prompt rather than a logout.
//
// Commands:
//   - signup / login / logout
//   - whoami, refresh
//   - generate [text]  (credit-consuming)
//   - metrics          (Prometheus text dump of the session counters)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
