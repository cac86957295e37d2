// Package cli provides the interactive reportdesk command-line client.
//
// It wires configuration, the local session database, the backend adapter
// and the facade services, then runs a REPL. Commands that need a signed-in
// user go through the session guard; a denied command prints where the
// user should go instead (normally the login location).
//
// Commands:
//   - register, login, logout, whoami, admin
//   - profile, earnings, reports, report, upload <file>, campaigns
//   - approve
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
