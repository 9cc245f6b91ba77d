// Package cli provides the interactive hubauth command-line client.
//
// It wires configuration, the local session store, the API client and the
// auth service behind a small REPL. The panels of the sign-in flow (login,
// register, verify, forgot, reset and the account menu) are rendered as
// text by a terminal view that follows the panel sequencer.
//
// On start the stored session is restored, the server is checked once, and
// a background watcher keeps the online/offline mode current. Each command
// runs under its own context, so Ctrl-C cancels the request in flight.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
