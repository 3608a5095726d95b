// Package cli provides the interactive data portal terminal client.
//
// It runs against a services.Portal, either assembled over the local store
// or reached through the gRPC gateway when a server address is configured.
// On start the persisted session is restored; afterwards the REPL accepts
// commands to sign in, browse and filter work items, toggle their checkboxes
// and inspect the audit log.
//
// Checkbox toggles are applied to the local view first and rolled back when
// the service rejects them. Service errors are reported as a single line and
// never end the session.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
