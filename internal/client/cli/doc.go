// Package cli is the terminal client of the studio portal.
//
// An App wires the local state file, the API client, the auth service, the
// session store, the profile loader and the navigator. Commands are exposed
// through cobra (Execute) and through an interactive REPL, which is the
// default when no subcommand is given.
//
// Pages are "opened" rather than rendered: opening a path runs the same
// layout decision the web portal makes and prints the resulting shell,
// redirects included.
package cli
