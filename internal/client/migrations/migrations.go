// Package migrations embeds the SQLite schema of the CLI state file.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
