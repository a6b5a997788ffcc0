// Package migrations embeds SQL migration files into the binary.
//
// The garage remote runs migrations without needing the SQL files present
// on the filesystem.
package migrations

import "embed"

// Dir is the directory within FS holding the migration files.
const Dir = "."

// FS holds every *.sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
