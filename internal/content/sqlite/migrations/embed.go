package migrations

import "embed"

// FS contains embedded SQLite migrations for game content.
//
//go:embed *.sql
var FS embed.FS
