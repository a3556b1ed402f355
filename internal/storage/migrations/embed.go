package migrations

import "embed"

// FS embeds the SQL migration files applied by the SQLite storage layer.
//
//go:embed *.sql
var FS embed.FS
