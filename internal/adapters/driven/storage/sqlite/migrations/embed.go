// Package migrations embeds the metadata store's SQL migration files.
package migrations

import "embed"

// FS holds the *.sql migration files, applied in version order at
// startup.
//
//go:embed *.sql
var FS embed.FS
