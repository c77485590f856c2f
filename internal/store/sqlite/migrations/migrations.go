// Package migrations embeds the SQLite schema steps, one goose file per
// schema version.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
