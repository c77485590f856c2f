// Package migrations embeds the PostgreSQL schema steps for the hosted
// backend. Versions match the SQLite backend one for one.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
