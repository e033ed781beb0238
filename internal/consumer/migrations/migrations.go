// Package migrations embeds the SQL migrations for the canonical metadata
// store. They are applied with goose at consumer startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
