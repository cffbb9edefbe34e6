// Package migrations embeds the goose SQL migrations of the registry schema.
package migrations

import "embed"

// Dir is the root of FS holding the migration files.
const Dir = "."

//go:embed *.sql
var FS embed.FS
