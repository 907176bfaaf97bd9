// Package migrations embeds the goose SQL migrations that define the
// mirrored-entity tables and the mutation queue.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
