// Package migrations embeds the schema of the local audit and idempotency tables.
package migrations

import "embed"

// Files holds the ordered SQL migrations.
//
//go:embed *.sql
var Files embed.FS
