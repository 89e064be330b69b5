// Package migrations embeds the loot template schema migrations.
package migrations

import "embed"

// FS holds every *.sql migration, named for golang-migrate.
//
//go:embed *.sql
var FS embed.FS
