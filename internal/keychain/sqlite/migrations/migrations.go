// Package migrations embeds the keychain schema migration files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
