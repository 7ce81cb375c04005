// Package db embeds the Postgres schema migrations.
package db

import "embed"

// Migrations holds the SQL files applied by "acgnctl db migrate" in builds
// tagged embed_migrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS
