// Package ipinsight embeds resources shared by the binaries of the module.
package ipinsight

import "embed"

// Migrations holds the goose SQL migrations of the PostgreSQL storage driver.
//
//go:embed migrations/*.sql
var Migrations embed.FS
