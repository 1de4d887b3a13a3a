// Package migrations embeds the SQL migration files into the binary so a
// deployment never depends on files sitting next to the executable.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
