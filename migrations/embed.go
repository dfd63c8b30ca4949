// Package migrations embeds the SQL schema files so the migration runner
// needs no files on disk.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
