// Package migrations embeds the SQL schema migrations for every supported database driver.
package migrations

import "embed"

// FS holds the migration files. Each driver has its own directory: postgres/ and sqlite/.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
