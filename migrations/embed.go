// Package migrations embeds the SQL schema for the local store and the sync server.
package migrations

import "embed"

// FS holds one directory per database: local, server_sqlite, server_postgres.
//
//go:embed local/*.sql server_sqlite/*.sql server_postgres/*.sql
var FS embed.FS
