// Package migrations embeds the SQL schema so that the migrate command and
// the test containers apply the same files.
package migrations

import "embed"

// FS holds the golang-migrate up/down files.
//
//go:embed *.sql
var FS embed.FS
