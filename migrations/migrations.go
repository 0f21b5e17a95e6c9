// Package migrations embeds the SQL schema so the migrate command and tests do not
// depend on the working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
