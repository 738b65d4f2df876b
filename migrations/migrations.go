// Package migrations embeds the sqlite schema applied at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
