package migrations

import "embed"

// FS holds the SQL migrations applied by clinicctl.
//
//go:embed *.sql
var FS embed.FS
