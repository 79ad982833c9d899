package budget

import "embed"

// Migrations holds the goose migration set for the budget ledger schema,
// embedded so cmd/controller can run them against a fresh database without
// a separate migration step in the deploy pipeline.
//
//go:embed migrations/*.sql
var Migrations embed.FS
