// Package ledgerdb holds the migrations of the ledger journal database
package ledgerdb

import "github.com/uptrace/bun/migrate"

// Migrations is the registry the numbered migration files add themselves to
var Migrations = migrate.NewMigrations()
