package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"github.com/chainsafe/mobee-ledger/pkg/pgutil"
)

type testDao struct {
	bun.BaseModel `bun:"table:test_accounts"`
	ID            int64  `bun:",pk,autoincrement"`
	Address       string `bun:",notnull,type:varchar(42)"`
	Balance       string `bun:",type:numeric(78,0)"`
}

func TestModelIndexName(t *testing.T) {
	// no connection is opened to resolve table names
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	defer db.Close()

	name, err := ModelIndexName(db, &testDao{}, "address")
	if err != nil {
		t.Fatalf("ModelIndexName() failed: %v", err)
	}
	if name != "idx_test_accounts_address" {
		t.Errorf("Expected idx_test_accounts_address, got %s", name)
	}

	if _, err := ModelIndexName(db, nil, "address"); err == nil {
		t.Error("ModelIndexName() should fail for nil model")
	}
}

func TestRunMigrations_UnknownCommand(t *testing.T) {
	db := bun.NewDB(sql.OpenDB(pgdriver.NewConnector()), pgdialect.New())
	defer db.Close()
	migrator := migrate.NewMigrator(db, migrate.NewMigrations())

	if err := RunMigrations(context.Background(), migrator, zap.NewNop()); err == nil {
		t.Error("RunMigrations() should fail without a command")
	}
	if err := RunMigrations(context.Background(), migrator, zap.NewNop(), "sideways"); err == nil {
		t.Error("RunMigrations() should fail for an unknown command")
	}
}

func TestCreateAndDropSchema(t *testing.T) {
	db := pgutil.SetupTestDB(t)
	ctx := context.Background()

	if err := CreateSchema(ctx, db, &testDao{}); err != nil {
		t.Fatalf("CreateSchema() failed: %v", err)
	}
	pgutil.AssertTableExists(t, db, "test_accounts")

	// idempotent
	if err := CreateSchema(ctx, db, &testDao{}); err != nil {
		t.Fatalf("second CreateSchema() failed: %v", err)
	}

	if err := CreateModelIndexes(ctx, db, &testDao{}, "address"); err != nil {
		t.Fatalf("CreateModelIndexes() failed: %v", err)
	}
	pgutil.AssertIndexExists(t, db, "idx_test_accounts_address")

	if err := DropModelIndexes(ctx, db, &testDao{}, "address"); err != nil {
		t.Fatalf("DropModelIndexes() failed: %v", err)
	}

	if err := DropTables(ctx, db, &testDao{}); err != nil {
		t.Fatalf("DropTables() failed: %v", err)
	}
	pgutil.AssertTableNotExists(t, db, "test_accounts")
}
