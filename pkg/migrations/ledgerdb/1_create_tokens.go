package ledgerdb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/mobee-ledger/pkg/ledgerstore"
	mghelper "github.com/chainsafe/mobee-ledger/pkg/pgutil/migrations"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &ledgerstore.TokenDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerstore.TokenDao{}, "creator")
	}, func(ctx context.Context, db *bun.DB) error {
		return mghelper.DropTables(ctx, db, &ledgerstore.TokenDao{})
	})
}
