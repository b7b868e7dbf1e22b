package ledgerdb

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/chainsafe/mobee-ledger/pkg/ledgerstore"
	mghelper "github.com/chainsafe/mobee-ledger/pkg/pgutil/migrations"
)

var eventIndexColumns = []string{"from_address", "to_address", "operation_id"}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.CreateSchema(ctx, db, &ledgerstore.EventDao{}); err != nil {
			return err
		}
		_, err := db.NewRaw(`ALTER TABLE ledger_events
			ADD CONSTRAINT fk_ledger_events_token
			FOREIGN KEY (token_address) REFERENCES tokens (address) ON DELETE CASCADE`).Exec(ctx)
		if err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &ledgerstore.EventDao{}, eventIndexColumns...)
	}, func(ctx context.Context, db *bun.DB) error {
		if err := mghelper.DropModelIndexes(ctx, db, &ledgerstore.EventDao{}, eventIndexColumns...); err != nil {
			return err
		}
		return mghelper.DropTables(ctx, db, &ledgerstore.EventDao{})
	})
}
