package ledgerstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

// unique_violation
const pgUniqueViolation = "23505"

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the journal store
func NewStore(db *bun.DB) Store {
	return &pgStore{db: db}
}

func (s *pgStore) CreateToken(ctx context.Context, token *Token, opID uuid.UUID, mint ledger.Event) error {
	if !mint.IsMint() || mint.Seq != 0 {
		return fmt.Errorf("token %s: seq %d is not the construction mint", token.Address.Hex(), mint.Seq)
	}
	dao, err := toEventDao(token.Address, opID, mint)
	if err != nil {
		return fmt.Errorf("failed to encode mint: %w", err)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(toTokenDao(token)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrTokenExists, token.Address.Hex())
			}
			return fmt.Errorf("failed to save token: %w", err)
		}
		return insertEvents(ctx, tx, []*EventDao{dao})
	})
}

func (s *pgStore) GetToken(ctx context.Context, address common.Address) (*Token, error) {
	dao := new(TokenDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("address = ?", address.Hex()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return toToken(dao)
}

func (s *pgStore) AppendEvents(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error {
	if len(events) == 0 {
		return nil
	}

	daos := make([]*EventDao, 0, len(events))
	for _, ev := range events {
		dao, err := toEventDao(token, opID, ev)
		if err != nil {
			return fmt.Errorf("failed to encode event %d: %w", ev.Seq, err)
		}
		daos = append(daos, dao)
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*TokenDao)(nil)).
			Where("address = ?", token.Hex()).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check token: %w", err)
		}
		if !exists {
			return ErrTokenNotFound
		}

		return insertEvents(ctx, tx, daos)
	})
}

// insertEvents skips rows whose seq is already stored. A ledger never
// reuses a seq, so such a row is a retry of a write that committed.
func insertEvents(ctx context.Context, tx bun.Tx, daos []*EventDao) error {
	_, err := tx.NewInsert().
		Model(&daos).
		On("CONFLICT (token_address, seq) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append events: %w", err)
	}
	return nil
}

func (s *pgStore) ListEvents(ctx context.Context, token common.Address, fromSeq uint64) ([]ledger.Event, error) {
	var daos []*EventDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("token_address = ?", token.Hex()).
		Where("seq >= ?", int64(fromSeq)).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]ledger.Event, 0, len(daos))
	for _, dao := range daos {
		ev, err := toEvent(dao)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == pgUniqueViolation
}
