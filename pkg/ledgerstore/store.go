// Package ledgerstore persists ledger metadata and the event journal so a
// ledger can be rebuilt with ledger.Restore.
package ledgerstore

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

var (
	// ErrTokenNotFound is returned when no ledger is stored under an address.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExists is returned when a ledger address is created twice.
	ErrTokenExists = errors.New("token already exists")
)

// Token is the stored identity of one ledger instance
type Token struct {
	Address   common.Address
	Creator   common.Address
	Metadata  ledger.Metadata
	Signature []byte
	CreatedAt time.Time
}

// Store defines journal persistence
type Store interface {
	// CreateToken stores the ledger identity together with its construction
	// mint in one transaction.
	CreateToken(ctx context.Context, token *Token, opID uuid.UUID, mint ledger.Event) error
	GetToken(ctx context.Context, address common.Address) (*Token, error)
	// AppendEvents stores events atomically; either all are written or none.
	// Events whose seq is already stored are skipped.
	AppendEvents(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error
	// ListEvents returns events with seq >= fromSeq ordered by seq.
	ListEvents(ctx context.Context, token common.Address, fromSeq uint64) ([]ledger.Event, error)
}
