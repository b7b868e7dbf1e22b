package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
	"github.com/chainsafe/mobee-ledger/pkg/ledgerstore"
)

type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) AppendEvents(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error {
	args := m.Called(ctx, token, opID, events)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, token common.Address, opID uuid.UUID, events ...ledger.Event) error {
	args := m.Called(ctx, token, opID, events)
	return args.Error(0)
}

type mockReader struct {
	mock.Mock
}

func (m *mockReader) GetToken(ctx context.Context, address common.Address) (*ledgerstore.Token, error) {
	args := m.Called(ctx, address)
	tok, _ := args.Get(0).(*ledgerstore.Token)
	return tok, args.Error(1)
}

func (m *mockReader) ListEvents(ctx context.Context, token common.Address, fromSeq uint64) ([]ledger.Event, error) {
	args := m.Called(ctx, token, fromSeq)
	events, _ := args.Get(0).([]ledger.Event)
	return events, args.Error(1)
}
