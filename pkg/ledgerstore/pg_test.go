package ledgerstore

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
	"github.com/chainsafe/mobee-ledger/pkg/pgutil"
	mghelper "github.com/chainsafe/mobee-ledger/pkg/pgutil/migrations"
)

var (
	tokenAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	creator   = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	alice     = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob       = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
)

func setupStore(t *testing.T) (context.Context, Store) {
	t.Helper()
	db := pgutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, mghelper.CreateSchema(ctx, db, &TokenDao{}, &EventDao{}))
	return ctx, NewStore(db)
}

func createToken(ctx context.Context, t *testing.T, store Store, l *ledger.Ledger) {
	t.Helper()
	token := &Token{Address: tokenAddr, Creator: creator, Metadata: l.Metadata()}
	require.NoError(t, store.CreateToken(ctx, token, uuid.New(), l.Events(0)[0]))
}

func newJournaledLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New("Mobee Token", "MOB", uint256.NewInt(500_000_000), creator)
	require.NoError(t, err)

	_, err = l.Transfer(creator, alice, uint256.NewInt(1_000))
	require.NoError(t, err)
	_, err = l.Approve(alice, bob, uint256.NewInt(600))
	require.NoError(t, err)
	_, err = l.TransferFrom(bob, alice, bob, uint256.NewInt(250))
	require.NoError(t, err)
	return l
}

func TestStore_TokenRoundTrip(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)

	token := &Token{Address: tokenAddr, Creator: creator, Metadata: l.Metadata(), Signature: []byte{0xde, 0xad}}
	mint := l.Events(0)[0]
	require.NoError(t, store.CreateToken(ctx, token, uuid.New(), mint))

	got, err := store.GetToken(ctx, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, tokenAddr, got.Address)
	assert.Equal(t, creator, got.Creator)
	assert.Equal(t, "Mobee Token", got.Metadata.Name)
	assert.Equal(t, "MOB", got.Metadata.Symbol)
	assert.Equal(t, uint8(18), got.Metadata.Decimals)
	assert.True(t, got.Metadata.TotalSupply.Eq(l.TotalSupply()))
	assert.Equal(t, []byte{0xde, 0xad}, got.Signature)
	assert.False(t, got.CreatedAt.IsZero())

	err = store.CreateToken(ctx, token, uuid.New(), mint)
	require.ErrorIs(t, err, ErrTokenExists)

	stored, err := store.ListEvents(ctx, tokenAddr, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].IsMint())

	_, err = store.GetToken(ctx, alice)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestStore_JournalRestoresLedger(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)

	createToken(ctx, t, store, l)

	events := l.Events(0)
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.Nil, events[1]))
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New(), events[2:]...))

	stored, err := store.ListEvents(ctx, tokenAddr, 0)
	require.NoError(t, err)
	require.Len(t, stored, len(events))
	for i := range events {
		assert.Equal(t, events[i].Seq, stored[i].Seq)
		assert.Equal(t, events[i].Kind, stored[i].Kind)
		assert.Equal(t, events[i].From, stored[i].From)
		assert.Equal(t, events[i].To, stored[i].To)
		assert.Equal(t, events[i].Spender, stored[i].Spender)
		assert.True(t, events[i].Value.Eq(stored[i].Value))
	}

	tail, err := store.ListEvents(ctx, tokenAddr, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(2), tail[0].Seq)

	meta := l.Metadata()
	restored, err := ledger.Restore(meta, stored)
	require.NoError(t, err)
	assert.True(t, restored.BalanceOf(bob).Eq(uint256.NewInt(250)))
	assert.True(t, restored.Allowance(alice, bob).Eq(uint256.NewInt(350)))
}

func TestStore_AppendEventsAtomic(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)
	events := l.Events(0)

	// unknown token
	err := store.AppendEvents(ctx, tokenAddr, uuid.New(), events...)
	require.ErrorIs(t, err, ErrTokenNotFound)

	stored, err := store.ListEvents(ctx, tokenAddr, 0)
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New()))
}

func TestStore_AppendEventsSkipsStoredSeqs(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)
	events := l.Events(0)

	createToken(ctx, t, store, l)
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New(), events[1]))

	// a retry after a commit whose acknowledgement was lost
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New(), events[1:]...))
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New(), events...))

	stored, err := store.ListEvents(ctx, tokenAddr, 0)
	require.NoError(t, err)
	require.Len(t, stored, len(events))
	for i := range events {
		assert.Equal(t, events[i].Seq, stored[i].Seq)
	}

	_, err = ledger.Restore(l.Metadata(), stored)
	require.NoError(t, err)
}

func TestStore_CreateTokenRejectsNonMint(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)

	token := &Token{Address: tokenAddr, Creator: creator, Metadata: l.Metadata()}
	require.Error(t, store.CreateToken(ctx, token, uuid.New(), l.Events(1)[0]))

	_, err := store.GetToken(ctx, tokenAddr)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestStore_LongNameAndSymbol(t *testing.T) {
	ctx, store := setupStore(t)

	name := strings.Repeat("Mobee ", 100)
	symbol := strings.Repeat("MOB", 20)
	l, err := ledger.New(name, symbol, uint256.NewInt(1), creator)
	require.NoError(t, err)

	createToken(ctx, t, store, l)

	got, err := store.GetToken(ctx, tokenAddr)
	require.NoError(t, err)
	assert.Equal(t, name, got.Metadata.Name)
	assert.Equal(t, symbol, got.Metadata.Symbol)
}

func TestStore_MaxValue(t *testing.T) {
	ctx, store := setupStore(t)
	l := newJournaledLedger(t)
	createToken(ctx, t, store, l)

	maxValue := new(uint256.Int).SetAllOne()
	ev := ledger.Event{Seq: 9, Kind: ledger.EventApproval, From: alice, To: bob, Value: maxValue}
	require.NoError(t, store.AppendEvents(ctx, tokenAddr, uuid.New(), ev))

	stored, err := store.ListEvents(ctx, tokenAddr, 9)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Value.Eq(maxValue))
}
