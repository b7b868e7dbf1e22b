package ledgerstore

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/uptrace/bun"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

// TokenDao maps to the 'tokens' table
type TokenDao struct {
	bun.BaseModel `bun:"table:tokens,alias:t"`
	Address       string    `bun:"address,pk,type:varchar(42)"`
	Name          string    `bun:"name,notnull,type:text"`
	Symbol        string    `bun:"symbol,notnull,type:text"`
	Decimals      int16     `bun:"decimals,notnull"`
	TotalSupply   string    `bun:"total_supply,notnull,type:numeric(78,0)"`
	Creator       string    `bun:"creator,notnull,type:varchar(42)"`
	Signature     *string   `bun:"signature,type:varchar(132)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// EventDao maps to the 'ledger_events' table. Value is numeric(78,0) so the
// full uint256 range round-trips as a decimal string.
type EventDao struct {
	bun.BaseModel  `bun:"table:ledger_events,alias:e"`
	TokenAddress   string     `bun:"token_address,pk,type:varchar(42)"`
	Seq            int64      `bun:"seq,pk"`
	OperationID    *uuid.UUID `bun:"operation_id,type:uuid"`
	Kind           string     `bun:"kind,notnull,type:varchar(16)"`
	FromAddress    string     `bun:"from_address,notnull,type:varchar(42)"`
	ToAddress      string     `bun:"to_address,notnull,type:varchar(42)"`
	SpenderAddress *string    `bun:"spender_address,type:varchar(42)"`
	Value          string     `bun:"value,notnull,type:numeric(78,0)"`
	Topic0         string     `bun:"topic0,notnull,type:varchar(66)"`
	Data           string     `bun:"data,notnull,type:text"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toTokenDao(t *Token) *TokenDao {
	dao := &TokenDao{
		Address:     t.Address.Hex(),
		Name:        t.Metadata.Name,
		Symbol:      t.Metadata.Symbol,
		Decimals:    int16(t.Metadata.Decimals),
		TotalSupply: "0",
		Creator:     t.Creator.Hex(),
	}
	if t.Metadata.TotalSupply != nil {
		dao.TotalSupply = t.Metadata.TotalSupply.Dec()
	}
	if len(t.Signature) > 0 {
		sig := hexutil.Encode(t.Signature)
		dao.Signature = &sig
	}
	return dao
}

func toToken(dao *TokenDao) (*Token, error) {
	supply, err := ledger.ParseAmount(dao.TotalSupply)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", dao.Address, err)
	}
	t := &Token{
		Address: common.HexToAddress(dao.Address),
		Creator: common.HexToAddress(dao.Creator),
		Metadata: ledger.Metadata{
			Name:        dao.Name,
			Symbol:      dao.Symbol,
			Decimals:    uint8(dao.Decimals),
			TotalSupply: supply,
		},
		CreatedAt: dao.CreatedAt,
	}
	if dao.Signature != nil {
		if t.Signature, err = hexutil.Decode(*dao.Signature); err != nil {
			return nil, fmt.Errorf("token %s signature: %w", dao.Address, err)
		}
	}
	return t, nil
}

func toEventDao(token common.Address, opID uuid.UUID, ev ledger.Event) (*EventDao, error) {
	log, err := ev.Log(token)
	if err != nil {
		return nil, err
	}
	value := ev.Value
	if value == nil {
		value = new(uint256.Int)
	}
	dao := &EventDao{
		TokenAddress: token.Hex(),
		Seq:          int64(ev.Seq),
		Kind:         string(ev.Kind),
		FromAddress:  ev.From.Hex(),
		ToAddress:    ev.To.Hex(),
		Value:        value.Dec(),
		Topic0:       log.Topics[0].Hex(),
		Data:         hexutil.Encode(log.Data),
	}
	if opID != uuid.Nil {
		dao.OperationID = &opID
	}
	if ev.Delegated() {
		spender := ev.Spender.Hex()
		dao.SpenderAddress = &spender
	}
	return dao, nil
}

func toEvent(dao *EventDao) (ledger.Event, error) {
	value, err := ledger.ParseAmount(dao.Value)
	if err != nil {
		return ledger.Event{}, fmt.Errorf("event %d: %w", dao.Seq, err)
	}
	ev := ledger.Event{
		Seq:   uint64(dao.Seq),
		Kind:  ledger.EventKind(dao.Kind),
		From:  common.HexToAddress(dao.FromAddress),
		To:    common.HexToAddress(dao.ToAddress),
		Value: value,
	}
	if dao.SpenderAddress != nil {
		ev.Spender = common.HexToAddress(*dao.SpenderAddress)
	}
	return ev, nil
}
