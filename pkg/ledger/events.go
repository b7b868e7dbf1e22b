package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// EventKind identifies the type of record appended to the event log.
type EventKind string

const (
	EventTransfer EventKind = "Transfer"
	EventApproval EventKind = "Approval"
)

// Event is a record emitted by a successful operation.
//
// For EventTransfer, From and To are the source and destination accounts;
// the construction mint has From set to the zero address. Spender is set
// for transfers made through TransferFrom and names the account whose
// allowance was consumed; it is not part of the log encoding. For
// EventApproval, From is the owner and To the spender.
type Event struct {
	Seq     uint64
	Kind    EventKind
	From    common.Address
	To      common.Address
	Spender common.Address
	Value   *uint256.Int
}

// Delegated reports whether the transfer consumed an allowance.
func (e Event) Delegated() bool {
	return e.Kind == EventTransfer && e.Spender != ZeroAddress
}

// IsMint reports whether the event is the construction mint record.
func (e Event) IsMint() bool {
	return e.Kind == EventTransfer && e.From == ZeroAddress
}

func (e Event) clone() Event {
	e.Value = orZero(e.Value).Clone()
	return e
}

const erc20EventsABI = `[
	{"anonymous":false,"type":"event","name":"Transfer","inputs":[
		{"indexed":true,"name":"from","type":"address"},
		{"indexed":true,"name":"to","type":"address"},
		{"indexed":false,"name":"value","type":"uint256"}]},
	{"anonymous":false,"type":"event","name":"Approval","inputs":[
		{"indexed":true,"name":"owner","type":"address"},
		{"indexed":true,"name":"spender","type":"address"},
		{"indexed":false,"name":"value","type":"uint256"}]}
]`

var eventsABI = mustParseABI(erc20EventsABI)

var (
	// TransferTopic is keccak256("Transfer(address,address,uint256)").
	TransferTopic = eventsABI.Events[string(EventTransfer)].ID
	// ApprovalTopic is keccak256("Approval(address,address,uint256)").
	ApprovalTopic = eventsABI.Events[string(EventApproval)].ID
)

var errUnknownTopic = errors.New("unknown event topic")

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse erc20 events abi: %v", err))
	}
	return parsed
}

// Log encodes the event the way an ERC-20 contract at address would emit it.
func (e Event) Log(address common.Address) (*types.Log, error) {
	ev, ok := eventsABI.Events[string(e.Kind)]
	if !ok {
		return nil, fmt.Errorf("encode %q: %w", e.Kind, errUnknownTopic)
	}
	data, err := ev.Inputs.NonIndexed().Pack(orZero(e.Value).ToBig())
	if err != nil {
		return nil, fmt.Errorf("pack %s value: %w", e.Kind, err)
	}
	return &types.Log{
		Address: address,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(common.LeftPadBytes(e.From.Bytes(), 32)),
			common.BytesToHash(common.LeftPadBytes(e.To.Bytes(), 32)),
		},
		Data:  data,
		Index: uint(e.Seq),
	}, nil
}

// ParseLog decodes a Transfer or Approval log. The sequence number is taken
// from the log index.
func ParseLog(log *types.Log) (Event, error) {
	if log == nil || len(log.Topics) != 3 {
		return Event{}, fmt.Errorf("%w: expected 3 topics", errUnknownTopic)
	}

	var kind EventKind
	switch log.Topics[0] {
	case TransferTopic:
		kind = EventTransfer
	case ApprovalTopic:
		kind = EventApproval
	default:
		return Event{}, fmt.Errorf("%w: %s", errUnknownTopic, log.Topics[0].Hex())
	}

	values, err := eventsABI.Unpack(string(kind), log.Data)
	if err != nil {
		return Event{}, fmt.Errorf("unpack %s data: %w", kind, err)
	}
	if len(values) != 1 {
		return Event{}, fmt.Errorf("unpack %s data: expected 1 value, got %d", kind, len(values))
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return Event{}, fmt.Errorf("unpack %s data: unexpected type %T", kind, values[0])
	}
	value, overflow := uint256.FromBig(raw)
	if overflow {
		return Event{}, fmt.Errorf("unpack %s data: %w", kind, ErrOverflow)
	}

	return Event{
		Seq:   uint64(log.Index),
		Kind:  kind,
		From:  common.BytesToAddress(log.Topics[1].Bytes()),
		To:    common.BytesToAddress(log.Topics[2].Bytes()),
		Value: value,
	}, nil
}
