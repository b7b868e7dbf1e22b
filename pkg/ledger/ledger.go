// Package ledger implements a fixed-supply fungible token ledger with
// ERC-20 semantics: balances, spending allowances and the transfer,
// approve and transferFrom operations.
//
// A Ledger is safe for concurrent use. Every mutating operation is atomic:
// it either applies completely and appends exactly one event to the log,
// or fails and leaves balances, allowances and the log untouched.
package ledger

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ZeroAddress is the reserved identifier that never holds a balance.
var ZeroAddress = common.Address{}

// Metadata describes the token tracked by a ledger.
type Metadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *uint256.Int
}

// Receipt is the result of a successful mutating operation.
type Receipt struct {
	Success bool
	Event   Event
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Ledger holds the balance and allowance tables of a single token.
type Ledger struct {
	mu sync.RWMutex

	name        string
	symbol      string
	totalSupply uint256.Int

	balances   map[common.Address]uint256.Int
	allowances map[allowanceKey]uint256.Int
	events     []Event
}

// New creates a ledger whose total supply is rawSupply × 10^18, credits the
// whole supply to creator and records the mint as a transfer from the zero
// address.
func New(name, symbol string, rawSupply *uint256.Int, creator common.Address) (*Ledger, error) {
	if creator == ZeroAddress {
		return nil, fmt.Errorf("%w: creator is the zero address", ErrInvalidRecipient)
	}
	supply, err := ScaleSupply(rawSupply)
	if err != nil {
		return nil, err
	}

	l := newLedger(name, symbol, supply)
	l.balances[creator] = *supply
	l.appendEvent(Event{Kind: EventTransfer, From: ZeroAddress, To: creator, Value: supply})
	return l, nil
}

func newLedger(name, symbol string, supply *uint256.Int) *Ledger {
	l := &Ledger{
		name:       name,
		symbol:     symbol,
		balances:   make(map[common.Address]uint256.Int),
		allowances: make(map[allowanceKey]uint256.Int),
	}
	l.totalSupply.Set(supply)
	return l
}

// Name returns the token name.
func (l *Ledger) Name() string { return l.name }

// Symbol returns the token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

// Decimals returns the number of fractional digits, always 18.
func (l *Ledger) Decimals() uint8 { return Decimals }

// TotalSupply returns the total supply in base units.
func (l *Ledger) TotalSupply() *uint256.Int {
	return l.totalSupply.Clone()
}

// Metadata returns a snapshot of the token metadata.
func (l *Ledger) Metadata() Metadata {
	return Metadata{
		Name:        l.name,
		Symbol:      l.symbol,
		Decimals:    Decimals,
		TotalSupply: l.TotalSupply(),
	}
}

// BalanceOf returns the balance of account, zero for unseen accounts.
func (l *Ledger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal := l.balances[account]
	return bal.Clone()
}

// Allowance returns the amount spender may still move out of owner's balance.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a := l.allowances[allowanceKey{owner: owner, spender: spender}]
	return a.Clone()
}

// Transfer moves amount from caller to to.
func (l *Ledger) Transfer(caller, to common.Address, amount *uint256.Int) (*Receipt, error) {
	amount = orZero(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == ZeroAddress {
		return nil, fmt.Errorf("%w: caller is the zero address", ErrInvalidSender)
	}
	if to == ZeroAddress {
		return nil, fmt.Errorf("%w: cannot transfer to the zero address", ErrInvalidRecipient)
	}
	if err := l.checkBalance(caller, amount); err != nil {
		return nil, err
	}

	l.move(caller, to, amount)
	return l.receipt(Event{Kind: EventTransfer, From: caller, To: to, Value: amount}), nil
}

// Approve sets the allowance of spender over caller's balance to amount,
// replacing any previous value.
func (l *Ledger) Approve(caller, spender common.Address, amount *uint256.Int) (*Receipt, error) {
	amount = orZero(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller == ZeroAddress {
		return nil, fmt.Errorf("%w: approver is the zero address", ErrInvalidSender)
	}
	if spender == ZeroAddress {
		return nil, fmt.Errorf("%w: cannot approve the zero address", ErrInvalidSpender)
	}

	l.allowances[allowanceKey{owner: caller, spender: spender}] = *amount
	return l.receipt(Event{Kind: EventApproval, From: caller, To: spender, Value: amount}), nil
}

// TransferFrom moves amount from owner to to on behalf of caller, consuming
// the allowance owner granted to caller. The allowance is checked before the
// owner's balance.
func (l *Ledger) TransferFrom(caller, owner, to common.Address, amount *uint256.Int) (*Receipt, error) {
	amount = orZero(amount)

	l.mu.Lock()
	defer l.mu.Unlock()

	if owner == ZeroAddress {
		return nil, fmt.Errorf("%w: owner is the zero address", ErrInvalidSender)
	}
	if to == ZeroAddress {
		return nil, fmt.Errorf("%w: cannot transfer to the zero address", ErrInvalidRecipient)
	}

	key := allowanceKey{owner: owner, spender: caller}
	allowed := l.allowances[key]
	if allowed.Lt(amount) {
		return nil, fmt.Errorf("%w: allowance %s, requested %s", ErrInsufficientAllowance, allowed.Dec(), amount.Dec())
	}
	if err := l.checkBalance(owner, amount); err != nil {
		return nil, err
	}

	allowed.Sub(&allowed, amount)
	l.allowances[key] = allowed
	l.move(owner, to, amount)
	return l.receipt(Event{Kind: EventTransfer, From: owner, To: to, Spender: caller, Value: amount}), nil
}

// Events returns the records with a sequence number of at least fromSeq.
func (l *Ledger) Events(fromSeq uint64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if fromSeq >= uint64(len(l.events)) {
		return nil
	}
	out := make([]Event, 0, uint64(len(l.events))-fromSeq)
	for _, ev := range l.events[fromSeq:] {
		out = append(out, ev.clone())
	}
	return out
}

// Holders returns the accounts with a non-zero balance, sorted by address.
func (l *Ledger) Holders() []common.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()

	holders := make([]common.Address, 0, len(l.balances))
	for addr, bal := range l.balances {
		if !bal.IsZero() {
			holders = append(holders, addr)
		}
	}
	sort.Slice(holders, func(i, j int) bool {
		return bytes.Compare(holders[i].Bytes(), holders[j].Bytes()) < 0
	})
	return holders
}

// Audit verifies that the balances add up to the total supply.
func (l *Ledger) Audit() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.audit()
}

func (l *Ledger) audit() error {
	var sum uint256.Int
	for _, bal := range l.balances {
		if _, overflow := sum.AddOverflow(&sum, &bal); overflow {
			return fmt.Errorf("%w: balances overflow", ErrSupplyMismatch)
		}
	}
	if !sum.Eq(&l.totalSupply) {
		return fmt.Errorf("%w: balances %s, supply %s", ErrSupplyMismatch, sum.Dec(), l.totalSupply.Dec())
	}
	return nil
}

func (l *Ledger) checkBalance(account common.Address, amount *uint256.Int) error {
	bal := l.balances[account]
	if bal.Lt(amount) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}
	return nil
}

// move must only be called after checkBalance succeeded. The credit cannot
// overflow because no balance exceeds the total supply.
func (l *Ledger) move(from, to common.Address, amount *uint256.Int) {
	src := l.balances[from]
	src.Sub(&src, amount)
	l.balances[from] = src

	dst := l.balances[to]
	dst.Add(&dst, amount)
	l.balances[to] = dst
}

func (l *Ledger) receipt(ev Event) *Receipt {
	return &Receipt{Success: true, Event: l.appendEvent(ev)}
}

func (l *Ledger) appendEvent(ev Event) Event {
	ev.Seq = uint64(len(l.events))
	ev = ev.clone()
	l.events = append(l.events, ev)
	return ev.clone()
}
