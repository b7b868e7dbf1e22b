package ledger

import (
	"fmt"
)

// Restore rebuilds a ledger from its metadata and the complete event log, as
// persisted by a journal. Events must be contiguous starting at sequence 0,
// and the first event must be the construction mint.
func Restore(meta Metadata, events []Event) (*Ledger, error) {
	if meta.Decimals != 0 && meta.Decimals != Decimals {
		return nil, fmt.Errorf("%w: unsupported decimals %d", ErrCorruptJournal, meta.Decimals)
	}
	if len(events) == 0 || !events[0].IsMint() {
		return nil, fmt.Errorf("%w: journal does not start with a mint", ErrCorruptJournal)
	}

	l := newLedger(meta.Name, meta.Symbol, orZero(meta.TotalSupply))
	for i, ev := range events {
		if ev.Seq != uint64(i) {
			return nil, fmt.Errorf("%w: expected seq %d, got %d", ErrCorruptJournal, i, ev.Seq)
		}
		if err := l.replay(ev); err != nil {
			return nil, fmt.Errorf("%w: seq %d: %v", ErrCorruptJournal, ev.Seq, err)
		}
	}

	if err := l.audit(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptJournal, err)
	}
	return l, nil
}

func (l *Ledger) replay(ev Event) error {
	value := orZero(ev.Value)

	switch ev.Kind {
	case EventApproval:
		if ev.From == ZeroAddress || ev.To == ZeroAddress {
			return fmt.Errorf("approval involving the zero address")
		}
		l.allowances[allowanceKey{owner: ev.From, spender: ev.To}] = *value
	case EventTransfer:
		if ev.To == ZeroAddress {
			return ErrInvalidRecipient
		}
		if ev.IsMint() {
			if ev.Seq != 0 {
				return fmt.Errorf("mint after construction")
			}
			if !value.Eq(&l.totalSupply) {
				return fmt.Errorf("mint of %s does not match supply %s", value.Dec(), l.totalSupply.Dec())
			}
			l.balances[ev.To] = *value
			break
		}
		if ev.Delegated() {
			key := allowanceKey{owner: ev.From, spender: ev.Spender}
			allowed := l.allowances[key]
			if allowed.Lt(value) {
				return ErrInsufficientAllowance
			}
			allowed.Sub(&allowed, value)
			l.allowances[key] = allowed
		}
		if err := l.checkBalance(ev.From, value); err != nil {
			return err
		}
		l.move(ev.From, ev.To, value)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	l.events = append(l.events, ev.clone())
	return nil
}
