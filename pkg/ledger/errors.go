package ledger

import "errors"

var (
	// ErrInvalidRecipient is returned when tokens would be credited to the zero address.
	ErrInvalidRecipient = errors.New("invalid recipient")
	// ErrInvalidSpender is returned when an allowance is granted to the zero address.
	ErrInvalidSpender = errors.New("invalid spender")
	// ErrInvalidSender is returned when the zero address is used as the source
	// of a transfer or as an approver.
	ErrInvalidSender = errors.New("invalid sender")
	// ErrInsufficientBalance is returned when the amount exceeds the source balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when the amount exceeds the caller's allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrOverflow is returned when a supply or amount does not fit in 256 bits.
	ErrOverflow = errors.New("value overflows 256 bits")

	ErrSupplyMismatch = errors.New("sum of balances does not match total supply")
	ErrCorruptJournal = errors.New("corrupt event journal")
)
