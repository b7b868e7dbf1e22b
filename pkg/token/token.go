// Package token holds the request and response types of the token service
package token

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

// Operation names used in logs and metric labels
const (
	OpTransfer     = "transfer"
	OpApprove      = "approve"
	OpTransferFrom = "transfer_from"
	OpBalanceOf    = "balance_of"
	OpAllowance    = "allowance"
)

// TransferRequest moves Amount base units from Caller to To
type TransferRequest struct {
	Caller string `validate:"required,eth_addr"`
	To     string `validate:"required,eth_addr"`
	Amount string `validate:"required,number"`
}

// ApproveRequest sets Spender's allowance over Caller's balance to Amount
type ApproveRequest struct {
	Caller  string `validate:"required,eth_addr"`
	Spender string `validate:"required,eth_addr"`
	Amount  string `validate:"required,number"`
}

// TransferFromRequest moves Amount from Owner to To, spending the allowance
// Owner granted to Caller
type TransferFromRequest struct {
	Caller string `validate:"required,eth_addr"`
	Owner  string `validate:"required,eth_addr"`
	To     string `validate:"required,eth_addr"`
	Amount string `validate:"required,number"`
}

// Result is returned by a successful mutating operation
type Result struct {
	OperationID uuid.UUID
	Success     bool
	Event       ledger.Event
}

// Info describes the ledger a service fronts
type Info struct {
	Address     common.Address
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply string
	// TotalSupplyTokens is TotalSupply in whole tokens
	TotalSupplyTokens decimal.Decimal
}
