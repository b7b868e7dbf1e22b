package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

func TestFromLedger(t *testing.T) {
	tests := []struct {
		err      error
		category Category
		message  string
	}{
		{ledger.ErrInvalidRecipient, CategoryDataError, "invalid recipient"},
		{ledger.ErrInvalidSpender, CategoryDataError, "invalid spender"},
		{ledger.ErrInvalidSender, CategoryDataError, "invalid sender"},
		{fmt.Errorf("%w: 2^256", ledger.ErrOverflow), CategoryDataError, "amount overflow"},
		{ledger.ErrInsufficientBalance, CategoryDataConflict, "insufficient balance"},
		{ledger.ErrInsufficientAllowance, CategoryDataConflict, "insufficient allowance"},
		{errors.New("boom"), CategoryGeneralError, "Internal Error"},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			err := FromLedger(tc.err)
			assert.True(t, Is(err, tc.category))
			assert.Equal(t, tc.category, CategoryOf(err))
			assert.ErrorIs(t, err, tc.err)

			var svcErr *ServiceError
			assert.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tc.message, svcErr.Message)
		})
	}

	assert.NoError(t, FromLedger(nil))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryNoError, CategoryOf(nil))
	assert.Equal(t, CategoryGeneralError, CategoryOf(errors.New("plain")))
	assert.Equal(t, CategoryDependencyFailure, CategoryOf(DependencyError(nil, "kafka")))
	assert.Equal(t, "rejected", CategoryDataConflict.Label())
	assert.Equal(t, "ok", CategoryNoError.Label())
}

func TestIsInternalError(t *testing.T) {
	assert.False(t, IsInternalError(BadRequestError(nil, "bad")))
	assert.False(t, IsInternalError(ResourceNotFoundError(nil, "token")))
	assert.True(t, IsInternalError(DependencyError(nil, "db")))
	assert.True(t, IsInternalError(GeneralError(nil)))
	assert.True(t, IsInternalError(errors.New("plain")))
}
