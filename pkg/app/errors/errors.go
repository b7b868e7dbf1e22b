// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"

	"github.com/chainsafe/mobee-ledger/pkg/ledger"
)

// Category defines error category
type Category int

const (
	// CategoryNoError is reported for successful operations
	CategoryNoError Category = iota
	// CategoryDataError The caller supplied invalid input, such as the zero
	// address as a counterparty or an amount that cannot be represented.
	CategoryDataError
	// CategoryResourceNotFound The caller referenced a token or record that does not exist
	CategoryResourceNotFound
	// CategoryDataConflict The request is well formed but conflicts with current
	// ledger state, such as spending more than the balance or allowance.
	CategoryDataConflict
	// CategoryDependencyFailure A dependent system (journal, broker) is throwing errors
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryNoError:
		return "CategoryNoError"
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryDataConflict:
		return "CategoryDataConflict"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// Label returns a short lowercase name used as a metric label value
func (c Category) Label() string {
	switch c {
	case CategoryNoError:
		return "ok"
	case CategoryDataError:
		return "invalid"
	case CategoryResourceNotFound:
		return "not_found"
	case CategoryDataConflict:
		return "rejected"
	case CategoryDependencyFailure:
		return "dependency"
	default:
		return "error"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// CategoryOf returns the category of err, CategoryNoError for nil and
// CategoryGeneralError for errors that are not service errors.
func CategoryOf(err error) Category {
	if err == nil {
		return CategoryNoError
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Category
	}
	return CategoryGeneralError
}

// IsInternalError checks that provided error is a Internal system error
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && (svcErr.Category < CategoryDependencyFailure) {
		return false
	}
	return true
}

// GeneralError returns a general service error
// the message exposed to callers is "Internal Error",
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Error",
		Err:      err,
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found: " + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Message:  message,
		Err:      err,
	}
}

// BadRequestError returns an error with category DataError
func BadRequestError(err error, message string) error {
	if err == nil {
		err = errors.New("bad request: " + message)
	}
	return &ServiceError{
		Category: CategoryDataError,
		Message:  message,
		Err:      err,
	}
}

// ConflictError returns an error with category CategoryDataConflict
func ConflictError(err error, message string) error {
	if err == nil {
		err = errors.New("conflict")
	}
	return &ServiceError{
		Category: CategoryDataConflict,
		Message:  message,
		Err:      err,
	}
}

// DependencyError returns an error with category CategoryDependencyFailure
func DependencyError(err error, message string) error {
	if err == nil {
		err = errors.New("dependency failure: " + message)
	}
	return &ServiceError{
		Category: CategoryDependencyFailure,
		Message:  message,
		Err:      err,
	}
}

// FromLedger wraps a ledger rejection in the matching service error.
// The ledger error stays reachable through errors.Is.
func FromLedger(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInvalidRecipient):
		return BadRequestError(err, "invalid recipient")
	case errors.Is(err, ledger.ErrInvalidSpender):
		return BadRequestError(err, "invalid spender")
	case errors.Is(err, ledger.ErrInvalidSender):
		return BadRequestError(err, "invalid sender")
	case errors.Is(err, ledger.ErrOverflow):
		return BadRequestError(err, "amount overflow")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return ConflictError(err, "insufficient balance")
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return ConflictError(err, "insufficient allowance")
	default:
		return GeneralError(err)
	}
}
