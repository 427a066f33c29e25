package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrVolumeMismatch      = fmt.Errorf("%w: product volume does not match line volume", ErrValidation)
	ErrDuplicateName       = fmt.Errorf("%w: name already taken", ErrValidation)
	ErrDuplicateBOMLine    = fmt.Errorf("%w: material already on the bill of materials", ErrValidation)
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrAlreadyUsed         = fmt.Errorf("%w: batch or stock row is already used", ErrInvalidOperation)
	ErrDuplicateIdentifier = errors.New("duplicate batch number")
)

// InsufficientStockError names the resource that could not cover a debit.
type InsufficientStockError struct {
	Resource  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock of %s: available %s, requested %s",
		e.Resource, e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
