package service

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Errors returned by the catalog, order and report services.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateName    = errors.New("name already exists")
	ErrInvalidItemList  = errors.New("item list references unknown items")
	ErrEmptyAfterFilter = errors.New("all items are already in the category")
	ErrInvalidState     = errors.New("order is not in a valid state for this operation")
	ErrTableOccupied    = errors.New("table already has an open order")
	ErrTotalMismatch    = errors.New("total does not match")
	ErrOpenOrdersExist  = errors.New("open orders exist in the requested window")
	ErrUnavailable      = errors.New("store unavailable")
)

// Validation errors. All are reported before any write.
var (
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidPrice         = errors.New("price must be >= 0")
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidDiscount      = errors.New("discount must be >= 0")
	ErrTableRequired        = errors.New("table is required")
	ErrInvalidRange         = errors.New("end must not be before start")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrInvalidSubtotal      = errors.New("subtotal must be >= 0")
	ErrNoOrderIDs           = errors.New("order ids are required")
)

const (
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

const (
	constraintItemName  = "menu_items_name_key"
	constraintCatName   = "categories_name_key"
	constraintOpenTable = "orders_open_table_key"
	constraintTableSet  = "orders_dine_in_table_check"
)

// mapPgError translates constraint violations into domain errors.
// Anything else is returned unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code == pgCheckViolation && pgErr.ConstraintName == constraintTableSet {
		return ErrTableRequired
	}
	if pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintItemName, constraintCatName:
		return ErrDuplicateName
	case constraintOpenTable:
		return ErrTableOccupied
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

var domainErrors = []error{
	ErrNotFound, ErrDuplicateName, ErrInvalidItemList, ErrEmptyAfterFilter,
	ErrInvalidState, ErrTableOccupied, ErrTotalMismatch, ErrOpenOrdersExist, ErrUnavailable,
	ErrNameRequired, ErrInvalidPrice, ErrEmptyItems, ErrInvalidQuantity,
	ErrInvalidPaymentMethod, ErrInvalidDiscount, ErrTableRequired, ErrInvalidRange,
	ErrInvalidStatus, ErrInvalidSubtotal, ErrNoOrderIDs,
}

// isDomainError reports whether err already carries one of the service's sentinels.
func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
