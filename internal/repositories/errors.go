package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStockConflict is returned when a guarded stock decrement finds fewer
	// units than requested, or the product is no longer active.
	ErrStockConflict = errors.New("insufficient stock")
	// ErrDuplicateOrderNumber is returned when an order number is already taken.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrStatusConflict is returned when an order's status changed between
	// read and write.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
