package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the catalog, the seat inventory and the reservation service.
// Callers wrap them with detail and match them with errors.Is.
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrTrainNotFound   = errors.New("train not found")
	ErrTrainExists     = errors.New("train already exists")
	ErrPoolNotFound    = errors.New("seat pool not found")
	ErrNoSeatAvailable = errors.New("no seat available")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrSeatAlreadyFree = errors.New("seat is not booked")
	ErrStorageFailure  = errors.New("storage failure")
)

// InvalidRequest wraps ErrInvalidRequest with a reason
func InvalidRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// StorageFailure wraps a driver error as ErrStorageFailure, keeping both in the chain
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidRequest, "INVALID_REQUEST"},
	{ErrTrainNotFound, "TRAIN_NOT_FOUND"},
	{ErrTrainExists, "TRAIN_EXISTS"},
	{ErrPoolNotFound, "POOL_NOT_FOUND"},
	{ErrNoSeatAvailable, "NO_SEAT_AVAILABLE"},
	{ErrSeatNotFound, "SEAT_NOT_FOUND"},
	{ErrSeatAlreadyFree, "SEAT_ALREADY_FREE"},
	{ErrStorageFailure, "STORAGE_FAILURE"},
}

// ErrorCode returns the API code for an error kind, or INTERNAL_ERROR
func ErrorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "INTERNAL_ERROR"
}

// IsRetryable reports whether retrying the same call may succeed.
// Only storage failures are considered transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
