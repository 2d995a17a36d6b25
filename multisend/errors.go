package multisend

import "errors"

var (
	// ErrLengthMismatch is returned when recipients and amounts differ in length.
	ErrLengthMismatch = errors.New("parameters' length are not equal")
	// ErrCapacityExceeded is returned when a batch has more payees than the limit.
	ErrCapacityExceeded = errors.New("number of recipients is larger than the limit")
	// ErrInsufficientFee is returned when the attached value does not cover
	// the minimum tips plus every amount.
	ErrInsufficientFee = errors.New("not enough token")
	// ErrInvalidAmount is returned for negative amounts or a negative value.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNotMultiSend is returned by UnpackCall for foreign call data.
	ErrNotMultiSend = errors.New("not a multiSend call")
)
