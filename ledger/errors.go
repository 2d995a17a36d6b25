package ledger

import (
	"errors"

	"github.com/rony4d/go-hermes/multisend"
)

var (
	// ErrDuplicateCredit is returned when a recipient of the batch was already
	// credited for the same delegate and epoch.
	ErrDuplicateCredit = errors.New("reward has already been distributed to the recipient")
	// ErrLengthMismatch is returned when recipients and amounts differ in length.
	ErrLengthMismatch = multisend.ErrLengthMismatch
	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = multisend.ErrInvalidAmount
	// ErrEpochBeforeStart is returned for epochs before the configured start epoch.
	ErrEpochBeforeStart = errors.New("epoch is before the start epoch")
	// ErrAlreadyCommitted is returned when a delegate already has a snapshot
	// for the epoch being committed.
	ErrAlreadyCommitted = errors.New("distribution already committed")
	// ErrNoHistory is returned by LastEndEpoch before the first commit.
	ErrNoHistory = errors.New("no epoch has been committed")
)
