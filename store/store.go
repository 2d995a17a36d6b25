// Package store holds every table the ledger and the forward registry own.
//
// A Store is created once at startup and handed to both components
// explicitly. All mutations go through Update, which runs a closure against a
// transaction: if the closure returns an error nothing it wrote becomes
// visible, otherwise every write is applied at once. Two backends exist:
//   - MemStore keeps tables in maps and stages writes in an overlay buffer;
//   - BoltStore persists tables in bbolt buckets and relies on bbolt
//     transactions for rollback.
package store

import (
	"errors"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-hermes/inter"
)

var (
	// ErrNotFound is returned for history indexes past the end.
	ErrNotFound = errors.New("store: not found")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// Reader exposes read access to all tables. Missing keys are not errors:
// they yield zero values and, where the distinction matters, ok == false.
type Reader interface {
	// RecipientEpoch returns the last epoch recipient was credited under delegate.
	RecipientEpoch(delegate inter.Delegate, recipient common.Address) (epoch idx.Epoch, ok bool, err error)
	// LiveCounters returns the totals accumulated since the last commit.
	LiveCounters(delegate inter.Delegate) (inter.Counters, error)
	// Snapshot returns the counters committed for (delegate, epoch).
	Snapshot(delegate inter.Delegate, epoch idx.Epoch) (c inter.Counters, ok bool, err error)
	// HistoryLen returns the number of commits recorded.
	HistoryLen() (uint64, error)
	// HistoryAt returns the epoch of the i-th commit.
	HistoryAt(i uint64) (idx.Epoch, error)
	// CommitRecord returns the full record of the i-th commit.
	CommitRecord(i uint64) (inter.CommitRecord, error)
	// ForwardRecord returns the authorization record of recipient.
	ForwardRecord(recipient common.Address) (inter.ForwardRecord, error)
	// AnalyticsEndpoint returns the configured endpoint and whether one was ever set.
	AnalyticsEndpoint() (endpoint string, ok bool, err error)
}

// Writer mutates tables. Writers are only reachable inside Update.
type Writer interface {
	SetRecipientEpoch(delegate inter.Delegate, recipient common.Address, epoch idx.Epoch) error
	SetLiveCounters(delegate inter.Delegate, c inter.Counters) error
	PutSnapshot(delegate inter.Delegate, epoch idx.Epoch, c inter.Counters) error
	// AppendCommit appends rec.Epoch to the history and stores rec at the same index.
	AppendCommit(rec inter.CommitRecord) error
	PutForwardRecord(recipient common.Address, rec inter.ForwardRecord) error
	SetAnalyticsEndpoint(endpoint string) error
}

// Tx is the view a closure passed to Update works with. Reads observe the
// transaction's own earlier writes.
type Tx interface {
	Reader
	Writer
}

// Store is the handle shared by the ledger and the registry.
type Store interface {
	// View runs fn against a consistent read-only view.
	View(fn func(Reader) error) error
	// Update runs fn in a read-write transaction. A non-nil error from fn
	// discards every write fn made and is returned unchanged.
	Update(fn func(Tx) error) error
	// Close releases the store. Further calls return ErrClosed.
	Close() error
}
