package ledger

import (
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/store"
)

// Read-only queries. Missing keys yield zero values.

// EndEpochCount returns the length of the committed-epoch history.
func (h *Hermes) EndEpochCount() (n uint64, err error) {
	err = h.store.View(func(rd store.Reader) error {
		n, err = rd.HistoryLen()
		return err
	})
	return n, err
}

// EndEpoch returns the i-th committed epoch, store.ErrNotFound past the end.
func (h *Hermes) EndEpoch(i uint64) (e idx.Epoch, err error) {
	err = h.store.View(func(rd store.Reader) error {
		e, err = rd.HistoryAt(i)
		return err
	})
	return e, err
}

// LastEndEpoch returns the most recently committed epoch, or ErrNoHistory.
func (h *Hermes) LastEndEpoch() (e idx.Epoch, err error) {
	err = h.store.View(func(rd store.Reader) error {
		n, err := rd.HistoryLen()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoHistory
		}
		e, err = rd.HistoryAt(n - 1)
		return err
	})
	return e, err
}

// CommitRecord returns the record written by the i-th commit.
func (h *Hermes) CommitRecord(i uint64) (rec inter.CommitRecord, err error) {
	err = h.store.View(func(rd store.Reader) error {
		rec, err = rd.CommitRecord(i)
		return err
	})
	return rec, err
}

// Counters returns the live totals of delegate.
func (h *Hermes) Counters(delegate inter.Delegate) (c inter.Counters, err error) {
	err = h.store.View(func(rd store.Reader) error {
		c, err = rd.LiveCounters(delegate)
		return err
	})
	return c, err
}

// DistributedCount returns the number of recipients credited under delegate
// since its last commit.
func (h *Hermes) DistributedCount(delegate inter.Delegate) (uint64, error) {
	c, err := h.Counters(delegate)
	return c.Count, err
}

// DistributedAmount returns the amount credited under delegate since its
// last commit.
func (h *Hermes) DistributedAmount(delegate inter.Delegate) (*big.Int, error) {
	c, err := h.Counters(delegate)
	if err != nil {
		return nil, err
	}
	return c.Amount, nil
}

// Distribution returns the snapshot committed for (delegate, epoch), zero if
// that pair was never committed.
func (h *Hermes) Distribution(delegate inter.Delegate, epoch idx.Epoch) (c inter.Counters, err error) {
	err = h.store.View(func(rd store.Reader) error {
		c, _, err = rd.Snapshot(delegate, epoch)
		return err
	})
	return c, err
}

// Committed reports whether (delegate, epoch) has a snapshot.
func (h *Hermes) Committed(delegate inter.Delegate, epoch idx.Epoch) (ok bool, err error) {
	err = h.store.View(func(rd store.Reader) error {
		_, ok, err = rd.Snapshot(delegate, epoch)
		return err
	})
	return ok, err
}

// RecipientEpoch returns the last epoch recipient was credited in under
// delegate, zero if never.
func (h *Hermes) RecipientEpoch(delegate inter.Delegate, recipient common.Address) (e idx.Epoch, err error) {
	err = h.store.View(func(rd store.Reader) error {
		e, _, err = rd.RecipientEpoch(delegate, recipient)
		return err
	})
	return e, err
}
