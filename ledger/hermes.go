// Package ledger implements Hermes, the epoch-scoped distribution ledger.
//
// Rewards of a delegate for one epoch arrive in several DistributeRewards
// calls, each paying a batch of recipients through a multisend.Batcher. The
// ledger remembers, per (delegate, recipient), the last epoch the recipient
// was credited in, so nobody is paid twice for the same epoch, and keeps live
// (count, amount) totals per delegate. CommitDistributions moves the live
// totals into a permanent per-(delegate, epoch) snapshot and appends the
// epoch to the committed-epoch history.
//
// Every call is all-or-nothing. Ledger writes are staged in a store
// transaction that is discarded when any step fails, and the batcher is the
// last step of that transaction, so a rejected call neither pays anybody nor
// changes any table.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/internal/keylock"
	"github.com/rony4d/go-hermes/metrics"
	"github.com/rony4d/go-hermes/multisend"
	"github.com/rony4d/go-hermes/store"
)

// Resolver maps a recipient to the address that is actually paid. It reads
// through the ledger's own transaction. *registry.Registry implements it.
type Resolver interface {
	ResolveIn(rd store.Reader, recipient common.Address, epoch idx.Epoch) (common.Address, error)
}

// Config holds the construction parameters of a Hermes ledger.
type Config struct {
	// Store holds the ledger tables. Required.
	Store store.Store
	// Registry resolves forwarders. Nil pays every recipient directly.
	Registry Resolver
	// Batcher pays the resolved payees. Required.
	Batcher multisend.Batcher
	// StartEpoch is the first epoch the ledger accepts.
	StartEpoch idx.Epoch
	// AnalyticsEndpoint seeds the endpoint when the store has none yet.
	AnalyticsEndpoint string
	// Logger defaults to a discarding logger.
	Logger logrus.FieldLogger
}

// Hermes is the distribution ledger. It is safe for concurrent use: calls for
// the same delegate are serialized, queries never wait for them.
type Hermes struct {
	store      store.Store
	registry   Resolver
	batcher    multisend.Batcher
	startEpoch idx.Epoch
	locks      *keylock.Locker
	log        logrus.FieldLogger
}

// New returns a ledger over cfg.Store, seeding the analytics endpoint if the
// store has never seen one.
func New(cfg Config) (*Hermes, error) {
	if cfg.Store == nil {
		return nil, errors.New("ledger: store is required")
	}
	if cfg.Batcher == nil {
		return nil, errors.New("ledger: batcher is required")
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	err := cfg.Store.Update(func(tx store.Tx) error {
		_, ok, err := tx.AnalyticsEndpoint()
		if err != nil || ok {
			return err
		}
		return tx.SetAnalyticsEndpoint(cfg.AnalyticsEndpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: seed analytics endpoint: %w", err)
	}

	return &Hermes{
		store:      cfg.Store,
		registry:   cfg.Registry,
		batcher:    cfg.Batcher,
		startEpoch: cfg.StartEpoch,
		locks:      keylock.New(),
		log:        log.WithField("component", "hermes"),
	}, nil
}

// StartEpoch returns the first epoch the ledger accepts.
func (h *Hermes) StartEpoch() idx.Epoch { return h.startEpoch }

// Batcher returns the batcher payments go through.
func (h *Hermes) Batcher() multisend.Batcher { return h.batcher }

// DistributeRewards credits recipients[i] with amounts[i] for delegate and
// epoch and pays them, or their forwarders, out of value. value must cover
// the batcher's minimum tips plus the sum of amounts.
//
// The whole batch is rejected with ErrDuplicateCredit if any recipient was
// already credited for (delegate, epoch), including a recipient listed twice.
// Batcher errors are returned as is.
func (h *Hermes) DistributeRewards(ctx context.Context, delegate inter.Delegate, epoch idx.Epoch, recipients []common.Address, amounts []*big.Int, value *big.Int) (rcpt *multisend.Receipt, err error) {
	start := time.Now()
	defer func() {
		metrics.DistributeTotal.WithLabelValues(metrics.Status(err)).Inc()
		metrics.DistributeDuration.Observe(time.Since(start).Seconds())
	}()

	if len(recipients) != len(amounts) {
		return nil, fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}
	if epoch < h.startEpoch {
		return nil, fmt.Errorf("%w: %d < %d", ErrEpochBeforeStart, epoch, h.startEpoch)
	}
	for i, a := range amounts {
		if a == nil || a.Sign() < 0 {
			return nil, fmt.Errorf("%w: amounts[%d] = %v", ErrInvalidAmount, i, a)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := h.locks.Lock(delegate[:])
	defer unlock()

	forwarded := 0
	err = h.store.Update(func(tx store.Tx) error {
		payees := make([]common.Address, len(recipients))
		for i, r := range recipients {
			last, ok, err := tx.RecipientEpoch(delegate, r)
			if err != nil {
				return err
			}
			if ok && last == epoch {
				return fmt.Errorf("%w: %s, delegate %s, epoch %d", ErrDuplicateCredit, r.Hex(), delegate, epoch)
			}
			if err := tx.SetRecipientEpoch(delegate, r, epoch); err != nil {
				return err
			}

			payees[i] = r
			if h.registry != nil {
				if payees[i], err = h.registry.ResolveIn(tx, r, epoch); err != nil {
					return fmt.Errorf("resolve %s: %w", r.Hex(), err)
				}
			}
			if payees[i] != r {
				forwarded++
			}
		}

		live, err := tx.LiveCounters(delegate)
		if err != nil {
			return err
		}
		if err := tx.SetLiveCounters(delegate, live.Add(uint64(len(recipients)), inter.Sum(amounts))); err != nil {
			return err
		}

		// Paying is the last step: once the batcher succeeds nothing else
		// can fail the transaction.
		rcpt, err = h.batcher.Send(ctx, payees, amounts, value)
		return err
	})
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"delegate":   delegate.String(),
			"epoch":      epoch,
			"recipients": len(recipients),
		}).WithError(err).Warn("Distribution rejected")
		return nil, err
	}

	metrics.RecipientsCredited.Add(float64(len(recipients)))
	metrics.RecipientsForwarded.Add(float64(forwarded))
	h.log.WithFields(logrus.Fields{
		"delegate":   delegate.String(),
		"epoch":      epoch,
		"recipients": len(recipients),
		"forwarded":  forwarded,
		"total":      rcpt.Total.String(),
		"batch":      rcpt.ID.Hex(),
	}).Info("Distributed rewards")
	return rcpt, nil
}

// CommitDistributions closes epoch for delegates: each delegate's live
// counters become its snapshot for epoch and are reset to zero, and epoch is
// appended to the history once for the whole call. Repeated delegates are
// committed once.
//
// If any delegate already has a snapshot for epoch the call fails with
// ErrAlreadyCommitted and nothing changes.
func (h *Hermes) CommitDistributions(ctx context.Context, epoch idx.Epoch, delegates []inter.Delegate) (rec inter.CommitRecord, err error) {
	defer func() { metrics.CommitTotal.WithLabelValues(metrics.Status(err)).Inc() }()

	if epoch < h.startEpoch {
		return inter.CommitRecord{}, fmt.Errorf("%w: %d < %d", ErrEpochBeforeStart, epoch, h.startEpoch)
	}
	if err := ctx.Err(); err != nil {
		return inter.CommitRecord{}, err
	}

	uniq := []inter.Delegate(inter.Delegates(delegates).Unique())
	keys := make([][]byte, len(uniq))
	for i := range uniq {
		keys[i] = uniq[i].Bytes()
	}
	unlock := h.locks.LockAll(keys)
	defer unlock()

	rec = inter.CommitRecord{
		Epoch:     epoch,
		Delegates: uniq,
		Snapshots: make([]inter.Counters, len(uniq)),
	}
	err = h.store.Update(func(tx store.Tx) error {
		for i, d := range uniq {
			if _, ok, err := tx.Snapshot(d, epoch); err != nil {
				return err
			} else if ok {
				return fmt.Errorf("%w: delegate %s, epoch %d", ErrAlreadyCommitted, d, epoch)
			}
			live, err := tx.LiveCounters(d)
			if err != nil {
				return err
			}
			if err := tx.PutSnapshot(d, epoch, live); err != nil {
				return err
			}
			if err := tx.SetLiveCounters(d, inter.ZeroCounters()); err != nil {
				return err
			}
			rec.Snapshots[i] = live
		}
		return tx.AppendCommit(rec)
	})
	if err != nil {
		h.log.WithField("epoch", epoch).WithError(err).Warn("Commit rejected")
		return inter.CommitRecord{}, err
	}

	total := rec.Total()
	h.log.WithFields(logrus.Fields{
		"epoch":     epoch,
		"delegates": len(uniq),
		"count":     total.Count,
		"amount":    total.Amount.String(),
		"digest":    rec.Digest().Hex(),
	}).Info("Committed distributions")
	return rec, nil
}

// SetAnalyticsEndpoint replaces the analytics endpoint.
func (h *Hermes) SetAnalyticsEndpoint(endpoint string) error {
	return h.store.Update(func(tx store.Tx) error {
		return tx.SetAnalyticsEndpoint(endpoint)
	})
}

// AnalyticsEndpoint returns the current analytics endpoint.
func (h *Hermes) AnalyticsEndpoint() (endpoint string, err error) {
	err = h.store.View(func(rd store.Reader) error {
		endpoint, _, err = rd.AnalyticsEndpoint()
		return err
	})
	return endpoint, err
}
