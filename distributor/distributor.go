// Package distributor drives a whole epoch through the ledger: it splits each
// delegate's recipients into batches the batcher accepts, pays them one call
// at a time and finally commits every delegate of the plan.
//
// Runs are resumable. Before each call the distributor reads the delegate's
// live distributed count and derives the next batch from it, so a process
// that died halfway picks up after the last batch that went through. A count
// that does not fall on a batch boundary, or batches the count claims were
// paid whose recipients were not credited for the plan's epoch, mean somebody
// else paid under the delegate and the run stops with ErrInconsistentProgress.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/multisend"
)

var (
	// ErrInconsistentProgress is returned when a delegate's distributed
	// count does not match any prefix of the planned batches.
	ErrInconsistentProgress = errors.New("invalid distributed count")
	// ErrInvalidChunkSize is returned for a chunk size that is not positive
	// or exceeds the batcher limit.
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)

// Ledger is the part of *ledger.Hermes the distributor drives.
type Ledger interface {
	DistributeRewards(ctx context.Context, delegate inter.Delegate, epoch idx.Epoch, recipients []common.Address, amounts []*big.Int, value *big.Int) (*multisend.Receipt, error)
	CommitDistributions(ctx context.Context, epoch idx.Epoch, delegates []inter.Delegate) (inter.CommitRecord, error)
	DistributedCount(delegate inter.Delegate) (uint64, error)
	RecipientEpoch(delegate inter.Delegate, recipient common.Address) (idx.Epoch, error)
	Committed(delegate inter.Delegate, epoch idx.Epoch) (bool, error)
	Batcher() multisend.Batcher
}

// Report summarizes a run.
type Report struct {
	Epoch     idx.Epoch
	ChunkSize int
	Delegates []DelegateReport
	// Commit is nil when every delegate had been committed by an earlier run.
	Commit *inter.CommitRecord
}

// DelegateReport is the outcome for one delegate.
type DelegateReport struct {
	Delegate   inter.Delegate
	Recipients int
	Total      *big.Int
	// Batches counts calls made by this run, Resumed those found done.
	Batches int
	Resumed int
	// AlreadyCommitted is set when an earlier run committed the delegate.
	AlreadyCommitted bool
}

// Distributor executes plans against a ledger.
type Distributor struct {
	ledger Ledger
	log    logrus.FieldLogger
}

// New returns a Distributor. A nil logger discards output.
func New(l Ledger, log logrus.FieldLogger) *Distributor {
	if log == nil {
		lg := logrus.New()
		lg.SetOutput(io.Discard)
		log = lg
	}
	return &Distributor{ledger: l, log: log.WithField("component", "distributor")}
}

// ChunkSize returns the batch size used for plan.
func (d *Distributor) ChunkSize(plan *Plan) (int, error) {
	limit := d.ledger.Batcher().Limit()
	size := plan.ChunkSize
	if size == 0 {
		size = limit
	}
	if size <= 0 || size > limit {
		return 0, fmt.Errorf("%w: %d (batcher limit %d)", ErrInvalidChunkSize, size, limit)
	}
	return size, nil
}

// Run pays every batch of plan that has not been paid yet and then commits
// the plan's delegates for plan.Epoch.
func (d *Distributor) Run(ctx context.Context, plan *Plan) (*Report, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	size, err := d.ChunkSize(plan)
	if err != nil {
		return nil, err
	}
	tips := d.ledger.Batcher().MinTips()

	report := &Report{Epoch: plan.Epoch, ChunkSize: size}
	var pending []inter.Delegate
	for _, dp := range plan.normalize() {
		dr, err := d.runDelegate(ctx, plan.Epoch, size, tips, dp)
		if err != nil {
			return report, err
		}
		report.Delegates = append(report.Delegates, dr)
		if !dr.AlreadyCommitted {
			pending = append(pending, dp.Name)
		}
	}

	if len(pending) == 0 {
		d.log.WithField("epoch", plan.Epoch).Info("Every delegate already committed")
		return report, nil
	}
	rec, err := d.ledger.CommitDistributions(ctx, plan.Epoch, pending)
	if err != nil {
		return report, fmt.Errorf("commit epoch %d: %w", plan.Epoch, err)
	}
	report.Commit = &rec
	return report, nil
}

func (d *Distributor) runDelegate(ctx context.Context, epoch idx.Epoch, size int, tips *big.Int, dp DelegatePlan) (DelegateReport, error) {
	dr := DelegateReport{
		Delegate:   dp.Name,
		Recipients: len(dp.Recipients),
		Total:      dp.Total(),
	}
	log := d.log.WithFields(logrus.Fields{
		"delegate": dp.Name.String(),
		"epoch":    epoch,
	})

	committed, err := d.ledger.Committed(dp.Name, epoch)
	if err != nil {
		return dr, err
	}
	if committed {
		dr.AlreadyCommitted = true
		log.Info("Delegate already committed, skipping")
		return dr, nil
	}

	addrs, amounts := split(size, dp.Recipients)
	total := uint64(len(dp.Recipients))
	verified := false
	for {
		if err := ctx.Err(); err != nil {
			return dr, err
		}
		count, err := d.ledger.DistributedCount(dp.Name)
		if err != nil {
			return dr, err
		}
		if count > total || (count != total && count%uint64(size) != 0) {
			return dr, fmt.Errorf("%w: delegate %s, distributed %d, recipients %d, chunk size %d",
				ErrInconsistentProgress, dp.Name, count, total, size)
		}
		// the live count is per delegate, so a leftover from another epoch
		// looks like progress until the credits are checked
		if !verified {
			if err := d.checkCredited(dp, epoch, int(count)); err != nil {
				return dr, err
			}
			verified = true
		}
		if count == total {
			break
		}
		next := int(count / uint64(size))
		if dr.Batches == 0 && next > 0 {
			log.WithField("batches", next).Info("Resuming distribution")
		}

		value := new(big.Int).Add(tips, inter.Sum(amounts[next]))
		rcpt, err := d.ledger.DistributeRewards(ctx, dp.Name, epoch, addrs[next], amounts[next], value)
		if err != nil {
			return dr, fmt.Errorf("delegate %s, batch %d: %w", dp.Name, next, err)
		}
		dr.Batches++
		log.WithFields(logrus.Fields{
			"batch":      next,
			"recipients": len(addrs[next]),
			"id":         rcpt.ID.Hex(),
		}).Debug("Batch paid")
	}
	dr.Resumed = len(addrs) - dr.Batches
	log.WithFields(logrus.Fields{
		"recipients": dr.Recipients,
		"total":      dr.Total.String(),
	}).Info("Delegate distributed")
	return dr, nil
}

// checkCredited verifies that the first n recipients of dp were credited for
// epoch.
func (d *Distributor) checkCredited(dp DelegatePlan, epoch idx.Epoch, n int) error {
	for _, p := range dp.Recipients[:n] {
		last, err := d.ledger.RecipientEpoch(dp.Name, p.Address)
		if err != nil {
			return err
		}
		if last != epoch {
			return fmt.Errorf("%w: delegate %s, recipient %s last credited for epoch %d, not %d",
				ErrInconsistentProgress, dp.Name, p.Address.Hex(), last, epoch)
		}
	}
	return nil
}
