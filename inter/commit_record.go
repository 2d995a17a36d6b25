package inter

import (
	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// CommitRecord captures one commitDistributions call: the epoch that was
// closed and the snapshot written for every delegate committed with it.
// Exactly one record exists per entry of the committed-epoch history.
type CommitRecord struct {
	// Epoch is the epoch appended to the history by this commit.
	Epoch idx.Epoch
	// Delegates lists the committed delegates in call order, deduplicated.
	Delegates []Delegate
	// Snapshots[i] is the snapshot written for Delegates[i].
	Snapshots []Counters
}

// Hash returns a digest over the epoch and every (delegate, count, amount)
// entry. Operators compare it against their own bookkeeping to confirm a
// commit matched what they intended to close.
func (r CommitRecord) Hash() hash.Hash {
	parts := make([][]byte, 0, 1+3*len(r.Delegates))
	parts = append(parts, r.Epoch.Bytes())
	for i, d := range r.Delegates {
		c := ZeroCounters()
		if i < len(r.Snapshots) {
			c = r.Snapshots[i].Copy()
		}
		parts = append(parts, d[:], bigendian.Uint64ToBytes(c.Count), c.Amount.Bytes())
	}
	return hash.Of(parts...)
}

// Digest is Hash rendered as an Ethereum style hash for printing.
func (r CommitRecord) Digest() common.Hash {
	return common.Hash(r.Hash())
}

// Total sums the snapshots of the record.
func (r CommitRecord) Total() Counters {
	total := ZeroCounters()
	for _, s := range r.Snapshots {
		total = total.Add(s.Count, s.Amount)
	}
	return total
}
