package inter

import (
	"fmt"
	"math/big"
)

// Counters is the (count, amount) pair used both for the live per-delegate
// totals and for committed per-(delegate, epoch) snapshots.
type Counters struct {
	// Count is the number of recipients credited.
	Count uint64
	// Amount is the sum credited to those recipients.
	Amount *big.Int
}

// ZeroCounters returns a (0, 0) pair with a non-nil Amount.
func ZeroCounters() Counters {
	return Counters{Amount: new(big.Int)}
}

// IsZero reports whether nothing has been counted.
func (c Counters) IsZero() bool {
	return c.Count == 0 && (c.Amount == nil || c.Amount.Sign() == 0)
}

// Copy returns a deep copy; Amount is never shared with the receiver.
func (c Counters) Copy() Counters {
	cp := Counters{Count: c.Count, Amount: new(big.Int)}
	if c.Amount != nil {
		cp.Amount.Set(c.Amount)
	}
	return cp
}

// Add returns the receiver increased by count recipients and amount.
func (c Counters) Add(count uint64, amount *big.Int) Counters {
	cp := c.Copy()
	cp.Count += count
	if amount != nil {
		cp.Amount.Add(cp.Amount, amount)
	}
	return cp
}

// Equal compares two pairs treating a nil Amount as zero.
func (c Counters) Equal(o Counters) bool {
	return c.Count == o.Count && c.Copy().Amount.Cmp(o.Copy().Amount) == 0
}

func (c Counters) String() string {
	return fmt.Sprintf("(%d, %s)", c.Count, c.Copy().Amount.String())
}

// Sum adds up amounts, treating nil entries as zero.
func Sum(amounts []*big.Int) *big.Int {
	total := new(big.Int)
	for _, a := range amounts {
		if a != nil {
			total.Add(total, a)
		}
	}
	return total
}
