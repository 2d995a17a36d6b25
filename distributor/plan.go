package distributor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-hermes/inter"
)

// Plan is the full distribution of one epoch. Plans are written by the
// bookkeeping side as TOML:
//
//	epoch = 1600
//	chunk_size = 2
//
//	[[delegate]]
//	name = "iosg"
//
//	  [[delegate.recipient]]
//	  address = "0xf17f52151ebef6c7334fad080c5704d77216b732"
//	  amount = "100000000"
type Plan struct {
	Epoch idx.Epoch `toml:"epoch"`
	// ChunkSize is the number of recipients per call. Zero uses the
	// batcher's limit.
	ChunkSize int            `toml:"chunk_size"`
	Delegates []DelegatePlan `toml:"delegate"`
}

// DelegatePlan lists what one delegate pays in the epoch.
type DelegatePlan struct {
	Name       inter.Delegate `toml:"name"`
	Recipients []Payment      `toml:"recipient"`
}

// Payment is a single (recipient, amount) entry.
type Payment struct {
	Address common.Address `toml:"address"`
	Amount  *big.Int       `toml:"amount"`
}

var (
	// ErrEmptyPlan is returned for plans without delegates.
	ErrEmptyPlan = errors.New("plan has no delegates")
	// ErrDuplicateDelegate is returned when a delegate appears twice in a plan.
	ErrDuplicateDelegate = errors.New("delegate listed twice")
)

// LoadPlan reads a TOML plan file.
func LoadPlan(path string) (*Plan, error) {
	var p Plan
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, fmt.Errorf("decode plan %s: %w", path, err)
	}
	return &p, nil
}

// DecodePlan reads a TOML plan from r.
func DecodePlan(r io.Reader) (*Plan, error) {
	var p Plan
	if _, err := toml.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}

// Encode writes p as TOML.
func (p *Plan) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Validate checks the plan is well formed: at least one delegate, no
// delegate listed twice and no negative or missing amount.
func (p *Plan) Validate() error {
	if len(p.Delegates) == 0 {
		return ErrEmptyPlan
	}
	if p.ChunkSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, p.ChunkSize)
	}
	seen := make(map[inter.Delegate]struct{}, len(p.Delegates))
	for _, d := range p.Delegates {
		if d.Name.IsZero() {
			return errors.New("plan has a delegate without a name")
		}
		if _, ok := seen[d.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateDelegate, d.Name)
		}
		seen[d.Name] = struct{}{}
		for i, r := range d.Recipients {
			if r.Amount == nil || r.Amount.Sign() < 0 {
				return fmt.Errorf("delegate %s, recipient %d (%s): invalid amount %v", d.Name, i, r.Address.Hex(), r.Amount)
			}
		}
	}
	return nil
}

// Total sums every amount of the plan.
func (p *Plan) Total() *big.Int {
	total := new(big.Int)
	for _, d := range p.Delegates {
		total.Add(total, d.Total())
	}
	return total
}

// Total sums the amounts of the delegate.
func (d DelegatePlan) Total() *big.Int {
	total := new(big.Int)
	for _, r := range d.Recipients {
		if r.Amount != nil {
			total.Add(total, r.Amount)
		}
	}
	return total
}

// normalize returns a copy of the plan in canonical order: delegates by
// name, recipients by address, entries for the same recipient merged. The
// resume logic relies on every run producing the same chunks.
func (p *Plan) normalize() []DelegatePlan {
	out := make([]DelegatePlan, 0, len(p.Delegates))
	for _, d := range p.Delegates {
		merged := make(map[common.Address]*big.Int, len(d.Recipients))
		for _, r := range d.Recipients {
			if cur, ok := merged[r.Address]; ok {
				cur.Add(cur, r.Amount)
				continue
			}
			merged[r.Address] = new(big.Int).Set(r.Amount)
		}
		rs := make([]Payment, 0, len(merged))
		for addr, amount := range merged {
			rs = append(rs, Payment{Address: addr, Amount: amount})
		}
		sort.Slice(rs, func(i, j int) bool {
			return bytes.Compare(rs[i].Address[:], rs[j].Address[:]) < 0
		})
		out = append(out, DelegatePlan{Name: d.Name, Recipients: rs})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Name[:], out[j].Name[:]) < 0
	})
	return out
}

// split cuts recipients into chunks of at most size entries.
func split(size int, rs []Payment) ([][]common.Address, [][]*big.Int) {
	var (
		addrs   [][]common.Address
		amounts [][]*big.Int
	)
	for i := 0; i < len(rs); i += size {
		end := i + size
		if end > len(rs) {
			end = len(rs)
		}
		a := make([]common.Address, 0, end-i)
		m := make([]*big.Int, 0, end-i)
		for _, r := range rs[i:end] {
			a = append(a, r.Address)
			m = append(m, r.Amount)
		}
		addrs = append(addrs, a)
		amounts = append(amounts, m)
	}
	return addrs, amounts
}
