// Package multisend is the payment batcher the ledger pays through.
//
// A batcher takes a bounded list of (payee, amount) pairs together with an
// attached value. The value must cover a fixed minimum tip plus every amount;
// whatever is left after the payees are paid goes to the batcher's operator.
// The ledger only depends on the Batcher interface. MultiSend implements it
// in process over an Accounts balance book.
package multisend

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/metrics"
)

// Batcher pays a batch of payees in one call.
type Batcher interface {
	// Send pays amounts[i] to recipients[i] out of value. It either pays every
	// entry or none.
	Send(ctx context.Context, recipients []common.Address, amounts []*big.Int, value *big.Int) (*Receipt, error)
	// MinTips is the part of value a batch must carry on top of its amounts.
	MinTips() *big.Int
	// Limit is the maximum number of payees per batch.
	Limit() int
}

// Receipt describes a completed batch.
type Receipt struct {
	// ID is keccak256 of the batch's multiSend call data.
	ID common.Hash
	// Payees is the number of entries paid.
	Payees int
	// Total is the sum paid to the payees.
	Total *big.Int
	// Tips is the part of the value routed to the operator.
	Tips *big.Int
}

// MultiSend implements Batcher. It is safe for concurrent use.
type MultiSend struct {
	operator common.Address
	minTips  *big.Int
	limit    int
	accounts *Accounts

	mu   sync.Mutex
	sent uint64
}

// Compile-time interface check.
var _ Batcher = (*MultiSend)(nil)

// New returns a batcher paying into accounts. A nil accounts gets a fresh
// balance book; a nil minTips means no minimum.
func New(operator common.Address, minTips *big.Int, limit int, accounts *Accounts) *MultiSend {
	if accounts == nil {
		accounts = NewAccounts()
	}
	tips := new(big.Int)
	if minTips != nil {
		tips.Set(minTips)
	}
	return &MultiSend{
		operator: operator,
		minTips:  tips,
		limit:    limit,
		accounts: accounts,
	}
}

// MinTips implements Batcher.
func (m *MultiSend) MinTips() *big.Int { return new(big.Int).Set(m.minTips) }

// Limit implements Batcher.
func (m *MultiSend) Limit() int { return m.limit }

// Operator returns the address tips are paid to.
func (m *MultiSend) Operator() common.Address { return m.operator }

// Accounts returns the balance book the batcher pays into.
func (m *MultiSend) Accounts() *Accounts { return m.accounts }

// Sent returns the number of batches paid so far.
func (m *MultiSend) Sent() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent
}

// Required returns the smallest value a batch paying amounts must carry.
func (m *MultiSend) Required(amounts []*big.Int) *big.Int {
	return new(big.Int).Add(m.minTips, inter.Sum(amounts))
}

// Send implements Batcher. Every check runs before the first credit.
func (m *MultiSend) Send(ctx context.Context, recipients []common.Address, amounts []*big.Int, value *big.Int) (rcpt *Receipt, err error) {
	defer func() { metrics.BatchSends.WithLabelValues(metrics.Status(err)).Inc() }()

	if len(recipients) != len(amounts) {
		return nil, fmt.Errorf("%w: %d recipients, %d amounts", ErrLengthMismatch, len(recipients), len(amounts))
	}
	if len(recipients) > m.limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrCapacityExceeded, len(recipients), m.limit)
	}
	for i, a := range amounts {
		if a == nil || a.Sign() < 0 {
			return nil, fmt.Errorf("%w: amounts[%d] = %v", ErrInvalidAmount, i, a)
		}
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value", ErrInvalidAmount)
	}
	total := inter.Sum(amounts)
	required := new(big.Int).Add(m.minTips, total)
	if value.Cmp(required) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientFee, value, required)
	}
	data, err := PackCall(recipients, amounts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tips := new(big.Int).Sub(value, total)
	m.accounts.mu.Lock()
	for i, to := range recipients {
		m.accounts.credit(to, amounts[i])
	}
	m.accounts.credit(m.operator, tips)
	m.accounts.mu.Unlock()

	m.mu.Lock()
	m.sent++
	m.mu.Unlock()

	metrics.BatchSize.Observe(float64(len(recipients)))
	return &Receipt{
		ID:     crypto.Keccak256Hash(data),
		Payees: len(recipients),
		Total:  total,
		Tips:   tips,
	}, nil
}
