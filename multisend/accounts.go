package multisend

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Accounts is an in-memory balance book. It stands in for the chain state a
// deployed batch payment contract would move funds in.
type Accounts struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

// NewAccounts returns an empty balance book.
func NewAccounts() *Accounts {
	return &Accounts{balances: make(map[common.Address]*big.Int)}
}

// Credit adds amount to the balance of addr.
func (a *Accounts) Credit(addr common.Address, amount *big.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.credit(addr, amount)
}

func (a *Accounts) credit(addr common.Address, amount *big.Int) {
	bal, ok := a.balances[addr]
	if !ok {
		bal = new(big.Int)
		a.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

// Balance returns a copy of the balance of addr.
func (a *Accounts) Balance(addr common.Address) *big.Int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if bal, ok := a.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Len returns the number of addresses ever credited.
func (a *Accounts) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.balances)
}
