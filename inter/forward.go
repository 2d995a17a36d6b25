package inter

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
)

// ForwardRecord is the authorization state kept per recipient by the
// forward registry.
type ForwardRecord struct {
	// Forwarder receives payments in the recipient's place. The zero address
	// means no forwarder is registered.
	Forwarder common.Address
	// Nonce is the last nonce accepted for this recipient. Every accepted
	// register or deregister message must carry a strictly greater value.
	Nonce uint64
	// Expiry is the last epoch at which the forwarder applies. Zero means the
	// registration never expires.
	Expiry idx.Epoch
}

// Active reports whether a forwarder is registered, ignoring expiry.
func (r ForwardRecord) Active() bool {
	return r.Forwarder != (common.Address{})
}

// ActiveAt reports whether the forwarder applies to payments made for epoch.
func (r ForwardRecord) ActiveAt(epoch idx.Epoch) bool {
	if !r.Active() {
		return false
	}
	return r.Expiry == 0 || epoch <= r.Expiry
}
