// Package auth builds and checks the off-chain messages a recipient (or its
// forwarder) signs to change forwarding. Everything here is pure: no store,
// no clock, no network. Signatures follow the Ethereum personal-message
// scheme (EIP-191, "\x19Ethereum Signed Message:\n" prefix) so they can be
// produced with any wallet that implements personal_sign or
// web3.eth.accounts.sign.
package auth

import (
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Lower renders an address the way it appears in signed messages:
// 0x-prefixed, lowercase hex, no checksum casing.
func Lower(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

// RegisterMessage is the text a recipient signs to let forwarder receive its
// payments through the registry deployed at registry.
//
//	"{nonce}I authorize {forwarder} to register in {registry}"
func RegisterMessage(nonce uint64, forwarder, registry common.Address) string {
	return strconv.FormatUint(nonce, 10) + "I authorize " + Lower(forwarder) + " to register in " + Lower(registry)
}

// DeregisterMessage is the text the registered forwarder signs to consent to
// its removal from recipient.
//
//	"{nonce}I authorize {recipient} to deregister in {registry}"
func DeregisterMessage(nonce uint64, recipient, registry common.Address) string {
	return strconv.FormatUint(nonce, 10) + "I authorize " + Lower(recipient) + " to deregister in " + Lower(registry)
}

// ExpiryMessage is the text a forwarder signs to accept recipient's payments
// only up to and including epoch expiry. The recipient's register message
// does not name an expiry, so a time-limited registration needs this second
// signature.
//
//	"{nonce}I accept {recipient} until epoch {expiry} in {registry}"
func ExpiryMessage(nonce uint64, recipient common.Address, expiry uint64, registry common.Address) string {
	return strconv.FormatUint(nonce, 10) + "I accept " + Lower(recipient) + " until epoch " +
		strconv.FormatUint(expiry, 10) + " in " + Lower(registry)
}
