package registry

import "errors"

var (
	// ErrInvalidSignature is returned when the signature does not recover to
	// the expected signer over the canonical message.
	ErrInvalidSignature = errors.New("invalid signature")
	// ErrInvalidNonce is returned when the nonce is not strictly greater than
	// the last one accepted for the recipient.
	ErrInvalidNonce = errors.New("nonce is invalid")
	// ErrNotRegistered is returned by Deregister when the recipient has no
	// forwarder to remove.
	ErrNotRegistered = errors.New("no forwarder registered")
	// ErrInvalidForwarder is returned by Register for the zero address.
	ErrInvalidForwarder = errors.New("invalid forwarder address")
)
