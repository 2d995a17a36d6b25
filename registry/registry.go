// Package registry implements the forward registry: a recipient may let
// another address (its forwarder) receive the payments meant for it.
//
// Authorization is off-chain. The recipient signs
//
//	"{nonce}I authorize {forwarder} to register in {registry}"
//
// and anybody may submit that signature. The recipient's message names no
// expiry, so a time-limited registration also needs the forwarder to sign
//
//	"{nonce}I accept {recipient} until epoch {expiry} in {registry}"
//
// Removal needs the consent of the
// forwarder being removed, which signs
//
//	"{nonce}I authorize {recipient} to deregister in {registry}"
//
// Nonces are chosen by the signer. The registry only requires that every
// accepted message carries a nonce strictly greater than the previous one
// for the same recipient, so gaps are fine but replays are not.
package registry

import (
	"errors"
	"fmt"
	"io"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-hermes/auth"
	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/internal/keylock"
	"github.com/rony4d/go-hermes/metrics"
	"github.com/rony4d/go-hermes/store"
)

// Config holds the construction parameters of a Registry.
type Config struct {
	// Store holds the forward records. Required.
	Store store.Store
	// Address identifies this registry inside signed messages.
	Address common.Address
	// Logger defaults to a discarding logger.
	Logger logrus.FieldLogger
}

// Registry is safe for concurrent use. Mutations of one recipient are
// serialized; reads go straight to the store.
type Registry struct {
	store   store.Store
	address common.Address
	locks   *keylock.Locker
	log     logrus.FieldLogger
}

// New returns a Registry over cfg.Store.
func New(cfg Config) *Registry {
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Registry{
		store:   cfg.Store,
		address: cfg.Address,
		locks:   keylock.New(),
		log:     log.WithField("component", "registry"),
	}
}

// Address returns the address signed messages must name.
func (r *Registry) Address() common.Address {
	return r.address
}

// Register makes forwarder the payee of recipient. sig must be recipient's
// signature over RegisterMessage(nonce, forwarder, registry). A zero expiry
// never expires and expirySig is ignored. Otherwise the forwarder applies to
// epochs up to and including expiry, and expirySig must be the forwarder's
// signature over ExpiryMessage(nonce, recipient, expiry, registry).
func (r *Registry) Register(recipient, forwarder common.Address, nonce uint64, expiry idx.Epoch, sig, expirySig []byte) error {
	if forwarder == (common.Address{}) {
		return ErrInvalidForwarder
	}
	if !auth.Verify(recipient, auth.RegisterMessage(nonce, forwarder, r.address), sig) {
		metrics.RegistryRejected.WithLabelValues("signature").Inc()
		return ErrInvalidSignature
	}
	if expiry != 0 && !auth.Verify(forwarder, auth.ExpiryMessage(nonce, recipient, uint64(expiry), r.address), expirySig) {
		metrics.RegistryRejected.WithLabelValues("signature").Inc()
		return fmt.Errorf("%w: expiry %d not accepted by forwarder", ErrInvalidSignature, expiry)
	}

	unlock := r.locks.Lock(recipient[:])
	defer unlock()

	err := r.store.Update(func(tx store.Tx) error {
		rec, err := tx.ForwardRecord(recipient)
		if err != nil {
			return err
		}
		if nonce <= rec.Nonce {
			return fmt.Errorf("%w: %d, last accepted %d", ErrInvalidNonce, nonce, rec.Nonce)
		}
		return tx.PutForwardRecord(recipient, inter.ForwardRecord{
			Forwarder: forwarder,
			Nonce:     nonce,
			Expiry:    expiry,
		})
	})
	if err != nil {
		if errors.Is(err, ErrInvalidNonce) {
			metrics.RegistryRejected.WithLabelValues("nonce").Inc()
		}
		return err
	}

	metrics.RegistryOps.WithLabelValues("register").Inc()
	r.log.WithFields(logrus.Fields{
		"recipient": recipient.Hex(),
		"forwarder": forwarder.Hex(),
		"nonce":     nonce,
		"expiry":    expiry,
	}).Info("Forwarder registered")
	return nil
}

// Deregister removes the forwarder of recipient. sig must be the current
// forwarder's signature over DeregisterMessage(nonce, recipient, registry).
// The nonce check is shared with Register.
func (r *Registry) Deregister(recipient common.Address, nonce uint64, sig []byte) error {
	unlock := r.locks.Lock(recipient[:])
	defer unlock()

	var forwarder common.Address
	err := r.store.Update(func(tx store.Tx) error {
		rec, err := tx.ForwardRecord(recipient)
		if err != nil {
			return err
		}
		if !rec.Active() {
			return ErrNotRegistered
		}
		if !auth.Verify(rec.Forwarder, auth.DeregisterMessage(nonce, recipient, r.address), sig) {
			metrics.RegistryRejected.WithLabelValues("signature").Inc()
			return ErrInvalidSignature
		}
		if nonce <= rec.Nonce {
			metrics.RegistryRejected.WithLabelValues("nonce").Inc()
			return fmt.Errorf("%w: %d, last accepted %d", ErrInvalidNonce, nonce, rec.Nonce)
		}
		forwarder = rec.Forwarder
		return tx.PutForwardRecord(recipient, inter.ForwardRecord{Nonce: nonce})
	})
	if err != nil {
		return err
	}

	metrics.RegistryOps.WithLabelValues("deregister").Inc()
	r.log.WithFields(logrus.Fields{
		"recipient": recipient.Hex(),
		"forwarder": forwarder.Hex(),
		"nonce":     nonce,
	}).Info("Forwarder deregistered")
	return nil
}

// Record returns the stored authorization record of recipient.
func (r *Registry) Record(recipient common.Address) (rec inter.ForwardRecord, err error) {
	err = r.store.View(func(rd store.Reader) error {
		rec, err = rd.ForwardRecord(recipient)
		return err
	})
	return rec, err
}

// Nonce returns the last nonce accepted for recipient, zero if none.
func (r *Registry) Nonce(recipient common.Address) (uint64, error) {
	rec, err := r.Record(recipient)
	return rec.Nonce, err
}

// Resolve returns the registered forwarder of recipient, or recipient itself
// when none is registered or the registration has expired. A registration
// counts as expired once an epoch past its expiry has been committed.
func (r *Registry) Resolve(recipient common.Address) (payee common.Address, err error) {
	err = r.store.View(func(rd store.Reader) error {
		rec, err := rd.ForwardRecord(recipient)
		if err != nil {
			return err
		}
		latest, _, err := LatestEpoch(rd)
		if err != nil {
			return err
		}
		payee = recipient
		if rec.ActiveAt(latest) {
			payee = rec.Forwarder
		}
		return nil
	})
	return payee, err
}

// LatestEpoch returns the most recently committed epoch, ok == false if none
// has been committed yet.
func LatestEpoch(rd store.Reader) (epoch idx.Epoch, ok bool, err error) {
	n, err := rd.HistoryLen()
	if err != nil || n == 0 {
		return 0, false, err
	}
	epoch, err = rd.HistoryAt(n - 1)
	return epoch, err == nil, err
}

// ResolveAt is Resolve for a payment made for epoch: a registration whose
// expiry lies before epoch resolves to recipient.
func (r *Registry) ResolveAt(recipient common.Address, epoch idx.Epoch) (payee common.Address, err error) {
	err = r.store.View(func(rd store.Reader) error {
		payee, err = r.ResolveIn(rd, recipient, epoch)
		return err
	})
	return payee, err
}

// ResolveIn is ResolveAt reading through rd, so that a caller already inside
// a store transaction sees a consistent view.
func (r *Registry) ResolveIn(rd store.Reader, recipient common.Address, epoch idx.Epoch) (common.Address, error) {
	rec, err := rd.ForwardRecord(recipient)
	if err != nil {
		return common.Address{}, err
	}
	if rec.ActiveAt(epoch) {
		return rec.Forwarder, nil
	}
	return recipient, nil
}
