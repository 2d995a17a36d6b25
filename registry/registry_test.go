package registry

import (
	"crypto/ecdsa"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-hermes/auth"
	"github.com/rony4d/go-hermes/inter"
	"github.com/rony4d/go-hermes/store"
)

// Development accounts 1..3 of the truffle/ganache mnemonic.
var (
	recipientKey = mustKey("ae6ae8e5ccbfb04590405997ee2d52d2b330726137b875053c36d94e974d162f")
	forwarderKey = mustKey("0dbbe8e4ae425a6d2687f1a7e3ba17bc98c673636790f1b8ad91193c05875ef1")
	strangerKey  = mustKey("c88b703fb08cbea894b6aeff5a544fb92e78a18e19814cd85da83b71f772aa6c")

	recipient = auth.Address(recipientKey)
	forwarder = auth.Address(forwarderKey)
	stranger  = auth.Address(strangerKey)

	registryAddr = common.HexToAddress("0x345cA3e014Aaf5dcA488057592ee47305D9B3e10")
)

func mustKey(h string) *ecdsa.PrivateKey {
	k, err := crypto.HexToECDSA(h)
	if err != nil {
		panic(err)
	}
	return k
}

func signRegister(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, fwd common.Address) []byte {
	t.Helper()
	sig, err := auth.Sign(key, auth.RegisterMessage(nonce, fwd, registryAddr))
	require.NoError(t, err)
	return sig
}

func signDeregister(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, rcpt common.Address) []byte {
	t.Helper()
	sig, err := auth.Sign(key, auth.DeregisterMessage(nonce, rcpt, registryAddr))
	require.NoError(t, err)
	return sig
}

func signExpiry(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, rcpt common.Address, expiry idx.Epoch) []byte {
	t.Helper()
	sig, err := auth.Sign(key, auth.ExpiryMessage(nonce, rcpt, uint64(expiry), registryAddr))
	require.NoError(t, err)
	return sig
}

func backends(t *testing.T, fn func(t *testing.T, r *Registry)) {
	t.Run("mem", func(t *testing.T) {
		s := store.NewMemStore()
		defer s.Close()
		fn(t, New(Config{Store: s, Address: registryAddr}))
	})
	t.Run("bolt", func(t *testing.T) {
		s, err := store.OpenBoltStore(filepath.Join(t.TempDir(), "registry.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, New(Config{Store: s, Address: registryAddr}))
	})
}

func TestFixtureAddresses(t *testing.T) {
	require := require.New(t)
	require.Equal(common.HexToAddress("0xf17f52151EbEF6C7334FAD080c5704D77216b732"), recipient)
	require.Equal(common.HexToAddress("0xC5fdf4076b8F3A5357c5E395ab970B5B54098Fef"), forwarder)
	require.Equal(common.HexToAddress("0x821aEa9a577a9b44299B9c15c88cf3087F3b5544"), stranger)
}

// TestResolveLifecycle walks unregistered -> registered -> deregistered.
func TestResolveLifecycle(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)

		got, err := r.Resolve(recipient)
		require.NoError(err)
		require.Equal(recipient, got)

		require.NoError(r.Register(recipient, forwarder, 2, 0, signRegister(t, recipientKey, 2, forwarder), nil))
		got, err = r.Resolve(recipient)
		require.NoError(err)
		require.Equal(forwarder, got)

		rec, err := r.Record(recipient)
		require.NoError(err)
		require.Equal(forwarder, rec.Forwarder)
		require.Equal(uint64(2), rec.Nonce)

		require.NoError(r.Deregister(recipient, 3, signDeregister(t, forwarderKey, 3, recipient)))
		got, err = r.Resolve(recipient)
		require.NoError(err)
		require.Equal(recipient, got)

		n, err := r.Nonce(recipient)
		require.NoError(err)
		require.Equal(uint64(3), n)
	})
}

// TestNonceReplay registers with nonce 2, then retries with 2, 1 and 3.
func TestNonceReplay(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)

		sig2 := signRegister(t, recipientKey, 2, forwarder)
		require.NoError(r.Register(recipient, forwarder, 2, 1500, sig2, signExpiry(t, forwarderKey, 2, recipient, 1500)))

		// exact replay of a valid message
		require.ErrorIs(r.Register(recipient, forwarder, 2, 1500, sig2, signExpiry(t, forwarderKey, 2, recipient, 1500)), ErrInvalidNonce)
		require.ErrorIs(r.Register(recipient, forwarder, 1, 1500, signRegister(t, recipientKey, 1, forwarder), signExpiry(t, forwarderKey, 1, recipient, 1500)), ErrInvalidNonce)
		require.NoError(r.Register(recipient, forwarder, 3, 1500, signRegister(t, recipientKey, 3, forwarder), signExpiry(t, forwarderKey, 3, recipient, 1500)))

		// gaps are allowed
		require.NoError(r.Register(recipient, stranger, 10, 0, signRegister(t, recipientKey, 10, stranger), nil))
		got, err := r.Resolve(recipient)
		require.NoError(err)
		require.Equal(stranger, got)
	})
}

func TestRegisterRejectsBadSignatures(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)

		// signed by somebody other than the recipient
		require.ErrorIs(r.Register(recipient, forwarder, 1, 0, signRegister(t, strangerKey, 1, forwarder), nil), ErrInvalidSignature)
		// signature for a different forwarder
		require.ErrorIs(r.Register(recipient, stranger, 1, 0, signRegister(t, recipientKey, 1, forwarder), nil), ErrInvalidSignature)
		// signature for a different nonce
		require.ErrorIs(r.Register(recipient, forwarder, 5, 0, signRegister(t, recipientKey, 1, forwarder), nil), ErrInvalidSignature)
		// signature for another registry
		other := New(Config{Store: store.NewMemStore(), Address: stranger})
		require.ErrorIs(other.Register(recipient, forwarder, 1, 0, signRegister(t, recipientKey, 1, forwarder), nil), ErrInvalidSignature)
		// garbage
		require.ErrorIs(r.Register(recipient, forwarder, 1, 0, []byte{1, 2, 3}, nil), ErrInvalidSignature)
		require.ErrorIs(r.Register(recipient, common.Address{}, 1, 0, nil, nil), ErrInvalidForwarder)

		// a failed attempt leaves no trace
		rec, err := r.Record(recipient)
		require.NoError(err)
		require.False(rec.Active())
		require.Zero(rec.Nonce)

		// the nonce is still available
		require.NoError(r.Register(recipient, forwarder, 1, 0, signRegister(t, recipientKey, 1, forwarder), nil))
	})
}

// TestRegisterExpiryNeedsForwarder submits a recipient's signature through a
// third party: the relay can neither pick an expiry nor burn the nonce.
func TestRegisterExpiryNeedsForwarder(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)
		sig := signRegister(t, recipientKey, 5, forwarder)

		// no forwarder consent at all
		require.ErrorIs(r.Register(recipient, forwarder, 5, 1, sig, nil), ErrInvalidSignature)
		// consent signed by the recipient or a stranger
		require.ErrorIs(r.Register(recipient, forwarder, 5, 1, sig, signExpiry(t, recipientKey, 5, recipient, 1)), ErrInvalidSignature)
		require.ErrorIs(r.Register(recipient, forwarder, 5, 1, sig, signExpiry(t, strangerKey, 5, recipient, 1)), ErrInvalidSignature)
		// the forwarder accepted 1500, the relay asks for a shorter expiry
		accepted := signExpiry(t, forwarderKey, 5, recipient, 1500)
		require.ErrorIs(r.Register(recipient, forwarder, 5, 1, sig, accepted), ErrInvalidSignature)
		// consent given for another nonce
		require.ErrorIs(r.Register(recipient, forwarder, 5, 1500, sig, signExpiry(t, forwarderKey, 4, recipient, 1500)), ErrInvalidSignature)

		n, err := r.Nonce(recipient)
		require.NoError(err)
		require.Zero(n)

		// the intended submission still goes through
		require.NoError(r.Register(recipient, forwarder, 5, 0, sig, nil))
		got, err := r.ResolveAt(recipient, 1600)
		require.NoError(err)
		require.Equal(forwarder, got)

		// with the forwarder's consent the expiry applies
		require.NoError(r.Register(recipient, forwarder, 6, 1500, signRegister(t, recipientKey, 6, forwarder), signExpiry(t, forwarderKey, 6, recipient, 1500)))
		got, err = r.ResolveAt(recipient, 1600)
		require.NoError(err)
		require.Equal(recipient, got)
	})
}

func TestDeregister(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)

		require.ErrorIs(r.Deregister(recipient, 1, signDeregister(t, forwarderKey, 1, recipient)), ErrNotRegistered)

		require.NoError(r.Register(recipient, forwarder, 2, 0, signRegister(t, recipientKey, 2, forwarder), nil))

		// the recipient cannot remove the forwarder on its own
		require.ErrorIs(r.Deregister(recipient, 3, signDeregister(t, recipientKey, 3, recipient)), ErrInvalidSignature)
		// the nonce is shared with Register
		require.ErrorIs(r.Deregister(recipient, 2, signDeregister(t, forwarderKey, 2, recipient)), ErrInvalidNonce)

		sig := signDeregister(t, forwarderKey, 3, recipient)
		require.NoError(r.Deregister(recipient, 3, sig))
		require.ErrorIs(r.Deregister(recipient, 3, sig), ErrNotRegistered)

		// a register message signed before the deregistration cannot be replayed
		require.ErrorIs(r.Register(recipient, forwarder, 2, 0, signRegister(t, recipientKey, 2, forwarder), nil), ErrInvalidNonce)
	})
}

func TestResolveAtExpiry(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)

		require.NoError(r.Register(recipient, forwarder, 1, 1500, signRegister(t, recipientKey, 1, forwarder), signExpiry(t, forwarderKey, 1, recipient, 1500)))

		for _, tt := range []struct {
			epoch idx.Epoch
			want  common.Address
		}{
			{1000, forwarder},
			{1500, forwarder},
			{1501, recipient},
		} {
			got, err := r.ResolveAt(recipient, tt.epoch)
			require.NoError(err)
			require.Equal(tt.want, got, "epoch %d", tt.epoch)
		}

		// Resolve judges expiry by the latest committed epoch
		got, err := r.Resolve(recipient)
		require.NoError(err)
		require.Equal(forwarder, got)
		for _, tt := range []struct {
			committed idx.Epoch
			want      common.Address
		}{
			{1500, forwarder},
			{1501, recipient},
		} {
			require.NoError(r.store.Update(func(tx store.Tx) error {
				return tx.AppendCommit(inter.CommitRecord{Epoch: tt.committed})
			}))
			got, err = r.Resolve(recipient)
			require.NoError(err)
			require.Equal(tt.want, got, "committed %d", tt.committed)
		}

		// unrelated recipients resolve to themselves
		got, err = r.ResolveAt(stranger, 1000)
		require.NoError(err)
		require.Equal(stranger, got)
	})
}

// TestConcurrentRegisterSameNonce submits one valid message from many
// goroutines; exactly one must be accepted.
func TestConcurrentRegisterSameNonce(t *testing.T) {
	backends(t, func(t *testing.T, r *Registry) {
		require := require.New(t)
		sig := signRegister(t, recipientKey, 7, forwarder)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if r.Register(recipient, forwarder, 7, 0, sig, nil) == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Equal(1, accepted)
	})
}
