package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
)

// The persisted forms are RLP lists. Nil amounts are normalised to zero
// before encoding so that a decoded value never carries a nil *big.Int.

// MarshalCounters encodes c for storage.
func MarshalCounters(c Counters) ([]byte, error) {
	return rlp.EncodeToBytes(c.Copy())
}

// UnmarshalCounters decodes a value written by MarshalCounters.
func UnmarshalCounters(b []byte) (Counters, error) {
	var c Counters
	if err := rlp.DecodeBytes(b, &c); err != nil {
		return Counters{}, err
	}
	if c.Amount == nil {
		c.Amount = new(big.Int)
	}
	return c, nil
}

// MarshalForwardRecord encodes r for storage.
func MarshalForwardRecord(r ForwardRecord) ([]byte, error) {
	return rlp.EncodeToBytes(&r)
}

// UnmarshalForwardRecord decodes a value written by MarshalForwardRecord.
func UnmarshalForwardRecord(b []byte) (ForwardRecord, error) {
	var r ForwardRecord
	err := rlp.DecodeBytes(b, &r)
	return r, err
}

// MarshalCommitRecord encodes r for storage.
func MarshalCommitRecord(r CommitRecord) ([]byte, error) {
	cp := CommitRecord{
		Epoch:     r.Epoch,
		Delegates: r.Delegates,
		Snapshots: make([]Counters, len(r.Snapshots)),
	}
	for i, s := range r.Snapshots {
		cp.Snapshots[i] = s.Copy()
	}
	return rlp.EncodeToBytes(&cp)
}

// UnmarshalCommitRecord decodes a value written by MarshalCommitRecord.
func UnmarshalCommitRecord(b []byte) (CommitRecord, error) {
	var r CommitRecord
	if err := rlp.DecodeBytes(b, &r); err != nil {
		return CommitRecord{}, err
	}
	for i := range r.Snapshots {
		if r.Snapshots[i].Amount == nil {
			r.Snapshots[i].Amount = new(big.Int)
		}
	}
	return r, nil
}
