// Package inter defines the values exchanged between the ledger, the forward
// registry and the store: delegate identifiers, distribution counters,
// forward authorization records and commit records. Everything here is plain
// data; no type in this package knows how it is persisted or who owns it.
package inter

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DelegateLength is the fixed width of a delegate identifier (a bytes32 on chain).
const DelegateLength = 32

// ErrDelegateTooLong is returned when a name does not fit into a Delegate.
var ErrDelegateTooLong = errors.New("delegate name longer than 32 bytes")

// Delegate identifies the entity on whose behalf rewards are distributed.
// It is an ASCII name right-padded with zero bytes. Two delegates are equal
// only when all 32 bytes match; no case folding or trimming is applied.
type Delegate [DelegateLength]byte

// DelegateFromString copies name into a Delegate, padding with zeros.
func DelegateFromString(name string) (Delegate, error) {
	var d Delegate
	if len(name) > DelegateLength {
		return d, ErrDelegateTooLong
	}
	copy(d[:], name)
	return d, nil
}

// MustDelegate is DelegateFromString for constants and tests.
func MustDelegate(name string) Delegate {
	d, err := DelegateFromString(name)
	if err != nil {
		panic(err)
	}
	return d
}

// BytesToDelegate copies b into a Delegate. Longer input is truncated.
func BytesToDelegate(b []byte) Delegate {
	var d Delegate
	copy(d[:], b)
	return d
}

// Bytes returns a copy of the raw 32 bytes.
func (d Delegate) Bytes() []byte {
	return common.CopyBytes(d[:])
}

// Name returns the printable part of the identifier (trailing zeros removed).
func (d Delegate) Name() string {
	return string(bytes.TrimRight(d[:], "\x00"))
}

// Hex returns the 0x-prefixed hex encoding of all 32 bytes.
func (d Delegate) Hex() string {
	return "0x" + common.Bytes2Hex(d[:])
}

// String returns the name when it is printable ASCII, the hex form otherwise.
func (d Delegate) String() string {
	name := d.Name()
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return d.Hex()
		}
	}
	return name
}

// IsZero reports whether every byte is zero.
func (d Delegate) IsZero() bool {
	return d == Delegate{}
}

// MarshalText implements encoding.TextMarshaler.
func (d Delegate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts either a 0x-prefixed 32 byte hex string or a plain name.
func (d *Delegate) UnmarshalText(input []byte) error {
	res, err := ParseDelegate(string(input))
	if err != nil {
		return err
	}
	*d = res
	return nil
}

// ParseDelegate is the inverse of String.
func ParseDelegate(s string) (Delegate, error) {
	if strings.HasPrefix(s, "0x") && len(s) == 2+2*DelegateLength {
		raw := common.FromHex(s)
		if len(raw) == DelegateLength {
			return BytesToDelegate(raw), nil
		}
	}
	return DelegateFromString(s)
}

// Delegates is a sortable list of delegate identifiers.
type Delegates []Delegate

func (ds Delegates) Len() int           { return len(ds) }
func (ds Delegates) Less(i, j int) bool { return bytes.Compare(ds[i][:], ds[j][:]) < 0 }
func (ds Delegates) Swap(i, j int)      { ds[i], ds[j] = ds[j], ds[i] }

// Unique returns the list without repeated entries, keeping first occurrences.
func (ds Delegates) Unique() Delegates {
	seen := make(map[Delegate]struct{}, len(ds))
	out := make(Delegates, 0, len(ds))
	for _, d := range ds {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}
