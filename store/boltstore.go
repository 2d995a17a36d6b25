package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"

	"github.com/rony4d/go-hermes/inter"
)

var (
	bucketRecipientEpochs = []byte("recipient_epochs") // delegate || recipient -> epoch
	bucketLive            = []byte("live")             // delegate -> counters
	bucketSnapshots       = []byte("snapshots")        // delegate || epoch -> counters
	bucketHistory         = []byte("history")          // index -> epoch
	bucketCommits         = []byte("commits")          // index -> commit record
	bucketForwards        = []byte("forwards")         // recipient -> forward record
	bucketMeta            = []byte("meta")

	keyHistoryLen = []byte("history_len")
	keyEndpoint   = []byte("analytics_endpoint")

	allBuckets = [][]byte{
		bucketRecipientEpochs, bucketLive, bucketSnapshots,
		bucketHistory, bucketCommits, bucketForwards, bucketMeta,
	}
)

// BoltStore persists the tables in a bbolt database file.
type BoltStore struct {
	db *bbolt.DB

	mu     sync.RWMutex
	closed bool
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the database at path.
// The parent directory is created if it does not exist.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string { return s.db.Path() }

// View implements Store.
func (s *BoltStore) View(fn func(Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Update implements Store. bbolt rolls the transaction back when fn fails.
func (s *BoltStore) Update(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&boltTx{tx: tx})
	})
}

// Close implements Store. It waits for running transactions to finish.
func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

func trackerKeyBytes(d inter.Delegate, rcpt common.Address) []byte {
	k := make([]byte, 0, inter.DelegateLength+common.AddressLength)
	k = append(k, d[:]...)
	return append(k, rcpt[:]...)
}

func snapshotKeyBytes(d inter.Delegate, e idx.Epoch) []byte {
	k := make([]byte, 0, inter.DelegateLength+4)
	k = append(k, d[:]...)
	return append(k, e.Bytes()...)
}

// boltTx adapts a bbolt transaction to Tx. Read-only bbolt transactions
// return bbolt.ErrTxNotWritable from the writer methods.
type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) RecipientEpoch(d inter.Delegate, rcpt common.Address) (idx.Epoch, bool, error) {
	v := t.tx.Bucket(bucketRecipientEpochs).Get(trackerKeyBytes(d, rcpt))
	if v == nil {
		return 0, false, nil
	}
	if len(v) != 4 {
		return 0, false, fmt.Errorf("store: corrupt recipient epoch (%d bytes)", len(v))
	}
	return idx.Epoch(bigendian.BytesToUint32(v)), true, nil
}

func (t *boltTx) LiveCounters(d inter.Delegate) (inter.Counters, error) {
	v := t.tx.Bucket(bucketLive).Get(d[:])
	if v == nil {
		return inter.ZeroCounters(), nil
	}
	c, err := inter.UnmarshalCounters(v)
	if err != nil {
		return inter.Counters{}, fmt.Errorf("store: decode live counters: %w", err)
	}
	return c, nil
}

func (t *boltTx) Snapshot(d inter.Delegate, e idx.Epoch) (inter.Counters, bool, error) {
	v := t.tx.Bucket(bucketSnapshots).Get(snapshotKeyBytes(d, e))
	if v == nil {
		return inter.ZeroCounters(), false, nil
	}
	c, err := inter.UnmarshalCounters(v)
	if err != nil {
		return inter.Counters{}, false, fmt.Errorf("store: decode snapshot: %w", err)
	}
	return c, true, nil
}

func (t *boltTx) HistoryLen() (uint64, error) {
	v := t.tx.Bucket(bucketMeta).Get(keyHistoryLen)
	if v == nil {
		return 0, nil
	}
	return bigendian.BytesToUint64(v), nil
}

func (t *boltTx) HistoryAt(i uint64) (idx.Epoch, error) {
	v := t.tx.Bucket(bucketHistory).Get(bigendian.Uint64ToBytes(i))
	if v == nil {
		return 0, ErrNotFound
	}
	return idx.Epoch(bigendian.BytesToUint32(v)), nil
}

func (t *boltTx) CommitRecord(i uint64) (inter.CommitRecord, error) {
	v := t.tx.Bucket(bucketCommits).Get(bigendian.Uint64ToBytes(i))
	if v == nil {
		return inter.CommitRecord{}, ErrNotFound
	}
	rec, err := inter.UnmarshalCommitRecord(v)
	if err != nil {
		return inter.CommitRecord{}, fmt.Errorf("store: decode commit record: %w", err)
	}
	return rec, nil
}

func (t *boltTx) ForwardRecord(rcpt common.Address) (inter.ForwardRecord, error) {
	v := t.tx.Bucket(bucketForwards).Get(rcpt[:])
	if v == nil {
		return inter.ForwardRecord{}, nil
	}
	rec, err := inter.UnmarshalForwardRecord(v)
	if err != nil {
		return inter.ForwardRecord{}, fmt.Errorf("store: decode forward record: %w", err)
	}
	return rec, nil
}

func (t *boltTx) AnalyticsEndpoint() (string, bool, error) {
	v := t.tx.Bucket(bucketMeta).Get(keyEndpoint)
	// values carry a one byte tag so that an empty endpoint is distinguishable
	// from an unset one
	if len(v) == 0 {
		return "", false, nil
	}
	return string(v[1:]), true, nil
}

func (t *boltTx) SetRecipientEpoch(d inter.Delegate, rcpt common.Address, e idx.Epoch) error {
	return t.tx.Bucket(bucketRecipientEpochs).Put(trackerKeyBytes(d, rcpt), e.Bytes())
}

func (t *boltTx) SetLiveCounters(d inter.Delegate, c inter.Counters) error {
	b, err := inter.MarshalCounters(c)
	if err != nil {
		return fmt.Errorf("store: encode live counters: %w", err)
	}
	return t.tx.Bucket(bucketLive).Put(d[:], b)
}

func (t *boltTx) PutSnapshot(d inter.Delegate, e idx.Epoch, c inter.Counters) error {
	b, err := inter.MarshalCounters(c)
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}
	return t.tx.Bucket(bucketSnapshots).Put(snapshotKeyBytes(d, e), b)
}

func (t *boltTx) AppendCommit(rec inter.CommitRecord) error {
	n, err := t.HistoryLen()
	if err != nil {
		return err
	}
	b, err := inter.MarshalCommitRecord(rec)
	if err != nil {
		return fmt.Errorf("store: encode commit record: %w", err)
	}
	key := bigendian.Uint64ToBytes(n)
	if err := t.tx.Bucket(bucketHistory).Put(key, rec.Epoch.Bytes()); err != nil {
		return err
	}
	if err := t.tx.Bucket(bucketCommits).Put(key, b); err != nil {
		return err
	}
	return t.tx.Bucket(bucketMeta).Put(keyHistoryLen, bigendian.Uint64ToBytes(n+1))
}

func (t *boltTx) PutForwardRecord(rcpt common.Address, rec inter.ForwardRecord) error {
	b, err := inter.MarshalForwardRecord(rec)
	if err != nil {
		return fmt.Errorf("store: encode forward record: %w", err)
	}
	return t.tx.Bucket(bucketForwards).Put(rcpt[:], b)
}

func (t *boltTx) SetAnalyticsEndpoint(endpoint string) error {
	return t.tx.Bucket(bucketMeta).Put(keyEndpoint, append([]byte{1}, endpoint...))
}
