package store

import (
	"sync"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-hermes/inter"
)

type trackerKey struct {
	delegate  inter.Delegate
	recipient common.Address
}

type snapshotKey struct {
	delegate inter.Delegate
	epoch    idx.Epoch
}

// tables is the in-memory layout shared by the committed state and the
// staging buffer of a transaction.
type tables struct {
	recipientEpochs map[trackerKey]idx.Epoch
	live            map[inter.Delegate]inter.Counters
	snapshots       map[snapshotKey]inter.Counters
	commits         []inter.CommitRecord
	forwards        map[common.Address]inter.ForwardRecord
	endpoint        *string
}

func newTables() *tables {
	return &tables{
		recipientEpochs: make(map[trackerKey]idx.Epoch),
		live:            make(map[inter.Delegate]inter.Counters),
		snapshots:       make(map[snapshotKey]inter.Counters),
		forwards:        make(map[common.Address]inter.ForwardRecord),
	}
}

// MemStore is a Store kept entirely in memory. Writers are serialized;
// readers only wait while a finished transaction is being applied.
type MemStore struct {
	writeMu sync.Mutex   // serializes Update calls
	mu      sync.RWMutex // guards state and closed
	state   *tables
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: newTables()}
}

// View implements Store.
func (s *MemStore) View(fn func(Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memReader{t: s.state})
}

// Update implements Store. Writes are staged in a private buffer and merged
// into the shared tables only after fn succeeds.
func (s *MemStore) Update(fn func(Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	// Only this goroutine mutates state while writeMu is held, so the base
	// may be read without mu during fn.
	tx := &memTx{base: &memReader{t: s.state}, pending: newTables()}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.applyTo(s.state)
	return nil
}

// Close implements Store.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return nil
}

// memReader reads committed tables.
type memReader struct {
	t *tables
}

func (r *memReader) RecipientEpoch(d inter.Delegate, rcpt common.Address) (idx.Epoch, bool, error) {
	e, ok := r.t.recipientEpochs[trackerKey{d, rcpt}]
	return e, ok, nil
}

func (r *memReader) LiveCounters(d inter.Delegate) (inter.Counters, error) {
	c, ok := r.t.live[d]
	if !ok {
		return inter.ZeroCounters(), nil
	}
	return c.Copy(), nil
}

func (r *memReader) Snapshot(d inter.Delegate, e idx.Epoch) (inter.Counters, bool, error) {
	c, ok := r.t.snapshots[snapshotKey{d, e}]
	if !ok {
		return inter.ZeroCounters(), false, nil
	}
	return c.Copy(), true, nil
}

func (r *memReader) HistoryLen() (uint64, error) {
	return uint64(len(r.t.commits)), nil
}

func (r *memReader) HistoryAt(i uint64) (idx.Epoch, error) {
	if i >= uint64(len(r.t.commits)) {
		return 0, ErrNotFound
	}
	return r.t.commits[i].Epoch, nil
}

func (r *memReader) CommitRecord(i uint64) (inter.CommitRecord, error) {
	if i >= uint64(len(r.t.commits)) {
		return inter.CommitRecord{}, ErrNotFound
	}
	return copyCommit(r.t.commits[i]), nil
}

func (r *memReader) ForwardRecord(rcpt common.Address) (inter.ForwardRecord, error) {
	return r.t.forwards[rcpt], nil
}

func (r *memReader) AnalyticsEndpoint() (string, bool, error) {
	if r.t.endpoint == nil {
		return "", false, nil
	}
	return *r.t.endpoint, true, nil
}

// memTx layers pending writes over the committed tables.
type memTx struct {
	base    *memReader
	pending *tables
}

func (tx *memTx) RecipientEpoch(d inter.Delegate, rcpt common.Address) (idx.Epoch, bool, error) {
	if e, ok := tx.pending.recipientEpochs[trackerKey{d, rcpt}]; ok {
		return e, true, nil
	}
	return tx.base.RecipientEpoch(d, rcpt)
}

func (tx *memTx) LiveCounters(d inter.Delegate) (inter.Counters, error) {
	if c, ok := tx.pending.live[d]; ok {
		return c.Copy(), nil
	}
	return tx.base.LiveCounters(d)
}

func (tx *memTx) Snapshot(d inter.Delegate, e idx.Epoch) (inter.Counters, bool, error) {
	if c, ok := tx.pending.snapshots[snapshotKey{d, e}]; ok {
		return c.Copy(), true, nil
	}
	return tx.base.Snapshot(d, e)
}

func (tx *memTx) HistoryLen() (uint64, error) {
	n, _ := tx.base.HistoryLen()
	return n + uint64(len(tx.pending.commits)), nil
}

func (tx *memTx) HistoryAt(i uint64) (idx.Epoch, error) {
	rec, err := tx.CommitRecord(i)
	if err != nil {
		return 0, err
	}
	return rec.Epoch, nil
}

func (tx *memTx) CommitRecord(i uint64) (inter.CommitRecord, error) {
	n, _ := tx.base.HistoryLen()
	if i < n {
		return tx.base.CommitRecord(i)
	}
	j := i - n
	if j >= uint64(len(tx.pending.commits)) {
		return inter.CommitRecord{}, ErrNotFound
	}
	return copyCommit(tx.pending.commits[j]), nil
}

func (tx *memTx) ForwardRecord(rcpt common.Address) (inter.ForwardRecord, error) {
	if rec, ok := tx.pending.forwards[rcpt]; ok {
		return rec, nil
	}
	return tx.base.ForwardRecord(rcpt)
}

func (tx *memTx) AnalyticsEndpoint() (string, bool, error) {
	if tx.pending.endpoint != nil {
		return *tx.pending.endpoint, true, nil
	}
	return tx.base.AnalyticsEndpoint()
}

func (tx *memTx) SetRecipientEpoch(d inter.Delegate, rcpt common.Address, e idx.Epoch) error {
	tx.pending.recipientEpochs[trackerKey{d, rcpt}] = e
	return nil
}

func (tx *memTx) SetLiveCounters(d inter.Delegate, c inter.Counters) error {
	tx.pending.live[d] = c.Copy()
	return nil
}

func (tx *memTx) PutSnapshot(d inter.Delegate, e idx.Epoch, c inter.Counters) error {
	tx.pending.snapshots[snapshotKey{d, e}] = c.Copy()
	return nil
}

func (tx *memTx) AppendCommit(rec inter.CommitRecord) error {
	tx.pending.commits = append(tx.pending.commits, copyCommit(rec))
	return nil
}

func (tx *memTx) PutForwardRecord(rcpt common.Address, rec inter.ForwardRecord) error {
	tx.pending.forwards[rcpt] = rec
	return nil
}

func (tx *memTx) SetAnalyticsEndpoint(endpoint string) error {
	tx.pending.endpoint = &endpoint
	return nil
}

// applyTo merges the staged writes into t.
func (tx *memTx) applyTo(t *tables) {
	for k, v := range tx.pending.recipientEpochs {
		t.recipientEpochs[k] = v
	}
	for k, v := range tx.pending.live {
		t.live[k] = v
	}
	for k, v := range tx.pending.snapshots {
		t.snapshots[k] = v
	}
	t.commits = append(t.commits, tx.pending.commits...)
	for k, v := range tx.pending.forwards {
		t.forwards[k] = v
	}
	if tx.pending.endpoint != nil {
		ep := *tx.pending.endpoint
		t.endpoint = &ep
	}
}

func copyCommit(rec inter.CommitRecord) inter.CommitRecord {
	cp := inter.CommitRecord{
		Epoch:     rec.Epoch,
		Delegates: append([]inter.Delegate(nil), rec.Delegates...),
		Snapshots: make([]inter.Counters, len(rec.Snapshots)),
	}
	for i, s := range rec.Snapshots {
		cp.Snapshots[i] = s.Copy()
	}
	return cp
}
