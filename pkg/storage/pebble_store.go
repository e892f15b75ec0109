package storage

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/uhyunpark/orderdesk/pkg/orders"
)

// PebbleStore is an orders.Store on top of Pebble. With an empty path the
// database lives on an in-memory filesystem and is gone after Close.
type PebbleStore struct {
	db *pebble.DB

	mu     sync.Mutex // serializes seq allocation and the index/order pair writes
	seq    uint64
	idHigh uint64
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	opts := &pebble.Options{}
	if path == "" {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	s := &PebbleStore{db: db}
	if err := s.loadSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// IDHighWater returns the largest numeric order id the store has ever
// held, including deleted ones. Zero when none.
func (s *PebbleStore) IDHighWater() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idHigh
}

// loadSeq resumes the insertion counter from the last ord: key and the id
// high-water mark from its meta key.
func (s *PebbleStore) loadSeq() error {
	val, closer, err := s.db.Get(keyIDHigh)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to get id high-water: %w", err)
	default:
		high, derr := decodeSeq(val)
		closer.Close()
		if derr != nil {
			return derr
		}
		s.idHigh = high
	}

	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	if iter.Last() {
		seq, err := seqFromOrderKey(iter.Key())
		if err != nil {
			return err
		}
		s.seq = seq
	}
	return nil
}

func (s *PebbleStore) lookupSeq(id string) (uint64, bool, error) {
	val, closer, err := s.db.Get(indexKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get index: %w", err)
	}
	defer closer.Close()
	seq, err := decodeSeq(val)
	if err != nil {
		return 0, false, err
	}
	return seq, true, nil
}

// Put stores o. An id seen before keeps its insertion position.
func (s *PebbleStore) Put(o orders.Order) error {
	data, err := encodeOrder(o)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok, err := s.lookupSeq(o.ID)
	if err != nil {
		return err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if !ok {
		s.seq++
		seq = s.seq
		if err := b.Set(indexKey(o.ID), encodeSeq(seq), nil); err != nil {
			return err
		}
	}
	if err := b.Set(orderKey(seq), data, nil); err != nil {
		return err
	}
	n, numErr := strconv.ParseUint(o.ID, 10, 64)
	raise := numErr == nil && n > s.idHigh
	if raise {
		if err := b.Set(keyIDHigh, encodeSeq(n), nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if raise {
		s.idHigh = n
	}
	return nil
}

func (s *PebbleStore) Get(id string) (orders.Order, bool, error) {
	seq, ok, err := s.lookupSeq(id)
	if err != nil || !ok {
		return orders.Order{}, false, err
	}

	val, closer, err := s.db.Get(orderKey(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		// deleted between the two reads
		return orders.Order{}, false, nil
	}
	if err != nil {
		return orders.Order{}, false, fmt.Errorf("failed to get order: %w", err)
	}
	defer closer.Close()

	o, err := decodeOrder(val)
	if err != nil {
		return orders.Order{}, false, fmt.Errorf("failed to decode order %s: %w", id, err)
	}
	return o, true, nil
}

func (s *PebbleStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok, err := s.lookupSeq(id)
	if err != nil || !ok {
		return false, err
	}
	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Delete(indexKey(id), nil); err != nil {
		return false, err
	}
	if err := b.Delete(orderKey(seq), nil); err != nil {
		return false, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}
	return true, nil
}

// List scans the ord: prefix, which yields insertion order.
func (s *PebbleStore) List() ([]orders.Order, error) {
	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []orders.Order
	for iter.First(); iter.Valid(); iter.Next() {
		o, err := decodeOrder(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", iter.Key(), err)
		}
		out = append(out, o)
	}
	return out, iter.Error()
}

var _ orders.Store = (*PebbleStore)(nil)
