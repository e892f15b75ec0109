package orders

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Store keeps orders keyed by id. List returns them in insertion order;
// re-putting an existing id keeps its original position.
type Store interface {
	Put(o Order) error
	Get(id string) (Order, bool, error)
	Delete(id string) (bool, error)
	List() ([]Order, error)
}

type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
	seq    []string // ids in insertion order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]Order)}
}

func (s *MemoryStore) Put(o Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		s.seq = append(s.seq, o.ID)
	}
	s.orders[o.ID] = o
	return nil
}

func (s *MemoryStore) Get(id string) (Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	return o, ok, nil
}

func (s *MemoryStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return false, nil
	}
	delete(s.orders, id)
	for i, v := range s.seq {
		if v == id {
			s.seq = append(s.seq[:i], s.seq[i+1:]...)
			break
		}
	}
	return true, nil
}

func (s *MemoryStore) List() ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, 0, len(s.seq))
	for _, id := range s.seq {
		out = append(out, s.orders[id])
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)

type IDGenerator interface {
	Next() string
}

// SequenceGenerator hands out decimal ids counting up from start+1.
type SequenceGenerator struct {
	n atomic.Uint64
}

func NewSequenceGenerator(start uint64) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.n.Store(start)
	return g
}

func (g *SequenceGenerator) Next() string {
	return strconv.FormatUint(g.n.Add(1), 10)
}
