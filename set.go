package cpupool

import (
	"math/bits"
	"sync"
)

// PoolSet is a collection of pools indexed by size-class order, used to
// perform variable-length allocation: Malloc picks the smallest
// registered pool whose item size is at least the requested length,
// falling back to the next larger class on exhaustion.
type PoolSet struct {
	mu      sync.Mutex
	entries [PoolSetEntries]*Pool
}

// NewPoolSet returns an empty pool set.
func NewPoolSet() *PoolSet {
	return &PoolSet{}
}

// AddPool registers pool under its item_order size class. Ownership of
// pool moves into the set; returns ErrSlotBusy if that size class is
// already occupied.
func (s *PoolSet) AddPool(pool *Pool) error {
	order := pool.itemOrder
	if order < 0 || order >= PoolSetEntries {
		return ErrInvalidArgument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries[order] != nil {
		return ErrSlotBusy
	}
	s.entries[order] = pool
	return nil
}

// Malloc allocates length bytes from the smallest registered pool whose
// item size is at least length (length below the minimum size class is
// clamped up to it, the same way rseq_mempool_set_malloc clamps a
// sub-minimum request rather than erroring), retrying the next larger
// size class on ENOMEM. Returns ErrOutOfMemory if no registered pool can
// satisfy the request.
func (s *PoolSet) Malloc(length uintptr) (Handle, error) {
	return s.malloc(length, false)
}

// Zmalloc behaves like Malloc but returns zeroed memory, per Pool.Zmalloc.
func (s *PoolSet) Zmalloc(length uintptr) (Handle, error) {
	return s.malloc(length, true)
}

func (s *PoolSet) malloc(length uintptr, zeroed bool) (Handle, error) {
	order := orderFor(length)
	if order < minItemOrder {
		order = minItemOrder
	}

	for o := order; o < PoolSetEntries; o++ {
		s.mu.Lock()
		pool := s.entries[o]
		s.mu.Unlock()
		if pool == nil {
			continue
		}
		var h Handle
		var err error
		if zeroed {
			h, err = pool.Zmalloc()
		} else {
			h, err = pool.Malloc()
		}
		if err == nil {
			return h, nil
		}
		if err != ErrOutOfMemory {
			return 0, err
		}
	}
	return 0, ErrOutOfMemory
}

// Destroy destroys every registered pool. It stops at the first error,
// returning it; the set (and any pools not yet reached) must not be used
// afterward, matching the partial-failure semantics of the underlying
// per-pool Destroy.
func (s *PoolSet) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, pool := range s.entries {
		if pool == nil {
			continue
		}
		if err := pool.Destroy(); err != nil {
			return err
		}
		s.entries[i] = nil
	}
	return nil
}

// orderFor computes ceil(log2(max(length, 1))): the size-class order
// needed to satisfy an allocation request of length bytes.
func orderFor(length uintptr) int {
	if length <= 1 {
		return 0
	}
	return bits.Len(uint(length - 1))
}
