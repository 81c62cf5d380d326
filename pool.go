package cpupool

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math/bits"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Pool is one size class: a fixed-capacity slab owning one contiguous
// mapping of stride*maxCPUs bytes. Allocation and free are served by a
// combination of a LIFO intrusive free list and a bump-pointer cursor,
// protected by a single mutex. See the package's data model for the field
// semantics.
type Pool struct {
	name string

	// index is this pool's slot in the process-wide directory; 0 until
	// CreatePool finishes inserting it.
	index int

	itemLen   uintptr
	itemOrder int
	stride    uintptr
	maxCPUs   int
	poolType  PoolType

	lock       sync.Mutex
	base       []byte
	freeHead   int64 // item_offset of the free-list head, -1 if empty
	nextUnused uintptr
	destroyed  bool

	mapping Mapping

	robust bool
	bitmap *freeBitmap
	slots  int // stride/itemLen, also the bitmap's slot count

	logger *slog.Logger

	// allocs and frees are lifetime counters surfaced via Stats; they are
	// diagnostic only and never consulted by malloc/free themselves.
	allocs atomic.Uint64
	frees  atomic.Uint64
}

// CreatePool creates a new pool named name for items of size itemLen
// (rounded up to a power of two, at least one machine word). attr may be
// nil to accept all defaults (a global pool with the default mapping
// backend).
//
// This is MT-safe: CreatePool may be called concurrently from multiple
// goroutines, each claiming a distinct directory slot.
func CreatePool(name string, itemLen uintptr, attr *Attributes) (*Pool, error) {
	if attr == nil {
		attr = NewAttr()
	}
	if attr.maxCPUs < 0 {
		return nil, fmt.Errorf("cpupool: %w: max_cpus must not be negative", ErrInvalidArgument)
	}
	if attr.mapping.Map == nil || attr.mapping.Unmap == nil {
		return nil, fmt.Errorf("cpupool: %w: mapping backend must supply both map and unmap", ErrInvalidArgument)
	}

	if itemLen < wordSize {
		itemLen = wordSize
	}
	itemLen = nextPowerOfTwo(itemLen)
	itemOrder := bits.Len(uint(itemLen)) - 1

	stride := attr.stride
	if stride == 0 {
		stride = defaultStride
	}
	stride = roundUpToPage(stride)

	if itemLen > stride {
		return nil, fmt.Errorf("cpupool: %w: item_len %d exceeds stride %d", ErrInvalidArgument, itemLen, stride)
	}
	if stride > MaxPoolLen {
		return nil, fmt.Errorf("cpupool: %w: stride %d exceeds maximum pool length %d", ErrInvalidArgument, stride, uintptr(MaxPoolLen))
	}

	maxCPUs := attr.maxCPUs
	if maxCPUs == 0 {
		maxCPUs = 1
	}

	p := &Pool{
		name:      name,
		itemLen:   itemLen,
		itemOrder: itemOrder,
		stride:    stride,
		maxCPUs:   maxCPUs,
		poolType:  attr.poolType,
		freeHead:  -1,
		mapping:   attr.mapping,
		robust:    attr.robust,
		slots:     int(stride / itemLen),
		logger:    attr.logger,
	}

	globalDirectory.mu.Lock()
	index, err := globalDirectory.reserve(p)
	if err != nil {
		globalDirectory.mu.Unlock()
		return nil, err
	}

	totalLen := stride * uintptr(maxCPUs)
	base, mapErr := attr.mapping.Map(attr.mapping.Priv, totalLen)
	if mapErr != nil {
		globalDirectory.release(index)
		globalDirectory.mu.Unlock()
		p.log("mapping backend failed", "len", totalLen, "error", mapErr)
		return nil, mapErr
	}
	p.base = base
	p.index = index

	if p.robust {
		bm, bmErr := newFreeBitmap(p.slots)
		if bmErr != nil {
			attr.mapping.Unmap(attr.mapping.Priv, base)
			globalDirectory.release(index)
			globalDirectory.mu.Unlock()
			p.log("robust bitmap allocation failed", "slots", p.slots, "error", bmErr)
			return nil, bmErr
		}
		p.bitmap = bm
	}
	globalDirectory.mu.Unlock()

	if attr.initFn != nil {
		for cpu := 0; cpu < maxCPUs; cpu++ {
			slice := p.base[uintptr(cpu)*stride : uintptr(cpu+1)*stride]
			if err := attr.initFn(attr.initPriv, slice, stride, cpu); err != nil {
				p.log("init callback failed", "cpu", cpu, "error", err)
				_ = p.Destroy()
				return nil, fmt.Errorf("cpupool: init callback failed for cpu %d: %w", cpu, err)
			}
		}
	}

	return p, nil
}

// log reports a diagnostic if a logger was installed via
// Attributes.SetLogger; it is a no-op otherwise, so callers never need to
// guard against a nil logger themselves.
func (p *Pool) log(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Error(msg, append([]any{"pool", p.name}, args...)...)
}

// Name returns the informational name given at creation; it is never
// interpreted by the allocator.
func (p *Pool) Name() string { return p.name }

// ItemLen returns the pool's rounded-up-to-power-of-two item size.
func (p *Pool) ItemLen() uintptr { return p.itemLen }

// Stride returns the page-aligned per-CPU byte reservation.
func (p *Pool) Stride() uintptr { return p.stride }

// MaxCPUs returns the number of CPU slices reserved by this pool.
func (p *Pool) MaxCPUs() int { return p.maxCPUs }

// Malloc reserves one slot and returns a handle to it. The slot's
// contents are whatever was last left there (or zero-filled-on-map
// garbage, for a slot never before handed out); use Zmalloc for a
// zeroed guarantee.
func (p *Pool) Malloc() (Handle, error) {
	return p.malloc(false)
}

// Zmalloc behaves like Malloc but additionally zeroes every CPU's slice
// of the returned slot before returning. The zero guarantee is
// reestablished on every call, not just the first time a slot is used,
// so it holds uniformly whether the slot is fresh or recycled.
func (p *Pool) Zmalloc() (Handle, error) {
	return p.malloc(true)
}

func (p *Pool) malloc(zeroed bool) (Handle, error) {
	p.lock.Lock()
	if p.destroyed {
		p.lock.Unlock()
		return 0, ErrPoolNotFound
	}

	var offset uintptr
	if p.freeHead >= 0 {
		offset = uintptr(p.freeHead)
		p.freeHead = p.readNext(offset)
		if p.robust {
			p.bitmap.markAllocated(int(offset / p.itemLen))
		}
	} else if p.nextUnused+p.itemLen <= p.stride {
		offset = p.nextUnused
		p.nextUnused += p.itemLen
		if p.robust {
			p.bitmap.markAllocated(int(offset / p.itemLen))
		}
	} else {
		p.lock.Unlock()
		p.log("pool exhausted", "slots", p.slots)
		return 0, ErrOutOfMemory
	}
	p.lock.Unlock()
	p.allocs.Add(1)

	if zeroed {
		p.zeroAllSlices(offset)
	}

	return makeHandle(p.index, offset), nil
}

// Free returns h's slot to the pool for reuse. Freeing the null handle,
// or a handle from an already-destroyed pool, is undefined behaviour and
// is not checked, per the package's data model.
func (p *Pool) Free(h Handle) {
	_, offset := h.decode()
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.robust {
		p.bitmap.markFree(int(offset / p.itemLen))
	}
	p.writeNext(offset, p.freeHead)
	p.freeHead = int64(offset)
	p.frees.Add(1)
}

// Ptr resolves h plus a CPU index into the real address of that CPU's
// slice of the slot. This is pure address arithmetic: it does not take
// the pool lock, and callers are responsible for ensuring cpu is within
// [0, MaxCPUs); cpu is not validated against MaxCPUs, and an index past
// the end of the mapped region panics through Go's slice bounds check.
func (p *Pool) Ptr(h Handle, cpu int) unsafe.Pointer {
	_, offset := h.decode()
	idx := uintptr(cpu)*p.stride + offset
	return unsafe.Pointer(&p.base[idx])
}

// PtrForCPU resolves a handle plus a CPU index into a real address without
// requiring the caller to hold onto the originating *Pool, recovering
// base and stride from the process-wide directory the same way the
// package's handle-decoding contract describes it. Like Pool.Ptr, this is
// pure address arithmetic: no lock is taken, and an out-of-range cpu or a
// handle from a destroyed pool is undefined behaviour, not checked here.
// It panics if the handle's pool index is not currently assigned in the
// directory, and, like Pool.Ptr, on an index past the mapped region.
func PtrForCPU(h Handle, cpu int) unsafe.Pointer {
	poolIndex, _ := h.decode()
	p := globalDirectory.lookup(poolIndex)
	if p == nil {
		panic(fmt.Sprintf("cpupool: handle refers to unknown pool index %d", poolIndex))
	}
	return p.Ptr(h, cpu)
}

// Bytes is a convenience over Ptr that returns the slot's backing memory
// for one CPU as a byte slice of length ItemLen, bounds-checked via
// ordinary slicing (an out-of-range cpu that reaches past the mapped
// region panics, as it does for Ptr).
func (p *Pool) Bytes(h Handle, cpu int) []byte {
	_, offset := h.decode()
	start := uintptr(cpu)*p.stride + offset
	return p.base[start : start+p.itemLen]
}

// GlobalPtr is the global-pool convenience wrapper: a handle-to-pointer
// cast over a pool created with SetGlobal (MaxCPUs==1).
func (p *Pool) GlobalPtr(h Handle) unsafe.Pointer {
	return p.Ptr(h, 0)
}

// Destroy releases the pool's mapping and removes it from the process
// directory. In robust mode, any slot still marked allocated is a leak:
// Destroy panics with a diagnostic before releasing the mapping, so the
// memory remains inspectable. Using handles from a destroyed pool
// afterward is undefined behaviour.
func (p *Pool) Destroy() error {
	globalDirectory.mu.Lock()
	defer globalDirectory.mu.Unlock()

	p.lock.Lock()
	if p.destroyed {
		p.lock.Unlock()
		return ErrPoolNotFound
	}
	if p.robust {
		p.assertAllFreeLogged()
	}
	p.destroyed = true
	base := p.base
	p.lock.Unlock()

	if err := p.mapping.Unmap(p.mapping.Priv, base); err != nil {
		p.log("unmap failed", "error", err)
		return err
	}
	if p.index != 0 {
		globalDirectory.release(p.index)
	}
	return nil
}

// Stats returns a snapshot of this pool's lifetime allocation counters.
// Reading it takes no lock; the three fields may be mutually inconsistent
// under concurrent traffic, same as any other racy counter read.
func (p *Pool) Stats() PoolStats {
	allocs := p.allocs.Load()
	frees := p.frees.Load()
	return PoolStats{
		Allocs:  allocs,
		Frees:   frees,
		InUse:   allocs - frees,
		Slots:   p.slots,
		MaxCPUs: p.maxCPUs,
	}
}

// InitNUMA moves every page of every CPU's slice to the NUMA node that
// logical CPU is attached to. See numa.go for the platform-specific
// implementation; on systems without NUMA support this is a no-op that
// returns nil.
func (p *Pool) InitNUMA(flags int) error {
	for cpu := 0; cpu < p.maxCPUs; cpu++ {
		slice := p.base[uintptr(cpu)*p.stride : uintptr(cpu+1)*p.stride]
		if err := RangeInitNUMA(slice, cpu, flags); err != nil {
			return err
		}
	}
	return nil
}

// assertAllFreeLogged reports the leak to the installed logger, if any,
// before letting the bitmap's own panic propagate: Destroy must still
// abort, but an operator with logging configured gets the diagnostic on
// its way out rather than only a bare panic message.
func (p *Pool) assertAllFreeLogged() {
	if p.logger != nil {
		if n := p.bitmap.allocatedCount(); n > 0 {
			p.log("leak detected at destroy", "allocated_slots", n)
		}
	}
	p.bitmap.assertAllFree()
}

func (p *Pool) zeroAllSlices(offset uintptr) {
	for cpu := 0; cpu < p.maxCPUs; cpu++ {
		start := uintptr(cpu)*p.stride + offset
		clear(p.base[start : start+p.itemLen])
	}
}

// readNext reads the free-list link stored at offset within CPU 0's
// slice, returning -1 for a nil next pointer. Links are stored biased by
// one (a stored 0 means nil, a stored n means offset n-1), since 0 is
// itself a valid offset. The link is wordSize bytes wide, matching the
// minimum item_len the allocator ever hands out, so the write never
// spills past the slot on 32-bit targets.
func (p *Pool) readNext(offset uintptr) int64 {
	if wordSize == 8 {
		return int64(binary.NativeEndian.Uint64(p.base[offset:offset+8])) - 1
	}
	return int64(binary.NativeEndian.Uint32(p.base[offset:offset+4])) - 1
}

// writeNext stores next (or the nil sentinel, for next < 0) as the
// free-list link at offset within CPU 0's slice.
func (p *Pool) writeNext(offset uintptr, next int64) {
	if wordSize == 8 {
		binary.NativeEndian.PutUint64(p.base[offset:offset+8], uint64(next+1))
		return
	}
	binary.NativeEndian.PutUint32(p.base[offset:offset+4], uint32(next+1))
}

func nextPowerOfTwo(v uintptr) uintptr {
	if v <= 1 {
		return 1
	}
	return uintptr(1) << bits.Len(uint(v-1))
}

func roundUpToPage(v uintptr) uintptr {
	page := uintptr(os.Getpagesize())
	return (v + page - 1) &^ (page - 1)
}
