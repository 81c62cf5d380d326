package cpupool

import "log/slog"

// defaultStride is the virtual-byte reservation per CPU used when an
// Attributes value leaves Stride at zero, matching the original
// allocator's RSEQ_MEMPOOL_STRIDE default of 64 KiB.
const defaultStride = 1 << 16

// InitFunc is invoked once per CPU slice immediately after a pool's
// mapping is created, before CreatePool returns. The allocator guarantees
// it runs on freshly mapped, zero-filled pages exactly once per CPU.
type InitFunc func(priv any, base []byte, stride uintptr, cpu int) error

// PoolType selects whether a pool reserves one slice per CPU or behaves
// as a plain global slab allocator (maxCPUs == 1).
type PoolType int

const (
	// PerCPU reserves stride bytes for each of MaxCPUs logical CPUs.
	PerCPU PoolType = iota
	// Global is a PerCPU pool with MaxCPUs fixed at 1: a plain slab
	// allocator with no per-CPU replication.
	Global
)

// Attributes is the immutable configuration captured at pool-creation
// time. Ownership stays with the caller; the value may be discarded
// immediately after CreatePool returns. Fields listed here are
// exhaustive, per the package's design notes: reimplement as a plain
// configuration structure, not a hidden opaque type.
type Attributes struct {
	poolType PoolType
	stride   uintptr
	maxCPUs  int

	mapping Mapping

	initFn   InitFunc
	initPriv any

	robust bool

	logger *slog.Logger
}

// NewAttr returns a default Attributes value: a global pool (maxCPUs=1),
// the default anonymous mapping backend, no init callback, robust mode
// disabled.
func NewAttr() *Attributes {
	return &Attributes{
		poolType: Global,
		stride:   0,
		maxCPUs:  1,
		mapping:  defaultMapping(),
	}
}

// SetMapping installs a custom mapping backend with a caller-chosen
// private cookie. Either function may be nil only if both are nil, in
// which case the default backend is restored.
func (a *Attributes) SetMapping(mapFn MapFunc, unmapFn UnmapFunc, priv any) *Attributes {
	if mapFn == nil && unmapFn == nil {
		a.mapping = defaultMapping()
		return a
	}
	a.mapping = Mapping{Map: mapFn, Unmap: unmapFn, Priv: priv}
	return a
}

// SetInit installs a callback invoked once per CPU slice at pool
// creation, before CreatePool returns.
func (a *Attributes) SetInit(fn InitFunc, priv any) *Attributes {
	a.initFn = fn
	a.initPriv = priv
	return a
}

// SetRobust enables the free-bitmap double-free and leak checker.
func (a *Attributes) SetRobust() *Attributes {
	a.robust = true
	return a
}

// SetPerCPU configures a per-CPU pool with the given stride (0 selects
// the default stride) and number of CPU slices.
func (a *Attributes) SetPerCPU(stride uintptr, maxCPUs int) *Attributes {
	a.poolType = PerCPU
	a.stride = stride
	a.maxCPUs = maxCPUs
	return a
}

// SetGlobal configures a global pool: a single CPU slice (maxCPUs=1).
func (a *Attributes) SetGlobal(stride uintptr) *Attributes {
	a.poolType = Global
	a.stride = stride
	a.maxCPUs = 1
	return a
}

// SetLogger installs a structured logger used for consistency-violation
// diagnostics and backend-failure reporting. A nil logger (the default)
// disables logging; violations still panic either way.
func (a *Attributes) SetLogger(logger *slog.Logger) *Attributes {
	a.logger = logger
	return a
}
