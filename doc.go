// Package cpupool provides a CPU-local storage (CLS) memory pool allocator.
//
// CLS memory is analogous to thread-local storage: TLS gives each thread
// its own slice of an object, CLS gives each logical CPU its own slice.
// An allocation reserves one fixed-size slot per CPU and returns an opaque
// Handle; combining that handle with a CPU index (via Pool.Ptr) yields the
// address of that CPU's slice of the slot. The package does not itself
// emit restartable instruction sequences — it only produces the addresses
// that application-level restartable sequences consume.
//
// Basic usage:
//
//	attr := cpupool.NewAttr().SetPerCPU(0, runtime.NumCPU())
//	pool, err := cpupool.CreatePool("widgets", 32, attr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Destroy()
//
//	h, err := pool.Malloc()
//	if err != nil {
//		log.Fatal(err)
//	}
//	ptr := pool.Ptr(h, cpu)
//
// Pools can be grouped into a PoolSet to allocate variable-length objects
// by size class:
//
//	set := cpupool.NewPoolSet()
//	set.AddPool(pool)
//	h, err := set.Malloc(24)
//
// None of the exported entry points in this package are async-signal-safe.
package cpupool
