package cpupool

// CPUOracle is the one contract this package consumes from the kernel
// "per-CPU sequence facility" described in the package overview: a way to
// fetch the current CPU index. Implementations may return a stale value
// the instant after it is read — callers building restartable sequences
// on top of this package are expected to re-check it themselves.
//
// Pool and PoolSet never call a CPUOracle internally (Pool.Ptr takes its
// cpu argument from the caller, per the package's design); it exists as
// the external boundary, and as a convenience for callers that have not
// registered their own restartable-sequence facility. Tests may supply a
// fake CPUOracle instead of depending on real kernel behaviour.
type CPUOracle interface {
	// CurrentCPU returns the logical CPU the calling thread was last
	// scheduled on. An error indicates the fast path is unavailable;
	// callers should fall back to treating CPU 0 as current or to their
	// own registration with the sequence facility.
	CurrentCPU() (int, error)
}

// DefaultCPUOracle is the platform default CPUOracle: a fast getcpu(2)
// read on Linux (cpu_linux.go), falling back to
// unix.SchedGetaffinity-derived guesses, and a stub that reports CPU 0
// elsewhere (cpu_other.go) per the documented fallback contract.
var DefaultCPUOracle CPUOracle = platformCPUOracle{}

type platformCPUOracle struct{}

func (platformCPUOracle) CurrentCPU() (int, error) {
	return currentCPU()
}

// CurrentCPUPtr is a convenience combining DefaultCPUOracle.CurrentCPU
// with Pool.Ptr, for callers that have not registered their own
// restartable-sequence facility and are content with the racy fallback.
func CurrentCPUPtr(p *Pool, h Handle) (ptr []byte, cpu int, err error) {
	cpu, err = DefaultCPUOracle.CurrentCPU()
	if err != nil {
		return nil, 0, err
	}
	return p.Bytes(h, cpu), cpu, nil
}
