//go:build !linux

package cpupool

import "runtime"

// currentCPU has no fast per-thread read available outside Linux's
// getcpu(2); it reports CPU 0 as a stand-in "last scheduled" value,
// bounded by GOMAXPROCS, matching the degraded-mode fallback the
// package's CPUOracle contract allows for.
func currentCPU() (int, error) {
	if runtime.GOMAXPROCS(0) <= 0 {
		return 0, ErrNotSupported
	}
	return 0, nil
}
