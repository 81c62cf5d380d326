//go:build linux

package cpupool

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// currentCPU reads the calling thread's last-scheduled CPU via the
// getcpu(2) syscall, the fast path this package's CPUOracle contract
// describes. It falls back to the first CPU in the thread's current
// affinity mask (unix.SchedGetaffinity) if the fast syscall is refused by
// the running kernel/seccomp policy, matching the documented two-tier
// contract: a fast per-thread read, plus a fallback that queries the
// kernel scheduler.
func currentCPU() (int, error) {
	var cpu, node uint32
	if _, _, errno := unix.Syscall(unix.SYS_GETCPU, uintptr(unsafe.Pointer(&cpu)), uintptr(unsafe.Pointer(&node)), 0); errno == 0 {
		return int(cpu), nil
	}

	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, err
	}
	if set.Count() > 0 {
		// At least one bit is set, so this scan stops at the lowest one.
		for i := 0; ; i++ {
			if set.IsSet(i) {
				return i, nil
			}
		}
	}
	return 0, ErrNotSupported
}
