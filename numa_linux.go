//go:build linux

package cpupool

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// mbind flags, from linux/mempolicy.h; not exposed by golang.org/x/sys/unix
// as named constants for all architectures, so kept local the way
// momentics-hioload-ws's Windows NUMA helper keeps its own win32 constants
// alongside golang.org/x/sys/windows calls.
const (
	mpolBind    = 2
	mpolMFMove  = 1 << 1
	mpolMFStrct = 1 << 0
)

// bindRegionToNode asks the kernel to migrate every page backing region
// onto NUMA node, via the mbind(2) syscall with MPOL_MF_MOVE so already
// resident pages are relocated rather than only affecting future faults.
func bindRegionToNode(region []byte, node int, flags int) error {
	if node < 0 || node >= 64 {
		// Beyond what a single nodemask word can represent; treat as
		// unsupported rather than silently truncating the mask.
		return ErrNotSupported
	}
	nodemask := uint64(1) << uint(node)

	addr := uintptr(unsafe.Pointer(&region[0]))
	length := uintptr(len(region))

	_, _, errno := unix.Syscall6(
		unix.SYS_MBIND,
		addr,
		length,
		uintptr(mpolBind),
		uintptr(unsafe.Pointer(&nodemask)),
		uintptr(64), // maxnode: bits in nodemask
		uintptr(mpolMFMove|flags),
	)
	if errno != 0 {
		return errno
	}
	return nil
}
