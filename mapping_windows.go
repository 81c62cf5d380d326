//go:build windows

// Package cpupool: default anonymous mapping backend for Windows, using
// VirtualAlloc/VirtualFree through golang.org/x/sys/windows, in the style
// of momentics-hioload-ws's pool/bufferpool_windows.go and
// internal/concurrency/numa_windows.go.
package cpupool

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// defaultMap reserves and commits length bytes of read-write memory via
// VirtualAlloc. The region is not backed by a file mapping, matching the
// anonymous-mapping contract of defaultMap on Unix.
func defaultMap(_ any, length uintptr) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, length, windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("cpupool: VirtualAlloc failed: %w", err)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length)), nil
}

// defaultUnmap releases a region obtained from defaultMap.
func defaultUnmap(_ any, region []byte) error {
	if len(region) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&region[0]))
	return windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
}
