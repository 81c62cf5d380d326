//go:build !windows

// Package cpupool: default anonymous mapping backend for Unix-like
// targets, split from the portable core the way joshuapare-hivekit's
// hive/dirty/flush_unix.go is split from flush_windows.go for platform
// memory primitives.
package cpupool

import "golang.org/x/sys/unix"

// defaultMap requests an anonymous, private, read-write mapping of length
// bytes from the kernel. The returned slice's length and capacity are
// both exactly length; Munmap must be given back the identical slice.
func defaultMap(_ any, length uintptr) ([]byte, error) {
	region, err := unix.Mmap(-1, 0, int(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return region, nil
}

// defaultUnmap releases a region obtained from defaultMap.
func defaultUnmap(_ any, region []byte) error {
	return unix.Munmap(region)
}
