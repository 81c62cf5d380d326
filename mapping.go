package cpupool

// MapFunc requests an anonymous read-write region of length bytes from a
// mapping backend. It returns the mapped region, or a nil slice and an
// error (with the backend's own errno-equivalent) on failure.
type MapFunc func(priv any, length uintptr) ([]byte, error)

// UnmapFunc releases a region previously returned by a MapFunc. It
// returns nil on success, or the backend's own error on failure.
type UnmapFunc func(priv any, region []byte) error

// Mapping pairs a MapFunc/UnmapFunc with a caller-chosen private cookie.
// The default mapping (see mapping_unix.go / mapping_windows.go) requests
// an anonymous private mapping from the operating system; callers may
// supply their own pair, e.g. to serve pools out of huge pages or a
// pre-reserved arena.
type Mapping struct {
	Map   MapFunc
	Unmap UnmapFunc
	Priv  any
}

// defaultMapping returns the platform default anonymous mapping backend.
// Its Map/Unmap implementations live in mapping_unix.go and
// mapping_windows.go behind build constraints, mirroring how
// joshuapare-hivekit splits hive/dirty/flush_unix.go from flush_darwin.go
// for platform-specific memory-sync primitives.
func defaultMapping() Mapping {
	return Mapping{Map: defaultMap, Unmap: defaultUnmap}
}
